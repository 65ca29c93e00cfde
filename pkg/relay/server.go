// Package relay pairs two players and moves their messages between them.
// Snapshots and the game over command go to the opponent, chat goes to
// everyone, and a few commands are answered by the relay itself.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kamstrup/intmap"

	"github.com/qnkhuat/tetris2p/pkg/protocol"
)

const (
	RoomSize = 2

	NoticeRoomFull = "Room is full. Try again later."
)

var ErrRoomFull = errors.New("room is full")

type LogLevel int

const (
	LogStandard LogLevel = iota
	LogDebug
	LogVerbose
)

type LogKind int

const (
	LogInfo LogKind = iota
	LogJoin
	LogLeave
	LogError
)

type LogEntry struct {
	Kind LogKind
	Text string
}

type Server struct {
	LogLevel LogLevel
	// Logger receives relay events. When nil they go to the standard logger.
	Logger chan<- LogEntry

	players *intmap.Map[int, *Player]
	nextId  int

	listeners []net.Listener
	servers   []*http.Server
	closed    bool

	upgrader websocket.Upgrader

	sync.Mutex
}

func NewServer() *Server {
	return &Server{
		players: intmap.New[int, *Player](RoomSize),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Host starts a relay on every interface at port. It is what a client runs
// for the start command.
func Host(port int) (io.Closer, error) {
	s := NewServer()

	err := s.Listen(net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) log(kind LogKind, format string, a ...interface{}) {
	text := fmt.Sprintf(format, a...)
	if s.Logger == nil {
		log.Println(text)
		return
	}

	select {
	case s.Logger <- LogEntry{Kind: kind, Text: text}:
	default:
		log.Println(text)
	}
}

func (s *Server) debugf(format string, a ...interface{}) {
	if s.LogLevel < LogDebug {
		return
	}

	s.log(LogInfo, format, a...)
}

// Listen accepts TCP connections on address in the background.
func (s *Server) Listen(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	s.log(LogInfo, "Listening on %s", ln.Addr())
	go s.Serve(ln)
	return nil
}

// Serve accepts connections from ln until it is closed.
func (s *Server) Serve(ln net.Listener) {
	s.Lock()
	if s.closed {
		s.Unlock()
		ln.Close()
		return
	}
	s.listeners = append(s.listeners, ln)
	s.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			s.log(LogError, "Failed to accept connection: %s", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		go s.Join(protocol.NewStreamConn(conn))
	}
}

// ListenWebSocket accepts websocket connections on address in the background.
func (s *Server) ListenWebSocket(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	s.log(LogInfo, "Listening for websockets on %s%s", ln.Addr(), protocol.WebSocketPath)
	go s.ServeWebSocket(ln)
	return nil
}

func (s *Server) ServeWebSocket(ln net.Listener) {
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.WebSocketPath, s.handleWebSocket)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: protocol.ConnTimeout}

	s.Lock()
	if s.closed {
		s.Unlock()
		ln.Close()
		return
	}
	s.servers = append(s.servers, server)
	s.Unlock()

	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log(LogError, "Websocket listener stopped: %s", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log(LogError, "Failed to upgrade connection from %s: %s", r.RemoteAddr, err)
		return
	}

	s.Join(protocol.NewWebSocketConn(conn))
}

// Join adds conn to the room and serves it until it disconnects. A third
// connection is told the room is full and closed.
func (s *Server) Join(conn protocol.Conn) error {
	s.Lock()
	if s.closed || s.players.Len() >= RoomSize {
		s.Unlock()

		data, err := protocol.Encode(protocol.TextMessage(NoticeRoomFull))
		if err == nil {
			conn.WriteLine(data)
		}
		conn.Close()

		s.log(LogInfo, "Rejected %s: %s", conn.RemoteAddr(), ErrRoomFull)
		return ErrRoomFull
	}

	s.nextId++
	p := NewPlayer(s.nextId, conn)
	s.players.Put(p.Id, p)

	s.log(LogJoin, "%s joined from %s (session %s)", p.Name, conn.RemoteAddr(), p.Session)
	s.writeAllL(protocol.TextMessage(fmt.Sprintf("* %s joined.", p.Name)))
	if s.players.Len() < RoomSize {
		p.WriteText("Waiting for an opponent...")
	}
	s.Unlock()

	go p.HandleWrite()
	p.HandleRead(s.handle)

	s.leave(p)
	return nil
}

func (s *Server) leave(p *Player) {
	p.Disconnect()

	s.Lock()
	defer s.Unlock()

	if _, ok := s.players.Get(p.Id); !ok {
		return
	}
	s.players.Del(p.Id)

	s.log(LogLeave, "%s left (session %s)", p.Name, p.Session)
	s.writeAllL(protocol.TextMessage(fmt.Sprintf("* %s left.", p.Name)))
}

func (s *Server) handle(p *Player, line []byte) {
	t, err := protocol.DecodeTransport(line)
	if err != nil {
		s.log(LogError, "Malformed message from %s: %s", p.Name, err)
		return
	}

	s.Lock()
	defer s.Unlock()

	t.PlayerId = p.Id
	t.Name = p.Name

	switch t.MsgType {
	case protocol.TypeMessageSnapshot:
		if s.LogLevel >= LogVerbose {
			s.log(LogInfo, "Snapshot from %s", p.Name)
		}

		s.writeOthersL(p, t)
	case protocol.TypeMessageText:
		m, err := t.Message()
		if err != nil {
			s.log(LogError, "Malformed text from %s: %s", p.Name, err)
			return
		}

		text := strings.ReplaceAll(strings.TrimSpace(m.Text), "\n", "")
		if text == "" {
			return
		}

		if c, ok := protocol.ParseCommand(text); ok && text[0] == protocol.CommandPrefix {
			s.commandL(p, c)
			return
		}

		s.log(LogInfo, "<%s> %s", p.Name, text)
		m.Text = text
		s.writeAllL(m)
	default:
		s.debugf("Unknown message type %d from %s", t.MsgType, p.Name)
	}
}

func (s *Server) commandL(p *Player, c protocol.Command) {
	if c.Name == "" {
		return
	}

	switch strings.ToLower(c.Name) {
	case "gameover":
		s.log(LogInfo, "%s was knocked out", p.Name)
		s.writeOthersTextL(p, c.Forward())
	case "who":
		p.WriteText("Players: " + strings.Join(s.namesL(), ", "))
	case "nick":
		newNick := Nickname(c.Operand)
		if c.Operand == "" || newNick == p.Name {
			return
		}

		oldNick := p.Name
		p.Name = newNick

		s.log(LogInfo, "%s is now known as %s", oldNick, newNick)
		s.writeAllL(protocol.TextMessage(fmt.Sprintf("* %s is now known as %s", oldNick, newNick)))
	default:
		s.debugf("Unknown command from %s: %s", p.Name, c.Name)
		p.WriteText("Unknown command: " + c.Name)
	}
}

func (s *Server) namesL() []string {
	var names []string
	s.players.ForEach(func(_ int, p *Player) bool {
		names = append(names, p.Name)
		return true
	})
	sort.Strings(names)

	return names
}

// Players lists the names of connected players.
func (s *Server) Players() []string {
	s.Lock()
	defer s.Unlock()

	return s.namesL()
}

func (s *Server) writeAllL(m protocol.Message) {
	data, err := protocol.Encode(m)
	if err != nil {
		s.log(LogError, "Failed to encode message: %s", err)
		return
	}

	s.players.ForEach(func(_ int, p *Player) bool {
		p.Write(data)
		return true
	})
}

func (s *Server) writeOthersL(from *Player, t protocol.MessageTransport) {
	data, err := json.Marshal(t)
	if err != nil {
		s.log(LogError, "Failed to encode message: %s", err)
		return
	}

	s.players.ForEach(func(id int, p *Player) bool {
		if id != from.Id {
			p.Write(data)
		}
		return true
	})
}

func (s *Server) writeOthersTextL(from *Player, text string) {
	m := protocol.TextMessage(text)
	m.PlayerId = from.Id
	m.Name = from.Name

	t, err := m.Transport()
	if err != nil {
		s.log(LogError, "Failed to encode message: %s", err)
		return
	}

	s.writeOthersL(from, t)
}

// Close stops every listener and disconnects all players.
func (s *Server) Close() error {
	s.Lock()
	if s.closed {
		s.Unlock()
		return nil
	}
	s.closed = true

	listeners, servers := s.listeners, s.servers
	s.listeners, s.servers = nil, nil

	var players []*Player
	s.players.ForEach(func(_ int, p *Player) bool {
		players = append(players, p)
		return true
	})
	s.Unlock()

	var errs []error
	for _, ln := range listeners {
		err := ln.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	for _, server := range servers {
		errs = append(errs, server.Close())
	}
	for _, p := range players {
		p.Disconnect()
	}

	return errors.Join(errs...)
}
