package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"

	"github.com/qnkhuat/tetris2p/pkg/board"
	"github.com/qnkhuat/tetris2p/pkg/event"
)

const (
	NoticeConnected       = "Connected to server."
	NoticeDisconnected    = "Disconnected from server."
	NoticeCannotConnect   = "Cannot open connection. Awaiting command."
	NoticeAlreadyConnect  = "Client already connected."
	NoticeNotConnected    = "Client not connected."
	NoticeSendFailed      = "Could not send the updater to opponent. Terminating client."
	NoticeCannotListen    = "ERROR - Could not listen for clients!"
	NoticeWon             = "You won!"
	NoticeMessageNotSent  = "Could not send message to server."
	gameOverCommandString = "/gameover"
)

// Display is the presentation side of a session.
type Display interface {
	// Print shows a line in the message pane. It must not block.
	Print(text string)
	Quit()
}

// HostFunc starts a relay listening on port. It is what the start command
// runs before connecting to it.
type HostFunc func(port int) (io.Closer, error)

// Session ties a local board and an opponent mirror to a Client. It turns
// locks into outbound snapshots, applies inbound ones to the mirror and
// interprets typed commands.
//
// Set Local and Mirror before the first message arrives. The session must be
// registered as a listener of Local.
type Session struct {
	board.NopListener

	Local  *board.Board
	Mirror *board.Board

	client  *Client
	display Display
	hostFn  HostFunc

	host   string
	port   int
	nick   string
	hosted io.Closer

	sync.Mutex
}

func NewSession(d Display, host string, port int, hostFn HostFunc) *Session {
	s := &Session{
		display: d,
		hostFn:  hostFn,
		host:    host,
		port:    port,
	}
	s.client = NewClient(s)

	return s
}

func (s *Session) Client() *Client {
	return s.client
}

func (s *Session) Host() string {
	s.Lock()
	defer s.Unlock()

	return s.host
}

func (s *Session) Port() int {
	s.Lock()
	defer s.Unlock()

	return s.port
}

// SetNick sets the name announced to the relay on every connect.
func (s *Session) SetNick(nick string) {
	s.Lock()
	defer s.Unlock()

	s.nick = nick
}

func (s *Session) Nick() string {
	s.Lock()
	defer s.Unlock()

	return s.nick
}

// Multiplayer reports whether locks are currently sent to an opponent.
func (s *Session) Multiplayer() bool {
	return s.client.Connected()
}

// Locked sends the post-clear board to the opponent. It runs under the local
// board lock and only queues.
func (s *Session) Locked(snap board.Snapshot) {
	if !s.Multiplayer() {
		return
	}

	err := s.client.Send(SnapshotMessage(snap))
	if err != nil {
		log.Printf("Failed to queue snapshot: %s", err)
	}
}

func (s *Session) StatusChanged(status event.Status) {
	if status != event.StatusGameOver || !s.Multiplayer() {
		return
	}

	err := s.client.SendText(gameOverCommandString)
	if err != nil {
		log.Printf("Failed to queue game over: %s", err)
	}
}

func (s *Session) HandleMessage(m Message) {
	switch m.Type {
	case TypeMessageSnapshot:
		if s.Mirror == nil {
			return
		}

		err := s.Mirror.ApplySnapshot(m.Snapshot)
		if err != nil {
			log.Printf("Rejected snapshot from %d: %s", m.PlayerId, err)
		}
	case TypeMessageText:
		if c, ok := ParseCommand(m.Text); ok && m.Text[0] == CommandPrefix && c.Instruction == InstructionGameOver {
			s.matchWon()
			return
		}

		if m.Name != "" {
			s.display.Print(fmt.Sprintf("<%s> %s", m.Name, m.Text))
		} else {
			s.display.Print("> " + m.Text)
		}
	}
}

func (s *Session) Disconnected(err error) {
	if errors.Is(err, ErrSendFailed) {
		s.display.Print(NoticeSendFailed)
	}

	s.display.Print(NoticeDisconnected)
}

// HandleInput processes a line typed by the local player. Prefixed lines are
// commands, anything else is sent to the relay as chat.
func (s *Session) HandleInput(text string) {
	if text == "" {
		return
	}

	c, ok := ParseCommand(text)
	if !ok {
		s.send(text)
		return
	} else if c.Name == "" {
		return
	}

	switch c.Instruction {
	case InstructionConnect:
		s.Connect()
	case InstructionDisconnect:
		s.Disconnect()
	case InstructionStart:
		s.Start()
	case InstructionQuit:
		s.Quit()
	case InstructionGameOver:
		s.matchWon()
	case InstructionSetHost:
		if s.client.Connected() {
			s.Disconnect()
		}

		s.Lock()
		s.host = c.Operand
		s.Unlock()

		s.display.Print("The host has been set to: " + c.Operand)
		s.Connect()
	case InstructionSetPort:
		port, err := strconv.Atoi(c.Operand)
		if err != nil || port <= 0 || port > 65535 {
			s.display.Print("Invalid port: " + c.Operand)
			return
		}

		if s.client.Connected() {
			s.Disconnect()
		}

		s.Lock()
		s.port = port
		s.Unlock()

		s.display.Print("Port set: " + strconv.Itoa(port))
	case InstructionGetHost:
		s.display.Print("The host is: " + s.Host())
	case InstructionGetPort:
		s.display.Print("The port is: " + strconv.Itoa(s.Port()))
	default:
		log.Printf("Command not found, sending to server: %s", c.Name)
		s.send(c.Forward())
	}
}

func (s *Session) send(text string) {
	err := s.client.SendText(text)
	if errors.Is(err, ErrNotConnected) {
		s.display.Print(NoticeNotConnected)
	} else if err != nil {
		log.Printf("Failed to send message: %s", err)
		s.display.Print(NoticeMessageNotSent)
	}
}

func (s *Session) Connect() {
	if s.client.State() != StateDisconnected {
		s.display.Print(NoticeAlreadyConnect)
		return
	}

	host, port := s.Host(), s.Port()

	err := s.client.Connect(context.Background(), host, port)
	if errors.Is(err, ErrAlreadyConnected) {
		s.display.Print(NoticeAlreadyConnect)
		return
	} else if err != nil {
		log.Printf("Failed to connect: %s", err)
		s.display.Print(NoticeCannotConnect)
		return
	}

	s.display.Print(NoticeConnected)

	if nick := s.Nick(); nick != "" {
		s.send("/nick " + nick)
	}
}

func (s *Session) Disconnect() {
	err := s.client.Disconnect()
	if err != nil {
		s.display.Print(NoticeNotConnected)
	}
}

// Start hosts a relay on the configured port, then connects to it.
func (s *Session) Start() {
	s.Lock()
	hosted, port := s.hosted, s.port
	s.Unlock()

	if hosted == nil {
		if s.hostFn == nil {
			s.display.Print(NoticeCannotListen)
			return
		}

		closer, err := s.hostFn(port)
		if err != nil {
			log.Printf("Failed to host relay on port %d: %s", port, err)
			s.display.Print(NoticeCannotListen)
			return
		}

		s.Lock()
		s.hosted = closer
		s.Unlock()
	}

	s.Connect()
}

// Quit tears the session down and closes both boards.
func (s *Session) Quit() {
	s.client.Disconnect()

	s.Lock()
	hosted := s.hosted
	s.hosted = nil
	s.Unlock()

	if hosted != nil {
		hosted.Close()
	}

	if s.Local != nil {
		s.Local.Close()
	}
	if s.Mirror != nil {
		s.Mirror.Close()
	}

	s.display.Quit()
}

func (s *Session) matchWon() {
	if s.Local != nil {
		s.Local.Reset()
	}
	if s.Mirror != nil {
		s.Mirror.Reset()
	}

	s.display.Print(NoticeWon)
}
