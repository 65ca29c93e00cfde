package relay

import (
	"log"
	"regexp"
	"sync"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"

	"github.com/qnkhuat/tetris2p/pkg/protocol"
)

const (
	MessageQueueSize = 20
	MaxNicknameSize  = 16
)

var nickRegexp = regexp.MustCompile(`[^a-zA-Z0-9_\-!@#$%^&*+=,.]+`)

// Nickname strips unsupported characters from nick. An empty result is
// replaced by a generated name.
func Nickname(nick string) string {
	nick = nickRegexp.ReplaceAllString(nick, "")
	if len(nick) > MaxNicknameSize {
		nick = nick[:MaxNicknameSize]
	} else if nick == "" {
		nick = petname.Generate(2, "-")
	}

	return nick
}

type Player struct {
	Id      int
	Session uuid.UUID
	// Name is guarded by the server lock.
	Name    string

	conn protocol.Conn
	out  chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func NewPlayer(id int, conn protocol.Conn) *Player {
	return &Player{
		Id:      id,
		Session: uuid.New(),
		Name:    Nickname(""),
		conn:    conn,
		out:     make(chan []byte, MessageQueueSize),
		done:    make(chan struct{}),
	}
}

// Write queues a line for the player. It never blocks: a full queue drops the
// line.
func (p *Player) Write(line []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.out <- line:
		return true
	default:
		log.Printf("Dropped message to player %d: queue full", p.Id)
		return false
	}
}

func (p *Player) WriteMessage(m protocol.Message) bool {
	data, err := protocol.Encode(m)
	if err != nil {
		log.Printf("Failed to encode message for player %d: %s", p.Id, err)
		return false
	}

	return p.Write(data)
}

func (p *Player) WriteText(text string) bool {
	return p.WriteMessage(protocol.TextMessage(text))
}

// HandleRead hands every line the player sends to handle until the connection
// ends.
func (p *Player) HandleRead(handle func(p *Player, line []byte)) {
	for {
		line, err := p.conn.ReadLine()
		if err != nil {
			return
		}

		handle(p, line)
	}
}

func (p *Player) HandleWrite() {
	for {
		select {
		case <-p.done:
			return
		case line := <-p.out:
			err := p.conn.WriteLine(line)
			if err != nil {
				log.Printf("Failed to write to player %d: %s", p.Id, err)
				p.Disconnect()
				return
			}
		}
	}
}

func (p *Player) Disconnect() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}
