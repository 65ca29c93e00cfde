package protocol

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

const ConnQueueSize = 10

var (
	ErrNotConnected     = errors.New("client not connected")
	ErrAlreadyConnected = errors.New("client already connected")
	ErrQueueFull        = errors.New("outgoing queue full")
	ErrSendFailed       = errors.New("send failed")
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Handler receives what a Client reads. Methods are never called with the
// client locked, so they may call back into it.
type Handler interface {
	HandleMessage(m Message)
	// Disconnected is called once per connection when it ends. err is nil
	// for a local Disconnect and wraps ErrSendFailed when a write failed.
	Disconnected(err error)
}

// link is a single connection. A Client replaces it on every Connect so
// goroutines of an old connection never act on a new one.
type link struct {
	conn Conn

	out       chan []byte
	snapshots chan []byte
	done      chan struct{}

	closeOnce sync.Once
}

// Client is the transport side of a session: it dials the relay, queues
// outbound messages and hands inbound ones to its Handler.
type Client struct {
	handler Handler
	dial    func(ctx context.Context, host string, port int) (Conn, error)

	link  *link
	state State

	sync.Mutex
}

func NewClient(h Handler) *Client {
	return &Client{handler: h, dial: Dial}
}

func (c *Client) State() State {
	c.Lock()
	defer c.Unlock()

	return c.state
}

func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

func (c *Client) Connect(ctx context.Context, host string, port int) error {
	c.Lock()
	if c.state != StateDisconnected {
		c.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.Unlock()

	log.Printf("Connecting to %s:%d", host, port)
	conn, err := c.dial(ctx, host, port)

	c.Lock()
	defer c.Unlock()

	if err != nil {
		c.state = StateDisconnected
		return err
	}

	c.attach(conn)
	return nil
}

// Attach adopts an already open connection.
func (c *Client) Attach(conn Conn) error {
	c.Lock()
	defer c.Unlock()

	if c.state != StateDisconnected {
		return ErrAlreadyConnected
	}

	c.attach(conn)
	return nil
}

func (c *Client) attach(conn Conn) {
	l := &link{
		conn:      conn,
		out:       make(chan []byte, ConnQueueSize),
		snapshots: make(chan []byte, 1),
		done:      make(chan struct{}),
	}

	c.link = l
	c.state = StateConnected

	go c.handleRead(l)
	go c.handleWrite(l)
}

func (c *Client) Disconnect() error {
	c.Lock()
	l := c.link
	c.Unlock()

	if l == nil {
		return ErrNotConnected
	}

	c.drop(l, nil)
	return nil
}

// Send queues m without blocking. Only the most recent unsent snapshot is
// kept: a newer one replaces it.
func (c *Client) Send(m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	c.Lock()
	defer c.Unlock()

	l := c.link
	if l == nil || c.state != StateConnected {
		return ErrNotConnected
	}

	if m.Type == TypeMessageSnapshot {
		select {
		case l.snapshots <- data:
		default:
			select {
			case <-l.snapshots:
			default:
			}
			l.snapshots <- data
		}
		return nil
	}

	select {
	case l.out <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *Client) SendText(text string) error {
	return c.Send(TextMessage(text))
}

func (c *Client) handleRead(l *link) {
	for {
		line, err := l.conn.ReadLine()
		if err != nil {
			select {
			case <-l.done:
			default:
				log.Printf("Read failed: %s", err)
			}
			c.drop(l, nil)
			return
		}

		m, err := Decode(line)
		if err != nil {
			log.Printf("Dropped malformed message: %s", err)
			continue
		}

		c.handler.HandleMessage(m)
	}
}

func (c *Client) handleWrite(l *link) {
	var data []byte

	for {
		// Snapshots queued before a text message go out first.
		select {
		case data = <-l.snapshots:
		default:
			select {
			case <-l.done:
				return
			case data = <-l.snapshots:
			case data = <-l.out:
			}
		}

		err := l.conn.WriteLine(data)
		if err != nil {
			log.Printf("Write failed: %s", err)
			c.drop(l, fmt.Errorf("%w: %s", ErrSendFailed, err))
			return
		}
	}
}

// drop closes l once and reports it to the handler.
func (c *Client) drop(l *link, reason error) {
	closed := false
	l.closeOnce.Do(func() {
		closed = true
		close(l.done)
		l.conn.Close()

		c.Lock()
		if c.link == l {
			c.link = nil
			c.state = StateDisconnected
		}
		c.Unlock()
	})

	if closed {
		c.handler.Disconnected(reason)
	}
}
