package protocol

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	ConnTimeout = 10 * time.Second

	// WebSocketPath is where the relay upgrades HTTP connections.
	WebSocketPath = "/ws"

	maxLineSize = 1 << 20
)

// Conn carries newline-delimited messages. TCP connections frame them with a
// trailing newline, websocket connections send one text frame per message.
// ReadLine and WriteLine may be called concurrently with each other but not
// with themselves.
type Conn interface {
	ReadLine() ([]byte, error)
	WriteLine(line []byte) error
	Close() error
	RemoteAddr() net.Addr
}

type streamConn struct {
	net.Conn
	scanner *bufio.Scanner
}

func NewStreamConn(c net.Conn) Conn {
	scanner := bufio.NewScanner(c)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	return &streamConn{Conn: c, scanner: scanner}
}

func (s *streamConn) ReadLine() ([]byte, error) {
	if !s.scanner.Scan() {
		err := s.scanner.Err()
		if err == nil {
			err = net.ErrClosed
		}
		return nil, err
	}

	line := s.scanner.Bytes()
	out := make([]byte, len(line))
	copy(out, line)
	return out, nil
}

func (s *streamConn) WriteLine(line []byte) error {
	// Relays hand the same line to several conns: never append into the
	// caller's array.
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line[:len(line):len(line)], '\n')
	}

	err := s.SetWriteDeadline(time.Now().Add(ConnTimeout))
	if err != nil {
		return err
	}

	_, err = s.Write(line)
	return err
}

type webSocketConn struct {
	conn *websocket.Conn

	closeOnce sync.Once
}

func NewWebSocketConn(c *websocket.Conn) Conn {
	return &webSocketConn{conn: c}
}

func (w *webSocketConn) ReadLine() ([]byte, error) {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			return nil, err
		}

		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (w *webSocketConn) WriteLine(line []byte) error {
	err := w.conn.SetWriteDeadline(time.Now().Add(ConnTimeout))
	if err != nil {
		return err
	}

	return w.conn.WriteMessage(websocket.TextMessage, line)
}

func (w *webSocketConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = w.conn.Close()
	})
	return err
}

func (w *webSocketConn) RemoteAddr() net.Addr {
	return w.conn.RemoteAddr()
}

// Dial opens a connection to a relay. A host written as ws:// or wss:// URL
// is reached over websocket, anything else over TCP.
func Dial(ctx context.Context, host string, port int) (Conn, error) {
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parse host %q: %w", host, err)
		}
		if u.Port() == "" {
			u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
		}
		if u.Path == "" {
			u.Path = WebSocketPath
		}

		dialer := websocket.Dialer{HandshakeTimeout: ConnTimeout}
		c, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", u, err)
		}

		return NewWebSocketConn(c), nil
	}

	address := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: ConnTimeout}
	c, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	return NewStreamConn(c), nil
}
