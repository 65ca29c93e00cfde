package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qnkhuat/tetris2p/pkg/board"
)

type MessageType int

const (
	TypeMessageSnapshot MessageType = iota
	TypeMessageText
)

func (m MessageType) String() string {
	switch m {
	case TypeMessageSnapshot:
		return "TypeMessageSnapshot"
	case TypeMessageText:
		return "TypeMessageText"
	default:
		return "Unknown MessageType"
	}
}

var ErrUnknownMessage = errors.New("unknown message type")

// MessageTransport is the envelope written on the wire, one JSON object per
// line. PlayerId and Name are filled in by the relay on forwarded messages.
type MessageTransport struct {
	MsgType  MessageType
	Data     json.RawMessage
	PlayerId int    `json:",omitempty"`
	Name     string `json:",omitempty"`
}

type MessageText struct {
	Text string
}

// Message is an inbound or outbound payload: a board snapshot or a line of
// text. Type selects which of the two fields is meaningful.
type Message struct {
	Type     MessageType
	Snapshot board.Snapshot
	Text     string

	PlayerId int
	Name     string
}

func SnapshotMessage(s board.Snapshot) Message {
	return Message{Type: TypeMessageSnapshot, Snapshot: s}
}

func TextMessage(text string) Message {
	return Message{Type: TypeMessageText, Text: text}
}

func (m Message) Transport() (MessageTransport, error) {
	var (
		data []byte
		err  error
	)

	switch m.Type {
	case TypeMessageSnapshot:
		data, err = json.Marshal(m.Snapshot)
	case TypeMessageText:
		data, err = json.Marshal(MessageText{Text: m.Text})
	default:
		return MessageTransport{}, fmt.Errorf("%w: %d", ErrUnknownMessage, m.Type)
	}
	if err != nil {
		return MessageTransport{}, err
	}

	return MessageTransport{MsgType: m.Type, Data: data, PlayerId: m.PlayerId, Name: m.Name}, nil
}

// Encode returns the wire form of m without the trailing newline.
func Encode(m Message) ([]byte, error) {
	t, err := m.Transport()
	if err != nil {
		return nil, err
	}

	return json.Marshal(t)
}

func DecodeTransport(line []byte) (MessageTransport, error) {
	var t MessageTransport
	err := json.Unmarshal(line, &t)
	if err != nil {
		return t, fmt.Errorf("decode transport: %w", err)
	}

	return t, nil
}

func (t MessageTransport) Message() (Message, error) {
	m := Message{Type: t.MsgType, PlayerId: t.PlayerId, Name: t.Name}

	switch t.MsgType {
	case TypeMessageSnapshot:
		err := json.Unmarshal(t.Data, &m.Snapshot)
		if err != nil {
			return m, fmt.Errorf("decode snapshot: %w", err)
		}
	case TypeMessageText:
		var text MessageText
		err := json.Unmarshal(t.Data, &text)
		if err != nil {
			return m, fmt.Errorf("decode text: %w", err)
		}
		m.Text = text.Text
	default:
		return m, fmt.Errorf("%w: %d", ErrUnknownMessage, t.MsgType)
	}

	return m, nil
}

// Decode parses one wire line.
func Decode(line []byte) (Message, error) {
	t, err := DecodeTransport(line)
	if err != nil {
		return Message{}, err
	}

	return t.Message()
}
