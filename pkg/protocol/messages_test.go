package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/tetris2p/pkg/board"
	"github.com/qnkhuat/tetris2p/pkg/mino"
)

func TestEncodeDecodeSnapshot(t *testing.T) {
	s := board.Snapshot{
		HeldKind:        mino.KindT,
		HeldRotation:    0,
		NextKind:        mino.KindI,
		CurrentKind:     mino.KindL,
		CurrentRotation: 3,
		CursorX:         4,
		CursorY:         17,
		Cells:           make([]mino.Kind, board.DefaultWidth*board.DefaultHeight),
	}
	s.Cells[3] = mino.KindZ

	data, err := Encode(SnapshotMessage(s))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	m, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeMessageSnapshot, m.Type)
	assert.Equal(t, s, m.Snapshot)
}

func TestDecodeText(t *testing.T) {
	m, err := Decode([]byte(`{"MsgType":1,"Data":{"Text":"/gameover"},"PlayerId":2,"Name":"eager-fox"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeMessageText, m.Type)
	assert.Equal(t, "/gameover", m.Text)
	assert.Equal(t, 2, m.PlayerId)
	assert.Equal(t, "eager-fox", m.Name)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"MsgType":9,"Data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = Decode([]byte(`{"MsgType":0,"Data":"cells"}`))
	assert.Error(t, err)

	_, err = Encode(Message{Type: MessageType(7)})
	assert.ErrorIs(t, err, ErrUnknownMessage)
}
