package board

import (
	"errors"
	"fmt"

	"github.com/qnkhuat/tetris2p/pkg/mino"
)

var (
	ErrSnapshotSize = errors.New("snapshot cell count does not match board")
	ErrSnapshotKind = errors.New("snapshot contains an unknown piece")
	ErrNotMirror    = errors.New("snapshots can only be applied to a mirror board")
)

// Snapshot is a self-contained copy of a board taken when a piece locks. A
// receiver overwrites its mirror with it unconditionally.
type Snapshot struct {
	HeldKind        mino.Kind `json:"heldKind"`
	HeldRotation    int       `json:"heldRotation"`
	NextKind        mino.Kind `json:"nextKind"`
	NextRotation    int       `json:"nextRotation"`
	CurrentKind     mino.Kind `json:"currentKind"`
	CurrentRotation int       `json:"currentRotation"`

	CursorX int `json:"cursorX"`
	CursorY int `json:"cursorY"`

	Cells []mino.Kind `json:"cells"`
}

func (s Snapshot) Held() mino.Piece {
	return mino.Piece{Kind: s.HeldKind, Rotation: s.HeldRotation}
}

func (s Snapshot) Next() mino.Piece {
	return mino.Piece{Kind: s.NextKind, Rotation: s.NextRotation}
}

func (s Snapshot) Current() mino.Piece {
	return mino.Piece{Kind: s.CurrentKind, Rotation: s.CurrentRotation}
}

// Validate checks the snapshot against a board of w by h cells.
func (s Snapshot) Validate(w int, h int) error {
	if len(s.Cells) != w*h {
		return fmt.Errorf("%w: got %d cells, want %d", ErrSnapshotSize, len(s.Cells), w*h)
	}

	for name, p := range map[string]mino.Piece{"held": s.Held(), "next": s.Next(), "current": s.Current()} {
		if !p.Valid() {
			return fmt.Errorf("%w: %s piece %d/%d", ErrSnapshotKind, name, p.Kind, p.Rotation)
		}
	}

	for i, k := range s.Cells {
		if !k.Valid() {
			return fmt.Errorf("%w: cell %d holds %d", ErrSnapshotKind, i, k)
		}
	}

	return nil
}
