package board

import (
	"github.com/qnkhuat/tetris2p/pkg/event"
)

// Listener receives board notifications. Methods are called while the board
// is locked: implementations must not block and must not call back into the
// board.
type Listener interface {
	Redraw()
	StatusChanged(s event.Status)
	LinesCleared(total int)
	Sound(s event.Sound)
	// Locked carries the board state right after a piece locked and full
	// lines were cleared.
	Locked(s Snapshot)
}

// NopListener ignores every notification. Embed it to implement only part of
// Listener.
type NopListener struct{}

func (NopListener) Redraw()                    {}
func (NopListener) StatusChanged(event.Status) {}
func (NopListener) LinesCleared(int)           {}
func (NopListener) Sound(event.Sound)          {}
func (NopListener) Locked(Snapshot)            {}

// Listeners fans every notification out to each listener in order.
type Listeners []Listener

func (ls Listeners) Redraw() {
	for _, l := range ls {
		l.Redraw()
	}
}

func (ls Listeners) StatusChanged(s event.Status) {
	for _, l := range ls {
		l.StatusChanged(s)
	}
}

func (ls Listeners) LinesCleared(total int) {
	for _, l := range ls {
		l.LinesCleared(total)
	}
}

func (ls Listeners) Sound(s event.Sound) {
	for _, l := range ls {
		l.Sound(s)
	}
}

func (ls Listeners) Locked(s Snapshot) {
	for _, l := range ls {
		l.Locked(s)
	}
}
