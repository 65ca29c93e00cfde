package board

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/tetris2p/pkg/event"
	"github.com/qnkhuat/tetris2p/pkg/mino"
)

type recorder struct {
	NopListener

	redraws int64
	locks   int64
	lines   int64
	status  int64
}

func (r *recorder) Redraw()                      { atomic.AddInt64(&r.redraws, 1) }
func (r *recorder) Locked(Snapshot)              { atomic.AddInt64(&r.locks, 1) }
func (r *recorder) LinesCleared(total int)       { atomic.StoreInt64(&r.lines, int64(total)) }
func (r *recorder) StatusChanged(s event.Status) { atomic.StoreInt64(&r.status, int64(s)) }

func (r *recorder) Locks() int64 {
	return atomic.LoadInt64(&r.locks)
}

// quietConfig never ticks during a test.
func quietConfig() Config {
	c := DefaultConfig()
	c.InitialDelay = time.Hour
	c.TickInterval = time.Hour
	c.Seed = 42
	return c
}

func newPlaying(t *testing.T, c Config, l Listener) *Board {
	t.Helper()

	b := New(c, l)
	b.Start()
	require.True(t, b.Paused())
	b.Resume()
	require.False(t, b.Paused())
	t.Cleanup(b.Close)

	return b
}

func row(b *Board, y int) []mino.Kind {
	r := make([]mino.Kind, b.W)
	for x := range r {
		r[x] = b.Cell(x, y)
	}
	return r
}

func TestBoardStartPaused(t *testing.T) {
	l := &recorder{}
	b := New(quietConfig(), l)
	defer b.Close()

	assert.Equal(t, event.StatusStopped, b.Status())

	b.Start()
	assert.True(t, b.Running())
	assert.True(t, b.Paused())
	assert.Equal(t, event.StatusPaused, b.Status())
	assert.NotEqual(t, mino.KindEmpty, b.Current().Kind)
	assert.NotEqual(t, mino.KindEmpty, b.Next().Kind)
	assert.Equal(t, mino.KindEmpty, b.Held().Kind)
	assert.Equal(t, b.W/2+1, b.Cursor().X)

	// input is ignored while paused
	before := b.Cursor()
	b.MoveLeft()
	assert.Equal(t, before, b.Cursor())

	b.ProcessAction(event.ActionPause)
	assert.Equal(t, event.StatusPlaying, b.Status())
	assert.Equal(t, int64(event.StatusPlaying), atomic.LoadInt64(&l.status))

	b.MoveLeft()
	assert.Equal(t, before.X-1, b.Cursor().X)
}

func TestBoardTryMove(t *testing.T) {
	b := newPlaying(t, quietConfig(), nil)
	require.True(t, b.SetCell(4, 4, mino.KindZ))

	vertical := mino.NewPiece(mino.KindI)
	horizontal := vertical.Rotate()

	tests := []struct {
		name  string
		piece mino.Piece
		x, y  int
		ok    bool
	}{
		{"inside", vertical, 0, 2, true},
		{"left wall", vertical, -1, 5, false},
		{"right wall", vertical, 10, 5, false},
		{"below floor", vertical, 3, 1, false},
		{"above top", vertical, 3, 19, false},
		{"touching top", vertical, 3, 18, true},
		{"overlap", vertical, 4, 5, false},
		{"next to block", vertical, 5, 5, true},
		{"horizontal", horizontal, 2, 0, true},
		{"horizontal overlap", horizontal, 3, 4, false},
		{"empty piece", mino.NewPiece(mino.KindEmpty), 3, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, cursor := b.Current(), b.Cursor()

			ok := b.TryMove(tt.piece, tt.x, tt.y)
			assert.Equal(t, tt.ok, ok)

			if ok {
				assert.Equal(t, tt.piece, b.Current())
				assert.Equal(t, mino.Point{X: tt.x, Y: tt.y}, b.Cursor())
			} else {
				assert.Equal(t, current, b.Current())
				assert.Equal(t, cursor, b.Cursor())
			}
		})
	}
}

func TestBoardRotateBlocked(t *testing.T) {
	b := newPlaying(t, quietConfig(), nil)

	// horizontal I against the floor cannot turn vertical
	require.True(t, b.TryMove(mino.NewPiece(mino.KindI).Rotate(), 4, 0))
	before := b.Current()

	b.Rotate()
	assert.Equal(t, before, b.Current())
	assert.Equal(t, mino.Point{X: 4, Y: 0}, b.Cursor())
}

func TestBoardClearFullLines(t *testing.T) {
	tests := []struct {
		name string
		full []int
	}{
		{"none", nil},
		{"bottom", []int{0}},
		{"split", []int{0, 2, 5}},
		{"stacked", []int{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recorder{}
			b := New(quietConfig(), l)

			fullRows := map[int]bool{}
			for _, y := range tt.full {
				fullRows[y] = true
			}

			// partial rows carry a marker in column y so they can be followed
			var partial [][]mino.Kind
			for y := 0; y < 8; y++ {
				if fullRows[y] {
					for x := 0; x < b.W; x++ {
						require.True(t, b.SetCell(x, y, mino.KindO))
					}
					continue
				}

				require.True(t, b.SetCell(y, y, mino.KindT))
				partial = append(partial, row(b, y))
			}

			cleared := b.ClearFullLines()
			assert.Equal(t, len(tt.full), cleared)
			assert.Equal(t, len(tt.full), b.LinesCleared())

			for y, want := range partial {
				assert.Equal(t, want, row(b, y), "row %d", y)
			}
			for y := len(partial); y < b.H; y++ {
				assert.Equal(t, make([]mino.Kind, b.W), row(b, y), "row %d", y)
			}
		})
	}
}

func TestBoardHardDropClearsLine(t *testing.T) {
	l := &recorder{}
	b := newPlaying(t, quietConfig(), l)

	for x := 0; x < 9; x++ {
		require.True(t, b.SetCell(x, 0, mino.KindL))
	}
	require.True(t, b.SetCell(3, 1, mino.KindS))

	require.True(t, b.TryMove(mino.NewPiece(mino.KindI), 9, 10))
	b.HardDrop()

	assert.Equal(t, 1, b.LinesCleared())
	assert.Equal(t, int64(1), atomic.LoadInt64(&l.lines))
	assert.Equal(t, int64(1), l.Locks())

	want := make([]mino.Kind, b.W)
	want[3] = mino.KindS
	want[9] = mino.KindI
	assert.Equal(t, want, row(b, 0))

	// the next piece waits for the following tick
	assert.True(t, b.LockPending())
	assert.Equal(t, mino.KindEmpty, b.Current().Kind)

	next := b.Next().Kind
	b.Tick()
	assert.False(t, b.LockPending())
	assert.Equal(t, next, b.Current().Kind)
}

func TestBoardSoftDropLocks(t *testing.T) {
	l := &recorder{}
	b := newPlaying(t, quietConfig(), l)

	require.True(t, b.TryMove(mino.NewPiece(mino.KindO), 0, 1))

	b.SoftDrop()
	assert.Equal(t, int64(1), l.Locks())
	assert.Equal(t, mino.KindO, b.Cell(0, 0))
	assert.Equal(t, mino.KindO, b.Cell(1, 1))
	assert.Equal(t, b.W/2+1, b.Cursor().X)
}

func TestBoardHold(t *testing.T) {
	b := newPlaying(t, quietConfig(), nil)

	first := b.Current().Kind
	second := b.Next().Kind

	b.Hold()
	assert.Equal(t, first, b.Held().Kind)
	assert.Equal(t, second, b.Current().Kind)
	assert.True(t, b.HoldUsed())

	third := b.Next().Kind
	b.Hold()
	assert.Equal(t, first, b.Held().Kind)
	assert.Equal(t, second, b.Current().Kind)
	assert.Equal(t, third, b.Next().Kind)

	b.HardDrop()
	assert.False(t, b.HoldUsed())
	require.Equal(t, third, b.Current().Kind)

	b.Hold()
	assert.Equal(t, third, b.Held().Kind)
	assert.Equal(t, first, b.Current().Kind)
	assert.Equal(t, b.W/2, b.Cursor().X)
	assert.Equal(t, b.H-1+b.Current().MinRowOffset(), b.Cursor().Y)
	assert.True(t, b.HoldUsed())
}

func TestBoardGameOver(t *testing.T) {
	l := &recorder{}
	b := New(quietConfig(), l)
	b.Start()
	defer b.Close()

	// stack the top rows, leaving column 0 open so nothing clears
	for y := b.H - 6; y < b.H; y++ {
		for x := 1; x < b.W; x++ {
			b.SetCell(x, y, mino.KindJ)
		}
	}

	b.Resume()
	b.HardDrop()

	assert.True(t, b.IsGameOver())
	assert.Equal(t, event.StatusGameOver, b.Status())
	assert.Equal(t, int64(event.StatusGameOver), atomic.LoadInt64(&l.status))
	assert.Equal(t, mino.KindEmpty, b.Current().Kind)

	before := b.Snapshot()
	b.Tick()
	b.HardDrop()
	b.Hold()
	assert.Equal(t, before, b.Snapshot())

	b.Restart()
	assert.False(t, b.IsGameOver())
	assert.Equal(t, event.StatusPlaying, b.Status())
	assert.Equal(t, 0, b.LinesCleared())
	assert.Equal(t, mino.KindEmpty, b.Held().Kind)
	assert.Equal(t, mino.KindEmpty, b.Cell(5, b.H-1))
}

func TestBoardSnapshotRoundTrip(t *testing.T) {
	b := newPlaying(t, quietConfig(), nil)
	b.Hold()
	b.HardDrop()
	b.Rotate()
	require.True(t, b.SetCell(7, 3, mino.KindT))

	s := b.Snapshot()

	m := NewMirror(b.W, b.H, nil)
	require.NoError(t, m.ApplySnapshot(s))

	assert.Equal(t, b.Held(), m.Held())
	assert.Equal(t, b.Next(), m.Next())
	assert.Equal(t, b.Current(), m.Current())
	assert.Equal(t, s, m.Snapshot())
	assert.Equal(t, b.Render(), m.Render())

	// the snapshot is a copy
	s.Cells[0] = mino.KindZ
	assert.Equal(t, mino.KindEmpty, m.Cell(0, 0))
}

func TestBoardSnapshotRejected(t *testing.T) {
	m := NewMirror(DefaultWidth, DefaultHeight, nil)
	good := New(quietConfig(), nil).Snapshot()
	good.Cells[0] = mino.KindI
	require.NoError(t, m.ApplySnapshot(good))

	short := good
	short.Cells = good.Cells[:10]
	assert.ErrorIs(t, m.ApplySnapshot(short), ErrSnapshotSize)

	badCell := good
	badCell.Cells = append([]mino.Kind(nil), good.Cells...)
	badCell.Cells[5] = mino.Kind(42)
	assert.ErrorIs(t, m.ApplySnapshot(badCell), ErrSnapshotKind)

	badPiece := good
	badPiece.CurrentKind = mino.KindO
	badPiece.CurrentRotation = 2
	assert.ErrorIs(t, m.ApplySnapshot(badPiece), ErrSnapshotKind)

	assert.Equal(t, good, m.Snapshot())

	b := New(quietConfig(), nil)
	assert.ErrorIs(t, b.ApplySnapshot(good), ErrNotMirror)
}

func TestMirrorIgnoresInput(t *testing.T) {
	m := NewMirror(DefaultWidth, DefaultHeight, nil)
	s := m.Snapshot()
	s.Cells[0] = mino.KindS
	s.CurrentKind = mino.KindT
	s.CursorX, s.CursorY = 4, 10
	require.NoError(t, m.ApplySnapshot(s))

	m.Start()
	m.HardDrop()
	m.ProcessAction(event.ActionRestart)
	m.Tick()
	assert.Equal(t, s, m.Snapshot())
	assert.False(t, m.Running())

	m.Reset()
	assert.Equal(t, mino.KindEmpty, m.Cell(0, 0))
	assert.Equal(t, mino.KindEmpty, m.Current().Kind)
}

func TestBoardReset(t *testing.T) {
	b := newPlaying(t, quietConfig(), nil)
	b.SetCell(0, 0, mino.KindZ)
	b.Hold()

	b.Reset()
	assert.False(t, b.Paused())
	assert.Equal(t, mino.KindEmpty, b.Cell(0, 0))
	assert.Equal(t, mino.KindEmpty, b.Held().Kind)
	assert.NotEqual(t, mino.KindEmpty, b.Current().Kind)

	// a board that was never started plays after a reset too
	fresh := New(quietConfig(), nil)
	defer fresh.Close()
	fresh.Reset()
	assert.Equal(t, event.StatusPlaying, fresh.Status())
}

func TestBoardLockDelay(t *testing.T) {
	c := quietConfig()
	c.LockDelay = 50 * time.Millisecond

	l := &recorder{}
	b := newPlaying(t, c, l)
	require.True(t, b.TryMove(mino.NewPiece(mino.KindO), 0, 1))

	b.SoftDrop()
	assert.Equal(t, int64(0), l.Locks())

	require.Eventually(t, func() bool {
		return l.Locks() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, mino.KindO, b.Cell(0, 0))
}

func TestBoardLockDelayCancelledByPause(t *testing.T) {
	c := quietConfig()
	c.LockDelay = 50 * time.Millisecond

	l := &recorder{}
	b := newPlaying(t, c, l)
	require.True(t, b.TryMove(mino.NewPiece(mino.KindO), 0, 1))

	b.SoftDrop()
	b.Pause()
	assert.False(t, b.LockPending())
	before := b.Snapshot()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(0), l.Locks())
	assert.Equal(t, before, b.Snapshot())
	assert.Equal(t, mino.KindEmpty, b.Cell(0, 0))

	// after resume the next descent lands the piece again
	b.Resume()
	b.SoftDrop()
	require.Eventually(t, func() bool {
		return l.Locks() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, mino.KindO, b.Cell(0, 0))
}

func TestBoardLockDelayCancelledByMove(t *testing.T) {
	c := quietConfig()
	c.LockDelay = 50 * time.Millisecond

	l := &recorder{}
	b := newPlaying(t, c, l)
	require.True(t, b.SetCell(0, 0, mino.KindZ))
	require.True(t, b.SetCell(1, 0, mino.KindZ))
	require.True(t, b.TryMove(mino.NewPiece(mino.KindO), 0, 2))

	b.SoftDrop()
	b.MoveRight()
	b.MoveRight()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(0), l.Locks())
	assert.Equal(t, mino.KindEmpty, b.Cell(2, 1))
}

func TestBoardHardDropSkipsLockDelay(t *testing.T) {
	c := quietConfig()
	c.LockDelay = time.Hour

	l := &recorder{}
	b := newPlaying(t, c, l)
	b.HardDrop()
	assert.Equal(t, int64(1), l.Locks())
}

func TestBoardConcurrentTicks(t *testing.T) {
	c := DefaultConfig()
	c.InitialDelay = time.Millisecond
	c.TickInterval = time.Millisecond

	b := newPlaying(t, c, &recorder{})

	var wg sync.WaitGroup
	actions := []event.GameAction{
		event.ActionMoveLeft, event.ActionMoveRight, event.ActionRotate,
		event.ActionSoftDrop, event.ActionHold, event.ActionHardDrop,
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b.ProcessAction(actions[(i+j)%len(actions)])
				_ = b.Render()
			}
		}(i)
	}
	wg.Wait()

	require.Eventually(t, b.IsGameOver, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, mino.KindEmpty, b.Current().Kind)
}
