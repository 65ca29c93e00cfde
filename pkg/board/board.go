package board

import (
	"strings"
	"sync"
	"time"

	"github.com/qnkhuat/tetris2p/pkg/event"
	"github.com/qnkhuat/tetris2p/pkg/mino"
	"github.com/qnkhuat/tetris2p/pkg/ticker"
)

const (
	DefaultWidth  = 10
	DefaultHeight = 20
)

type Config struct {
	Width  int
	Height int

	InitialDelay time.Duration
	TickInterval time.Duration
	// LockDelay is the grace period between a piece coming to rest and the
	// lock being committed.
	LockDelay time.Duration

	// Seed for the piece randomizer, zero picks one from the clock.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		InitialDelay: ticker.DefaultInitialDelay,
		TickInterval: ticker.DefaultInterval,
	}
}

// Board is the grid of locked cells plus the current, next and held pieces.
// All state is guarded by the embedded mutex; the tick loop and player input
// both go through it.
type Board struct {
	W int
	H int

	cells []mino.Kind

	current mino.Piece
	next    mino.Piece
	held    mino.Piece
	cursor  mino.Point

	linesCleared int

	running     bool
	paused      bool
	gameOver    bool
	holdUsed    bool
	lockPending bool
	closed      bool

	firstPieceMade bool

	landing bool
	landGen int

	mirror bool

	config   Config
	rand     *mino.Randomizer
	ticker   *ticker.Ticker
	listener Listener

	sync.Mutex
}

func I(x int, y int, w int) int {
	return (y * w) + x
}

// New returns an interactive board in the stopped state.
func New(config Config, l Listener) *Board {
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	if l == nil {
		l = NopListener{}
	}

	return &Board{
		W:        config.Width,
		H:        config.Height,
		cells:    make([]mino.Kind, config.Width*config.Height),
		config:   config,
		rand:     mino.NewRandomizer(config.Seed),
		listener: l,
	}
}

// NewMirror returns a read-only board reflecting an opponent. It ignores input
// and never ticks; it only changes through ApplySnapshot and Reset.
func NewMirror(w int, h int, l Listener) *Board {
	b := New(Config{Width: w, Height: h}, l)
	b.mirror = true

	return b
}

func (b *Board) Mirror() bool {
	return b.mirror
}

// Start resets the board, spawns the first piece and starts the tick loop in
// the paused state. It does nothing while already paused.
func (b *Board) Start() {
	b.Lock()
	defer b.Unlock()

	if b.paused || b.mirror || b.closed {
		return
	}

	b.running = true
	b.gameOver = false
	b.lockPending = false
	b.holdUsed = false
	b.linesCleared = 0
	b.clearBoard()
	b.listener.LinesCleared(b.linesCleared)

	b.newTicker()
	b.spawnPiece()

	b.pause()
}

func (b *Board) newTicker() {
	if b.ticker != nil {
		b.ticker.Stop()
	}

	b.ticker = ticker.New(b.config.InitialDelay, b.config.TickInterval, b.Tick)
	b.ticker.Start(true)
}

// TogglePause flips between paused and playing.
func (b *Board) TogglePause() {
	b.Lock()
	defer b.Unlock()

	if b.paused {
		b.resume()
	} else {
		b.pause()
	}
}

func (b *Board) Pause() {
	b.Lock()
	defer b.Unlock()

	b.pause()
}

func (b *Board) pause() {
	if !b.running || b.paused || b.closed {
		return
	}

	b.paused = true
	b.ticker.Pause()
	// A pending lock is dropped; the next descent after resume lands again.
	b.cancelLanding()

	b.listener.StatusChanged(event.StatusPaused)
	b.listener.Redraw()
}

func (b *Board) Resume() {
	b.Lock()
	defer b.Unlock()

	b.resume()
}

func (b *Board) resume() {
	if !b.running || !b.paused || b.closed {
		return
	}

	b.paused = false
	b.ticker.Resume()

	b.listener.StatusChanged(event.StatusPlaying)
	b.listener.Redraw()
}

// Restart starts a fresh session and resumes play. It is only honored while
// paused, which includes the game over state.
func (b *Board) Restart() {
	b.Lock()
	defer b.Unlock()

	b.restart()
}

func (b *Board) restart() {
	if !b.paused || b.mirror || b.closed {
		return
	}

	b.running = true
	b.gameOver = false
	b.lockPending = false
	b.holdUsed = false
	b.firstPieceMade = false
	b.linesCleared = 0
	b.held.SetKind(mino.KindEmpty)
	b.next.SetKind(mino.KindEmpty)
	b.clearBoard()
	b.listener.LinesCleared(b.linesCleared)

	if b.ticker == nil || b.ticker.Stopped() {
		b.newTicker()
	}

	b.spawnPiece()
	b.resume()
}

// Reset clears the board for a new match. A mirror is emptied; an interactive
// board is paused and restarted.
func (b *Board) Reset() {
	b.Lock()
	defer b.Unlock()

	if b.closed {
		return
	}

	if b.mirror {
		b.clearBoard()
		b.current.SetKind(mino.KindEmpty)
		b.next.SetKind(mino.KindEmpty)
		b.held.SetKind(mino.KindEmpty)
		b.linesCleared = 0

		b.listener.LinesCleared(b.linesCleared)
		b.listener.Redraw()
		return
	}

	if !b.paused {
		if b.running {
			b.pause()
		} else {
			b.paused = true
		}
	}

	b.restart()
}

func (b *Board) GameOver() {
	b.Lock()
	defer b.Unlock()

	b.setGameOver()
}

func (b *Board) setGameOver() {
	if b.gameOver {
		return
	}

	b.gameOver = true
	b.running = false
	b.paused = true
	b.holdUsed = false
	b.lockPending = false
	b.firstPieceMade = false
	b.cancelLanding()
	b.current.SetKind(mino.KindEmpty)

	if b.ticker != nil {
		b.ticker.Stop()
	}

	b.listener.StatusChanged(event.StatusGameOver)
	b.listener.Redraw()
}

// Close ends the session for good. The tick loop is stopped and every later
// call leaves the board untouched.
func (b *Board) Close() {
	b.Lock()
	defer b.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	b.running = false
	b.cancelLanding()

	if b.ticker != nil {
		b.ticker.Stop()
	}
}

// Tick lowers the current piece by one row, or spawns the next piece when the
// previous lock cleared lines.
func (b *Board) Tick() {
	b.Lock()
	defer b.Unlock()

	if !b.running || b.paused || b.gameOver || b.closed {
		return
	}

	if b.lockPending {
		b.lockPending = false
		b.spawnPiece()
		return
	}

	b.oneLineDown()
}

func (b *Board) clearBoard() {
	for i := range b.cells {
		b.cells[i] = mino.KindEmpty
	}
}

func (b *Board) spawnColumn() int {
	return (b.W / 2) + 1
}

func (b *Board) spawnPiece() {
	if !b.spawn() {
		b.setGameOver()
	}
}

// spawn promotes next to current at the spawn position and reports whether
// it fits.
func (b *Board) spawn() bool {
	if !b.firstPieceMade {
		b.next.SetKind(b.rand.Take())
		b.firstPieceMade = true
	}

	b.cancelLanding()
	b.current.SetKind(b.next.Kind)
	b.next.SetKind(b.rand.Take())
	b.holdUsed = false

	x := b.spawnColumn()
	y := b.H - 1 + b.current.MinRowOffset()
	b.cursor = mino.Point{X: x, Y: y}

	return b.tryMove(b.current, x, y)
}

// TryMove places p with its pivot at (x, y) when every cell is inside the grid
// and empty. On failure the board is left unchanged.
func (b *Board) TryMove(p mino.Piece, x int, y int) bool {
	b.Lock()
	defer b.Unlock()

	if b.closed {
		return false
	}

	return b.tryMove(p, x, y)
}

func (b *Board) tryMove(p mino.Piece, x int, y int) bool {
	if !b.fits(p, x, y) {
		return false
	}

	b.current = p
	b.cursor = mino.Point{X: x, Y: y}

	b.listener.Redraw()
	return true
}

func (b *Board) fits(p mino.Piece, x int, y int) bool {
	cells := p.Cells()
	if len(cells) == 0 {
		return false
	}

	for _, c := range cells {
		cx, cy := x+c.X, y+c.Y
		if cx < 0 || cx >= b.W || cy < 0 || cy >= b.H {
			return false
		} else if b.cells[I(cx, cy, b.W)] != mino.KindEmpty {
			return false
		}
	}

	return true
}

func (b *Board) playable() bool {
	return b.running && !b.paused && !b.gameOver && !b.closed && !b.mirror && b.current.Kind != mino.KindEmpty
}

// ProcessAction applies a player action. Pause and restart are always
// accepted, piece actions only while playing.
func (b *Board) ProcessAction(a event.GameAction) {
	b.Lock()
	defer b.Unlock()

	if b.mirror || b.closed {
		return
	}

	switch a {
	case event.ActionPause:
		if b.paused {
			b.resume()
		} else {
			b.pause()
		}
		return
	case event.ActionRestart:
		b.restart()
		return
	}

	if !b.playable() {
		return
	}

	switch a {
	case event.ActionRotate:
		b.tryMove(b.current.Rotate(), b.cursor.X, b.cursor.Y)
		b.listener.Sound(event.SoundRotate)
	case event.ActionMoveLeft:
		b.tryMove(b.current, b.cursor.X-1, b.cursor.Y)
		b.listener.Sound(event.SoundMove)
	case event.ActionMoveRight:
		b.tryMove(b.current, b.cursor.X+1, b.cursor.Y)
		b.listener.Sound(event.SoundMove)
	case event.ActionSoftDrop:
		b.oneLineDown()
		b.listener.Sound(event.SoundMove)
	case event.ActionHardDrop:
		b.listener.Sound(event.SoundDrop)
		b.dropDown()
	case event.ActionHold:
		b.hold()
	}
}

func (b *Board) Rotate()    { b.ProcessAction(event.ActionRotate) }
func (b *Board) MoveLeft()  { b.ProcessAction(event.ActionMoveLeft) }
func (b *Board) MoveRight() { b.ProcessAction(event.ActionMoveRight) }
func (b *Board) SoftDrop()  { b.ProcessAction(event.ActionSoftDrop) }
func (b *Board) HardDrop()  { b.ProcessAction(event.ActionHardDrop) }
func (b *Board) Hold()      { b.ProcessAction(event.ActionHold) }

func (b *Board) oneLineDown() {
	if !b.tryMove(b.current, b.cursor.X, b.cursor.Y-1) {
		b.land()
	}
}

func (b *Board) dropDown() {
	for b.tryMove(b.current, b.cursor.X, b.cursor.Y-1) {
	}

	b.lockPiece()
}

// land locks the resting piece, after the lock delay when one is configured.
func (b *Board) land() {
	if b.config.LockDelay <= 0 {
		b.lockPiece()
		return
	} else if b.landing {
		return
	}

	b.landing = true
	gen := b.landGen

	time.AfterFunc(b.config.LockDelay, func() {
		b.Lock()
		defer b.Unlock()

		if gen != b.landGen || !b.landing || b.closed || b.gameOver {
			return
		}

		b.landing = false

		// A late nudge may have moved the piece over a gap.
		if b.fits(b.current, b.cursor.X, b.cursor.Y-1) {
			return
		}

		b.lockPiece()
	})
}

func (b *Board) cancelLanding() {
	b.landing = false
	b.landGen++
}

func (b *Board) hold() {
	if b.holdUsed {
		return
	}

	if b.held.Kind == mino.KindEmpty {
		b.held.SetKind(b.current.Kind)
		b.spawnPiece()
	} else {
		heldKind := b.held.Kind
		b.held.SetKind(b.current.Kind)

		b.cancelLanding()
		b.current.SetKind(heldKind)
		b.cursor = mino.Point{X: b.W / 2, Y: b.H - 1 + b.current.MinRowOffset()}

		if !b.fits(b.current, b.cursor.X, b.cursor.Y) {
			b.setGameOver()
		}
	}

	if b.gameOver {
		return
	}

	b.holdUsed = true
	b.lockPending = false

	b.listener.Redraw()
}

func (b *Board) lockPiece() {
	if b.current.Kind == mino.KindEmpty {
		return
	}

	b.cancelLanding()

	for _, c := range b.current.Cells() {
		b.cells[I(b.cursor.X+c.X, b.cursor.Y+c.Y, b.W)] = b.current.Kind
	}

	cleared := b.clearFullLines()
	b.holdUsed = false

	spawned := true
	if cleared > 0 {
		b.lockPending = true
		b.current.SetKind(mino.KindEmpty)
	} else {
		spawned = b.spawn()
	}

	// The opponent gets the final board before hearing about the game over.
	b.listener.Locked(b.snapshot())

	if !spawned {
		b.setGameOver()
		return
	}

	b.listener.Redraw()
}

// ClearFullLines removes every full row, shifting the rows above it down, and
// returns how many rows were removed.
func (b *Board) ClearFullLines() int {
	b.Lock()
	defer b.Unlock()

	return b.clearFullLines()
}

func (b *Board) lineFilled(y int) bool {
	for x := 0; x < b.W; x++ {
		if b.cells[I(x, y, b.W)] == mino.KindEmpty {
			return false
		}
	}

	return true
}

func (b *Board) clearFullLines() int {
	cleared := 0

	for y := 0; y < b.H; y++ {
		for b.lineFilled(y) {
			for my := y + 1; my < b.H; my++ {
				for mx := 0; mx < b.W; mx++ {
					b.cells[I(mx, my-1, b.W)] = b.cells[I(mx, my, b.W)]
				}
			}
			for mx := 0; mx < b.W; mx++ {
				b.cells[I(mx, b.H-1, b.W)] = mino.KindEmpty
			}

			cleared++
		}
	}

	if cleared > 0 {
		b.linesCleared += cleared
		b.listener.LinesCleared(b.linesCleared)
	}

	return cleared
}

// Snapshot copies the pieces and grid.
func (b *Board) Snapshot() Snapshot {
	b.Lock()
	defer b.Unlock()

	return b.snapshot()
}

func (b *Board) snapshot() Snapshot {
	cells := make([]mino.Kind, len(b.cells))
	copy(cells, b.cells)

	return Snapshot{
		HeldKind:        b.held.Kind,
		HeldRotation:    b.held.Rotation,
		NextKind:        b.next.Kind,
		NextRotation:    b.next.Rotation,
		CurrentKind:     b.current.Kind,
		CurrentRotation: b.current.Rotation,
		CursorX:         b.cursor.X,
		CursorY:         b.cursor.Y,
		Cells:           cells,
	}
}

// ApplySnapshot overwrites a mirror board with s. A malformed snapshot is
// rejected and the mirror keeps its previous state.
func (b *Board) ApplySnapshot(s Snapshot) error {
	b.Lock()
	defer b.Unlock()

	if !b.mirror {
		return ErrNotMirror
	} else if b.closed {
		return nil
	}

	err := s.Validate(b.W, b.H)
	if err != nil {
		return err
	}

	b.held = s.Held()
	b.next = s.Next()
	b.current = s.Current()
	b.cursor = mino.Point{X: s.CursorX, Y: s.CursorY}
	copy(b.cells, s.Cells)

	b.listener.Redraw()
	return nil
}

// SetCell places k at (x, y) when the cell is inside the grid and empty.
func (b *Board) SetCell(x int, y int, k mino.Kind) bool {
	b.Lock()
	defer b.Unlock()

	if x < 0 || x >= b.W || y < 0 || y >= b.H || k == mino.KindEmpty || !k.Valid() {
		return false
	}

	index := I(x, y, b.W)
	if b.cells[index] != mino.KindEmpty {
		return false
	}

	b.cells[index] = k
	return true
}

func (b *Board) Cell(x int, y int) mino.Kind {
	b.Lock()
	defer b.Unlock()

	if x < 0 || x >= b.W || y < 0 || y >= b.H {
		return mino.KindEmpty
	}

	return b.cells[I(x, y, b.W)]
}

// Block returns the kind shown at (x, y): the current piece when it covers the
// cell, the locked cell otherwise. The caller must hold the lock.
func (b *Board) Block(x int, y int) mino.Kind {
	for _, c := range b.current.Cells() {
		if b.cursor.X+c.X == x && b.cursor.Y+c.Y == y {
			return b.current.Kind
		}
	}

	return b.cells[I(x, y, b.W)]
}

// Render draws the board as text, top row first.
func (b *Board) Render() string {
	b.Lock()
	defer b.Unlock()

	var sb strings.Builder

	for y := b.H - 1; y >= 0; y-- {
		for x := 0; x < b.W; x++ {
			sb.WriteRune(b.Block(x, y).Rune())
		}

		if y == 0 {
			break
		}

		sb.WriteRune('\n')
	}

	return sb.String()
}

func (b *Board) Current() mino.Piece {
	b.Lock()
	defer b.Unlock()

	return b.current
}

func (b *Board) Next() mino.Piece {
	b.Lock()
	defer b.Unlock()

	return b.next
}

func (b *Board) Held() mino.Piece {
	b.Lock()
	defer b.Unlock()

	return b.held
}

func (b *Board) Cursor() mino.Point {
	b.Lock()
	defer b.Unlock()

	return b.cursor
}

func (b *Board) LinesCleared() int {
	b.Lock()
	defer b.Unlock()

	return b.linesCleared
}

func (b *Board) Running() bool {
	b.Lock()
	defer b.Unlock()

	return b.running
}

func (b *Board) Paused() bool {
	b.Lock()
	defer b.Unlock()

	return b.paused
}

func (b *Board) IsGameOver() bool {
	b.Lock()
	defer b.Unlock()

	return b.gameOver
}

func (b *Board) HoldUsed() bool {
	b.Lock()
	defer b.Unlock()

	return b.holdUsed
}

func (b *Board) LockPending() bool {
	b.Lock()
	defer b.Unlock()

	return b.lockPending
}

// Status reports the session state for display.
func (b *Board) Status() event.Status {
	b.Lock()
	defer b.Unlock()

	switch {
	case b.gameOver:
		return event.StatusGameOver
	case !b.running:
		return event.StatusStopped
	case b.paused:
		return event.StatusPaused
	default:
		return event.StatusPlaying
	}
}
