// Package gui is the terminal front end: both boards, the message pane and a
// command line, drawn with tview.
package gui

import (
	"strings"
	"sync"

	"github.com/rivo/tview"

	"github.com/qnkhuat/tetris2p/pkg/board"
	"github.com/qnkhuat/tetris2p/pkg/event"
	"github.com/qnkhuat/tetris2p/pkg/protocol"
)

const (
	DefaultStatusText = "Press Enter to chat or type a /command. Arrows move, Up rotates, Space drops."

	DrawQueueSize = 10
	MaxMessages   = 100
)

// GUI renders a session. It is the local board's listener and the session's
// Display; the mirror board reports to MirrorListener.
type GUI struct {
	board.NopListener

	App *tview.Application

	theme   Theme
	nick    string
	session *protocol.Session

	localView  *tview.TextView
	mirrorView *tview.TextView
	sideView   *tview.TextView
	statusView *tview.TextView
	output     *tview.TextView
	input      *tview.InputField
	layout     *tview.Grid

	draw      chan event.DrawObject
	done      chan struct{}
	closeOnce sync.Once

	inputActive bool
	status      event.Status
	lines       int
	messages    []string

	sync.Mutex
}

func New(t Theme, nick string, width, height int) *GUI {
	app := tview.NewApplication()

	g := &GUI{
		App:   app,
		theme: t,
		nick:  nick,
		draw:  make(chan event.DrawObject, DrawQueueSize),
		done:  make(chan struct{}),
	}

	newView := func() *tview.TextView {
		v := tview.NewTextView().
			SetScrollable(false).
			SetTextAlign(tview.AlignLeft).
			SetWrap(false).
			SetWordWrap(false)
		v.SetDynamicColors(true)
		return v
	}

	g.localView = newView()
	g.mirrorView = newView()
	g.sideView = newView()
	g.statusView = newView()
	g.statusView.SetTextColor(t.Status)

	g.output = tview.NewTextView().
		SetScrollable(true).
		SetTextAlign(tview.AlignLeft).
		SetWrap(true).
		SetWordWrap(true)
	g.output.SetTextColor(t.Msg)

	g.input = tview.NewInputField().
		SetLabel("> ").
		SetPlaceholder(DefaultStatusText).
		SetFieldWidth(0).
		SetFieldBackgroundColor(t.Background).
		SetFieldTextColor(t.Input).
		SetLabelColor(t.Prompt)
	g.input.SetDoneFunc(g.handleDone)

	boardWidth := width*blockWidth + 2
	g.layout = tview.NewGrid().
		SetRows(height+2, 1, 1, -1).
		SetColumns(boardWidth, 2*blockWidth+8, boardWidth, -1).
		AddItem(g.localView, 0, 0, 1, 1, 0, 0, false).
		AddItem(g.sideView, 0, 1, 1, 1, 0, 0, false).
		AddItem(g.mirrorView, 0, 2, 1, 1, 0, 0, false).
		AddItem(tview.NewBox(), 0, 3, 1, 1, 0, 0, false).
		AddItem(g.statusView, 1, 0, 1, 4, 0, 0, false).
		AddItem(g.input, 2, 0, 1, 4, 0, 0, true).
		AddItem(g.output, 3, 0, 1, 4, 0, 0, false)

	app.SetRoot(g.layout, true).
		SetFocus(g.input).
		SetInputCapture(g.handleKeypress)

	return g
}

// Attach binds the session whose boards are drawn.
func (g *GUI) Attach(s *protocol.Session) {
	g.Lock()
	defer g.Unlock()

	g.session = s
}

// Run draws until Quit is called.
func (g *GUI) Run() error {
	go g.handleDraw()
	g.queue(event.DrawAll)

	return g.App.Run()
}

// queue asks for obj to be redrawn. It never blocks; a full queue is drained
// into a full redraw by handleDraw.
func (g *GUI) queue(obj event.DrawObject) {
	select {
	case g.draw <- obj:
	default:
	}
}

func (g *GUI) handleDraw() {
	for {
		select {
		case <-g.done:
			return
		case obj := <-g.draw:
			// A backlog collapses into one full redraw, which also covers
			// anything queue dropped.
			for len(g.draw) > 0 {
				<-g.draw
				obj = event.DrawAll
			}

			g.App.QueueUpdateDraw(func() {
				g.render(obj)
			})
		}
	}
}

// render runs on the application goroutine.
func (g *GUI) render(obj event.DrawObject) {
	g.Lock()
	s := g.session
	status, lines, messages := g.status, g.lines, strings.Join(g.messages, "\n")
	g.Unlock()

	if s == nil {
		return
	}

	all := obj == event.DrawAll

	if (all || obj == event.DrawLocalBoard) && s.Local != nil {
		snap := s.Local.Snapshot()
		g.localView.SetText(renderBoard(snap, s.Local.W, s.Local.H, g.theme, g.nick))
		g.sideView.SetText(renderSide(snap, g.theme))
	}

	if (all || obj == event.DrawOpponentBoard) && s.Mirror != nil {
		title := "Opponent"
		if !s.Multiplayer() {
			title = "Offline"
		}
		g.mirrorView.SetText(renderBoard(s.Mirror.Snapshot(), s.Mirror.W, s.Mirror.H, g.theme, title))
	}

	if all || obj == event.DrawStatus || obj == event.DrawLines {
		_, _, width, _ := g.statusView.GetInnerRect()
		g.statusView.SetText(tview.Escape(statusLine(status, lines, g.nick, s.Multiplayer(), width)))
	}

	if all || obj == event.DrawMessages {
		g.output.SetText(messages)
		g.output.ScrollToEnd()
	}
}

func (g *GUI) Redraw() {
	g.queue(event.DrawLocalBoard)
}

func (g *GUI) StatusChanged(s event.Status) {
	g.Lock()
	g.status = s
	g.Unlock()

	g.queue(event.DrawStatus)
}

func (g *GUI) LinesCleared(total int) {
	g.Lock()
	g.lines = total
	g.Unlock()

	g.queue(event.DrawLines)
}

// MirrorListener redraws the opponent board when its snapshot changes.
func (g *GUI) MirrorListener() board.Listener {
	return mirrorListener{g: g}
}

type mirrorListener struct {
	board.NopListener
	g *GUI
}

func (l mirrorListener) Redraw() {
	l.g.queue(event.DrawOpponentBoard)
}

// Print adds a line to the message pane.
func (g *GUI) Print(text string) {
	g.Lock()
	g.messages = append(g.messages, text)
	if len(g.messages) > MaxMessages {
		g.messages = g.messages[len(g.messages)-MaxMessages:]
	}
	g.Unlock()

	g.queue(event.DrawMessages)
	g.queue(event.DrawStatus)
}

// Messages returns the lines in the message pane.
func (g *GUI) Messages() []string {
	g.Lock()
	defer g.Unlock()

	m := make([]string, len(g.messages))
	copy(m, g.messages)
	return m
}

// Quit stops the application.
func (g *GUI) Quit() {
	g.closeOnce.Do(func() {
		close(g.done)
		g.App.Stop()
	})
}
