package gui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/qnkhuat/tetris2p/pkg/event"
	"github.com/qnkhuat/tetris2p/pkg/protocol"
)

// KeyAction maps a key press to a board action. Arrow keys and vim keys both
// work.
func KeyAction(ev *tcell.EventKey) event.GameAction {
	switch ev.Key() {
	case tcell.KeyUp:
		return event.ActionRotate
	case tcell.KeyLeft:
		return event.ActionMoveLeft
	case tcell.KeyRight:
		return event.ActionMoveRight
	case tcell.KeyDown:
		return event.ActionSoftDrop
	case tcell.KeyRune:
	default:
		return event.ActionUnknown
	}

	switch ev.Rune() {
	case 'z', 'Z', 'x', 'X', 'k', 'K':
		return event.ActionRotate
	case 'h', 'H':
		return event.ActionMoveLeft
	case 'l', 'L':
		return event.ActionMoveRight
	case 'j', 'J':
		return event.ActionSoftDrop
	case ' ':
		return event.ActionHardDrop
	case 'c', 'C':
		return event.ActionHold
	case 'p', 'P':
		return event.ActionPause
	case 'r', 'R':
		return event.ActionRestart
	}

	return event.ActionUnknown
}

func (g *GUI) setInputActive(active bool, text string) {
	g.Lock()
	g.inputActive = active
	g.Unlock()

	g.input.SetText(text)
}

func (g *GUI) handleKeypress(ev *tcell.EventKey) *tcell.EventKey {
	g.Lock()
	active, s := g.inputActive, g.session
	g.Unlock()

	if active {
		if ev.Key() == tcell.KeyEscape {
			g.setInputActive(false, "")
			return nil
		}
		return ev
	}

	if s == nil {
		return nil
	}

	switch {
	case ev.Key() == tcell.KeyEnter:
		g.setInputActive(true, "")
		return nil
	case ev.Key() == tcell.KeyRune && (ev.Rune() == protocol.CommandPrefix || ev.Rune() == protocol.AltCommandPrefix):
		g.setInputActive(true, string(ev.Rune()))
		return nil
	case ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape ||
		(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')):
		go s.Quit()
		return nil
	}

	action := KeyAction(ev)
	if action != event.ActionUnknown && s.Local != nil {
		s.Local.ProcessAction(action)
	}

	return nil
}

// handleDone submits the command line. Commands may dial, so they run off
// the application goroutine.
func (g *GUI) handleDone(key tcell.Key) {
	text := g.input.GetText()
	g.setInputActive(false, "")

	if key != tcell.KeyEnter || text == "" {
		return
	}

	g.Lock()
	s := g.session
	g.Unlock()

	if s != nil {
		go s.HandleInput(text)
	}
}
