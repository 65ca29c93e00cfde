package gui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"

	"github.com/qnkhuat/tetris2p/pkg/board"
	"github.com/qnkhuat/tetris2p/pkg/event"
	"github.com/qnkhuat/tetris2p/pkg/mino"
)

// blockWidth is how many columns one cell takes, so cells look square.
const blockWidth = 2

var (
	renderHLine    = string(tcell.RuneHLine)
	renderVLine    = string(tcell.RuneVLine)
	renderULCorner = string(tcell.RuneULCorner)
	renderURCorner = string(tcell.RuneURCorner)
	renderLLCorner = string(tcell.RuneLLCorner)
	renderLRCorner = string(tcell.RuneLRCorner)
)

// colorTag returns the tview color tag for c.
func colorTag(c tcell.Color) string {
	if c == tcell.ColorDefault {
		return "[-]"
	}
	return fmt.Sprintf("[#%06x]", c.Hex())
}

// drawBlock writes one cell of kind k.
func drawBlock(sb *strings.Builder, k mino.Kind, t Theme) {
	if k == mino.KindEmpty {
		sb.WriteString(strings.Repeat(" ", blockWidth))
		return
	}

	sb.WriteString(colorTag(t.Block(k)))
	sb.WriteString(strings.Repeat(string(k.Rune()), blockWidth))
	sb.WriteString("[-]")
}

// snapshotBlock is the kind shown at (x, y) of s, the falling piece included.
func snapshotBlock(s board.Snapshot, x, y, w int) mino.Kind {
	for _, c := range s.Current().Cells() {
		if s.CursorX+c.X == x && s.CursorY+c.Y == y {
			return s.CurrentKind
		}
	}

	return s.Cells[board.I(x, y, w)]
}

// renderBoard draws a framed w by h board, top row first, with title on the
// top border.
func renderBoard(s board.Snapshot, w, h int, t Theme, title string) string {
	var sb strings.Builder

	inner := w * blockWidth
	title = runewidth.Truncate(title, inner, "")
	border := colorTag(t.Border)

	sb.WriteString(border + renderULCorner)
	sb.WriteString(tview.Escape(title))
	sb.WriteString(strings.Repeat(renderHLine, inner-runewidth.StringWidth(title)))
	sb.WriteString(renderURCorner + "[-]\n")

	for y := h - 1; y >= 0; y-- {
		sb.WriteString(border + renderVLine + "[-]")
		for x := 0; x < w; x++ {
			if len(s.Cells) != w*h {
				drawBlock(&sb, mino.KindEmpty, t)
				continue
			}
			drawBlock(&sb, snapshotBlock(s, x, y, w), t)
		}
		sb.WriteString(border + renderVLine + "[-]\n")
	}

	sb.WriteString(border + renderLLCorner)
	sb.WriteString(strings.Repeat(renderHLine, inner))
	sb.WriteString(renderLRCorner + "[-]")

	return sb.String()
}

// renderPreview draws p alone, used for the next and held slots.
func renderPreview(p mino.Piece, t Theme) string {
	cells := p.Cells()
	if len(cells) == 0 {
		return "\n"
	}

	minX, maxX, minY, maxY := cells[0].X, cells[0].X, cells[0].Y, cells[0].Y
	for _, c := range cells[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}

	occupied := make(map[mino.Point]bool, len(cells))
	for _, c := range cells {
		occupied[c] = true
	}

	var sb strings.Builder
	for y := maxY; y >= minY; y-- {
		for x := minX; x <= maxX; x++ {
			if occupied[mino.Point{X: x, Y: y}] {
				drawBlock(&sb, p.Kind, t)
			} else {
				drawBlock(&sb, mino.KindEmpty, t)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderSide draws the next and held pieces.
func renderSide(s board.Snapshot, t Theme) string {
	var sb strings.Builder

	sb.WriteString("\nNext\n\n")
	sb.WriteString(renderPreview(s.Next(), t))
	sb.WriteString("\nHold\n\n")
	sb.WriteString(renderPreview(s.Held(), t))

	return sb.String()
}

// statusLine joins the game state into one line no wider than width.
func statusLine(status event.Status, lines int, nick string, connected bool, width int) string {
	conn := "offline"
	if connected {
		conn = "online"
	}

	text := strings.TrimSpace(status.String())
	if text == "" {
		text = "Press P to start."
	}

	line := fmt.Sprintf("%s | Lines: %d | %s (%s)", text, lines, nick, conn)
	if width <= 0 {
		return line
	}

	return runewidth.Truncate(line, width, "…")
}
