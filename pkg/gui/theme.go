package gui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/qnkhuat/tetris2p/pkg/mino"
)

// Terminal safe color palette is available here
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme is used for coloring the UI. It is handed to New, never kept in a
// package variable.
type Theme struct {
	Name       string      `json:"name"`
	Background tcell.Color `json:"background"`
	Border     tcell.Color `json:"border"`
	Msg        tcell.Color `json:"msg"`
	Status     tcell.Color `json:"status"`
	Prompt     tcell.Color `json:"prompt"`
	Input      tcell.Color `json:"input"`
	Z          tcell.Color `json:"z"`
	S          tcell.Color `json:"s"`
	I          tcell.Color `json:"i"`
	T          tcell.Color `json:"t"`
	O          tcell.Color `json:"o"`
	L          tcell.Color `json:"l"`
	J          tcell.Color `json:"j"`
}

// ThemeHex is a Theme with every color as a hex string, the form used in
// configuration files.
type ThemeHex struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Border     string `json:"border"`
	Msg        string `json:"msg"`
	Status     string `json:"status"`
	Prompt     string `json:"prompt"`
	Input      string `json:"input"`
	Z          string `json:"z"`
	S          string `json:"s"`
	I          string `json:"i"`
	T          string `json:"t"`
	O          string `json:"o"`
	L          string `json:"l"`
	J          string `json:"j"`
}

// fmtHex returns "#0" for ColorDefault so it survives a round trip instead of
// being read back as black.
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		t.Name,
		fmtHex(t.Background.Hex()),
		fmtHex(t.Border.Hex()),
		fmtHex(t.Msg.Hex()),
		fmtHex(t.Status.Hex()),
		fmtHex(t.Prompt.Hex()),
		fmtHex(t.Input.Hex()),
		fmtHex(t.Z.Hex()),
		fmtHex(t.S.Hex()),
		fmtHex(t.I.Hex()),
		fmtHex(t.T.Hex()),
		fmtHex(t.O.Hex()),
		fmtHex(t.L.Hex()),
		fmtHex(t.J.Hex()),
	}
}

func (t ThemeHex) Theme() Theme {
	return Theme{
		t.Name,
		tcell.GetColor(t.Background),
		tcell.GetColor(t.Border),
		tcell.GetColor(t.Msg),
		tcell.GetColor(t.Status),
		tcell.GetColor(t.Prompt),
		tcell.GetColor(t.Input),
		tcell.GetColor(t.Z),
		tcell.GetColor(t.S),
		tcell.GetColor(t.I),
		tcell.GetColor(t.T),
		tcell.GetColor(t.O),
		tcell.GetColor(t.L),
		tcell.GetColor(t.J),
	}
}

// Block returns the color of a cell holding k.
func (t Theme) Block(k mino.Kind) tcell.Color {
	switch k {
	case mino.KindZ:
		return t.Z
	case mino.KindS:
		return t.S
	case mino.KindI:
		return t.I
	case mino.KindT:
		return t.T
	case mino.KindO:
		return t.O
	case mino.KindL:
		return t.L
	case mino.KindJ:
		return t.J
	default:
		return t.Background
	}
}

// ImportThemes returns the theme named want.
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}

	return Theme{}, errors.New("theme: no theme found")
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	"basic",                     // Name
	tcell.ColorDefault,          // Background
	tcell.Color247,              // Border
	tcell.Color160,              // Msg
	tcell.Color45,               // Status
	tcell.Color160,              // Prompt
	tcell.ColorDefault,          // Input
	tcell.NewHexColor(0xee0000), // Z
	tcell.NewHexColor(0x00e900), // S
	tcell.NewHexColor(0x00eeee), // I
	tcell.NewHexColor(0xc000cc), // T
	tcell.NewHexColor(0xdddd00), // O
	tcell.NewHexColor(0xff7308), // L
	tcell.NewHexColor(0x2864ff), // J
}
