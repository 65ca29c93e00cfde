package mino

import (
	"strconv"
	"strings"
)

// Point is a cell offset or grid position. Y grows upward, row 0 is the
// bottom of the board.
type Point struct {
	X, Y int
}

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

// rotate turns the point a quarter turn counter-clockwise around the origin.
func (p Point) rotate() Point { return Point{-p.Y, p.X} }

func (p Point) String() string {
	var b strings.Builder
	b.WriteRune('(')
	b.WriteString(strconv.Itoa(p.X))
	b.WriteRune(',')
	b.WriteString(strconv.Itoa(p.Y))
	b.WriteRune(')')

	return b.String()
}
