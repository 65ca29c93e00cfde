package mino

import (
	"fmt"
)

// shapes holds the spawn orientation of every kind, relative to the pivot.
var shapes = map[Kind][]Point{
	KindZ: {{0, 1}, {0, 0}, {-1, 0}, {-1, -1}},
	KindS: {{0, 1}, {0, 0}, {1, 0}, {1, -1}},
	KindI: {{0, 1}, {0, 0}, {0, -1}, {0, -2}},
	KindT: {{-1, 0}, {0, 0}, {1, 0}, {0, -1}},
	KindO: {{0, 0}, {1, 0}, {0, -1}, {1, -1}},
	KindL: {{-1, 1}, {0, 1}, {0, 0}, {0, -1}},
	KindJ: {{1, 1}, {0, 1}, {0, 0}, {0, -1}},
}

// rotations[k][r] is the cell set of kind k in rotation state r.
var rotations = map[Kind][][]Point{}

func init() {
	for k, shape := range shapes {
		states := 4
		if k == KindO {
			states = 1
		}

		rotations[k] = make([][]Point, states)
		rotations[k][0] = shape
		for r := 1; r < states; r++ {
			prev := rotations[k][r-1]
			next := make([]Point, len(prev))
			for i := range prev {
				next[i] = prev[i].rotate()
			}
			rotations[k][r] = next
		}
	}
}

// RotationStates returns how many distinct orientations k has.
func RotationStates(k Kind) int {
	return len(rotations[k])
}

// Piece is a kind plus an orientation. Values are reassigned in place rather
// than recreated, so a Board keeps exactly three of them.
type Piece struct {
	Kind     Kind
	Rotation int
}

func NewPiece(k Kind) Piece {
	return Piece{Kind: k}
}

func (p Piece) String() string {
	return fmt.Sprintf("%s/%d", p.Kind, p.Rotation)
}

// SetKind replaces the kind and resets the orientation.
func (p *Piece) SetKind(k Kind) {
	p.Kind = k
	p.Rotation = 0
}

// Rotate returns the piece in its next orientation. The receiver is left
// untouched so callers can discard a colliding candidate.
func (p Piece) Rotate() Piece {
	states := RotationStates(p.Kind)
	if states <= 1 {
		return p
	}

	return Piece{Kind: p.Kind, Rotation: (p.Rotation + 1) % states}
}

// Cells returns the four occupied offsets of the piece, or nil for an empty
// piece. The returned slice is shared and must not be modified.
func (p Piece) Cells() []Point {
	if !p.Valid() || p.Kind == KindEmpty {
		return nil
	}

	return rotations[p.Kind][p.Rotation]
}

// MinRowOffset is the negated highest cell offset: a pivot placed at row
// height-1+MinRowOffset puts the top of the piece on the top row.
func (p Piece) MinRowOffset() int {
	cells := p.Cells()
	if len(cells) == 0 {
		return 0
	}

	top := cells[0].Y
	for _, c := range cells[1:] {
		if c.Y > top {
			top = c.Y
		}
	}

	return -top
}

// Valid reports whether the kind is known and the rotation is in range.
func (p Piece) Valid() bool {
	if !p.Kind.Valid() {
		return false
	} else if p.Kind == KindEmpty {
		return p.Rotation == 0
	}

	return p.Rotation >= 0 && p.Rotation < RotationStates(p.Kind)
}
