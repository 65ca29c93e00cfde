package mino

// Kind identifies a tetromino shape. The zero value is KindEmpty.
type Kind int

// The order of these constants must be preserved, snapshots carry them as
// integers.
const (
	KindEmpty Kind = iota
	KindZ
	KindS
	KindI
	KindT
	KindO
	KindL
	KindJ
)

// NumKinds is the number of non-empty kinds.
const NumKinds = 7

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindZ:
		return "Z"
	case KindS:
		return "S"
	case KindI:
		return "I"
	case KindT:
		return "T"
	case KindO:
		return "O"
	case KindL:
		return "L"
	case KindJ:
		return "J"
	default:
		return "Unknown"
	}
}

func (k Kind) Rune() rune {
	switch {
	case k == KindEmpty:
		return ' '
	case k.Valid():
		return '█'
	default:
		return '?'
	}
}

// Valid reports whether k is one of the known kinds, KindEmpty included.
func (k Kind) Valid() bool {
	return k >= KindEmpty && k <= KindJ
}

// Kinds returns the seven non-empty kinds.
func Kinds() []Kind {
	return []Kind{KindZ, KindS, KindI, KindT, KindO, KindL, KindJ}
}
