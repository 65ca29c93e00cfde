package mino

import (
	"math/rand"
	"sync"
	"time"
)

// Randomizer draws kinds uniformly from the seven tetrominoes. It is safe for
// concurrent use.
type Randomizer struct {
	r *rand.Rand
	*sync.Mutex
}

func NewRandomizer(seed int64) *Randomizer {
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}

	return &Randomizer{r: rand.New(rand.NewSource(seed)), Mutex: new(sync.Mutex)}
}

func (r *Randomizer) Take() Kind {
	r.Lock()
	defer r.Unlock()

	return Kind(r.r.Intn(NumKinds) + 1)
}

var defaultRandomizer = NewRandomizer(0)

// RandomKind draws a non-empty kind from the package randomizer.
func RandomKind() Kind {
	return defaultRandomizer.Take()
}
