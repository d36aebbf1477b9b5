package poet

import (
	"math/rand"
	"sync"
	"time"
)

// Picker selects one index out of n. It exists so tests can substitute a
// deterministic source for the process-wide random one.
type Picker interface {
	Pick(n int) int
}

type randomPicker struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomPicker returns a Picker seeded from the wall clock.
func NewRandomPicker() Picker {
	return NewSeededPicker(time.Now().UnixNano())
}

// NewSeededPicker returns a Picker with a fixed seed for reproducible draws.
func NewSeededPicker(seed int64) Picker {
	return &randomPicker{r: rand.New(rand.NewSource(seed))}
}

// Pick draws uniformly from [0, n). Draws are independent across calls.
func (p *randomPicker) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Intn(n)
}
