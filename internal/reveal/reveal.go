// Package reveal implements the typewriter presentation effect: emitting an
// already-complete string one rune at a time at a fixed interval. It knows
// nothing about poems or sessions.
package reveal

import (
	"context"
	"time"
)

// Revealer emits text progressively at a configurable pace.
type Revealer struct {
	interval time.Duration
}

// New returns a Revealer pacing one rune per interval. A zero interval emits
// as fast as the sink accepts.
func New(interval time.Duration) *Revealer {
	return &Revealer{interval: interval}
}

// Reveal calls emit once per rune of text, in order, waiting interval between
// runes. It stops early when the context is cancelled or emit returns an
// error.
func (r *Revealer) Reveal(ctx context.Context, text string, emit func(chunk string) error) error {
	first := true
	for _, ch := range text {
		if first {
			if err := ctx.Err(); err != nil {
				return err
			}
			first = false
		} else if r.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.interval):
			}
		}

		if err := emit(string(ch)); err != nil {
			return err
		}
	}
	return nil
}
