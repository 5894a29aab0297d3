package booking

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

var ErrDuplicateSubmit = errors.New("form already submitted")

// SubmitGuard refuses a form nonce seen within the window.
type SubmitGuard struct {
	c      *cache.Cache
	window time.Duration
}

func NewSubmitGuard(window time.Duration) *SubmitGuard {
	if window <= 0 {
		window = 30 * time.Second
	}
	return &SubmitGuard{c: cache.New(window, 2*window), window: window}
}

func (g *SubmitGuard) Claim(nonce string) error {
	if nonce == "" {
		return nil
	}
	if err := g.c.Add(nonce, struct{}{}, g.window); err != nil {
		return ErrDuplicateSubmit
	}
	return nil
}
