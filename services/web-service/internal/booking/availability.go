package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

var ErrSuperseded = errors.New("availability lookup superseded by a newer one")

type SlotSource interface {
	AvailableTimes(ctx context.Context, date time.Time, duration int) ([]time.Time, error)
}

// Availability runs one form's slot lookups. Starting a lookup cancels the one in
// flight, and only the latest lookup may deliver a result.
type Availability struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (a *Availability) Fetch(ctx context.Context, src SlotSource, q Query, loc *time.Location) ([]time.Time, error) {
	day, err := q.Day(loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalid, q.Date)
	}
	if q.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration %d", ErrInvalid, q.Duration)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.seq++
	mine := a.seq
	a.cancel = cancel
	a.mu.Unlock()

	slots, err := src.AvailableTimes(ctx, day, q.Duration)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seq != mine {
		return nil, ErrSuperseded
	}
	a.cancel = nil
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// Tracker keeps one Availability per session, dropped after a period of inactivity.
type Tracker struct {
	c *cache.Cache
}

func NewTracker(idle time.Duration) *Tracker {
	if idle <= 0 {
		idle = 15 * time.Minute
	}
	return &Tracker{c: cache.New(idle, idle)}
}

func (t *Tracker) For(key string) *Availability {
	if v, ok := t.c.Get(key); ok {
		a := v.(*Availability)
		t.c.SetDefault(key, a)
		return a
	}
	a := &Availability{}
	if err := t.c.Add(key, a, cache.DefaultExpiration); err != nil {
		// Lost the race to another request of the same session.
		if v, ok := t.c.Get(key); ok {
			return v.(*Availability)
		}
	}
	return a
}
