package table

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/patrickmn/go-cache"
)

// List is an in-memory appointment list shared by the requests of one session.
type List struct {
	mu    sync.Mutex
	items []grooming.Appointment
}

func NewList(items []grooming.Appointment) *List {
	return &List{items: append([]grooming.Appointment(nil), items...)}
}

// Items returns a snapshot.
func (l *List) Items() []grooming.Appointment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]grooming.Appointment(nil), l.items...)
}

func (l *List) Find(id int64) (grooming.Appointment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.items {
		if a.ID == id {
			return a, true
		}
	}
	return grooming.Appointment{}, false
}

// Remove takes id out of the list and returns a func that puts it back where it was.
func (l *List) Remove(id int64) (restore func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, a := range l.items {
		if a.ID != id {
			continue
		}
		removed := a
		l.items = append(l.items[:i:i], l.items[i+1:]...)
		return func() { l.insert(i, removed) }, true
	}
	return func() {}, false
}

func (l *List) insert(i int, a grooming.Appointment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.items {
		if existing.ID == a.ID {
			return
		}
	}
	i = min(i, len(l.items))
	l.items = append(l.items[:i:i], append([]grooming.Appointment{a}, l.items[i:]...)...)
}

type Canceler interface {
	CancelAppointment(ctx context.Context, id int64) error
}

// CancelOptimistic removes id locally, then cancels it remotely with exactly one
// call. The row is restored in place when the call fails.
func CancelOptimistic(ctx context.Context, l *List, api Canceler, id int64) error {
	restore, _ := l.Remove(id)
	if err := api.CancelAppointment(ctx, id); err != nil {
		restore()
		return err
	}
	return nil
}

// Cache holds each session's lists between page loads.
type Cache struct {
	c *cache.Cache
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{c: cache.New(ttl, 2*ttl)}
}

func (c *Cache) Get(key string) (*List, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*List), true
}

func (c *Cache) Put(key string, items []grooming.Appointment) *List {
	l := NewList(items)
	c.c.SetDefault(key, l)
	return l
}

// Forget drops every list whose key starts with prefix.
func (c *Cache) Forget(prefix string) {
	for key := range c.c.Items() {
		if strings.HasPrefix(key, prefix) {
			c.c.Delete(key)
		}
	}
}
