package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("no session")

// Store decides where session data lives. The cookie carries whatever Put returns.
type Store interface {
	Put(ctx context.Context, d Data) (Data, error)
	Resolve(ctx context.Context, d Data) (Data, error)
	Drop(ctx context.Context, d Data) error
}

// CookieStore keeps everything in the cookie itself.
type CookieStore struct{}

func (CookieStore) Put(_ context.Context, d Data) (Data, error) {
	d.ID = ""
	return d, nil
}

func (CookieStore) Resolve(_ context.Context, d Data) (Data, error) {
	if d.Token == "" {
		return Data{}, ErrNoSession
	}
	return d, nil
}

func (CookieStore) Drop(context.Context, Data) error { return nil }

// RedisStore keeps the token in Redis; the cookie only names the session.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
	newID  func() string
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "session:", now: time.Now, newID: uuid.NewString}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Put(ctx context.Context, d Data) (Data, error) {
	ttl := d.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return Data{}, fmt.Errorf("session already expired at %s", d.ExpiresAt.Format(time.RFC3339))
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return Data{}, err
	}
	id := s.newID()
	if err := s.rdb.Set(ctx, s.key(id), raw, ttl).Err(); err != nil {
		return Data{}, fmt.Errorf("store session: %w", err)
	}
	return Data{ID: id, ExpiresAt: d.ExpiresAt}, nil
}

func (s *RedisStore) Resolve(ctx context.Context, d Data) (Data, error) {
	if d.ID == "" {
		return Data{}, ErrNoSession
	}
	raw, err := s.rdb.Get(ctx, s.key(d.ID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, ErrNoSession
	}
	if err != nil {
		return Data{}, fmt.Errorf("load session: %w", err)
	}
	var out Data
	if err := json.Unmarshal(raw, &out); err != nil {
		return Data{}, fmt.Errorf("decode session: %w", err)
	}
	out.ID = d.ID
	return out, nil
}

func (s *RedisStore) Drop(ctx context.Context, d Data) error {
	if d.ID == "" {
		return nil
	}
	return s.rdb.Del(ctx, s.key(d.ID)).Err()
}
