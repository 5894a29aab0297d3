package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/apiclient"
)

type State int

const (
	Anonymous State = iota
	Loading
	Authenticated
	// Unavailable means the session looks valid but the profile could not be fetched.
	Unavailable
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Holder is the session state of one request. It is created by Manager.Middleware
// and must not be shared with other requests.
type Holder struct {
	m *Manager
	w http.ResponseWriter

	mu       sync.Mutex
	data     Data
	user     *grooming.User
	resolved bool
	state    State
}

type holderKey struct{}

func NewContext(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// FromContext returns the request's holder, or nil outside Manager.Middleware.
func FromContext(ctx context.Context) *Holder {
	h, _ := ctx.Value(holderKey{}).(*Holder)
	return h
}

// Token is an apiclient.TokenSource backed by the request's session.
func Token(ctx context.Context) (string, bool) {
	return FromContext(ctx).Token()
}

func (h *Holder) Token() (string, bool) {
	if h == nil {
		return "", false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data.Token, h.data.Token != ""
}

func (h *Holder) HasSession() bool {
	_, ok := h.Token()
	return ok
}

func (h *Holder) State() State {
	if h == nil {
		return Anonymous
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.data.Token == "":
		return Anonymous
	case !h.resolved:
		return Loading
	default:
		return h.state
	}
}

// User returns the signed-in profile, fetching it once per session when it is
// not cached yet. The user is nil unless the state is Authenticated.
func (h *Holder) User(ctx context.Context) (*grooming.User, State) {
	if h == nil {
		return nil, Anonymous
	}
	h.mu.Lock()
	data, resolved, user, state := h.data, h.resolved, h.user, h.state
	h.mu.Unlock()

	if data.Token == "" {
		return nil, Anonymous
	}
	if resolved {
		return user, state
	}
	if u, ok := h.m.cachedProfile(data); ok {
		h.settle(u, Authenticated)
		return u, Authenticated
	}
	u, _ := h.FetchCurrentUser(ctx)
	return u, h.State()
}

// FetchCurrentUser refreshes the profile from the API, bypassing the cache.
func (h *Holder) FetchCurrentUser(ctx context.Context) (*grooming.User, error) {
	h.mu.Lock()
	data := h.data
	h.mu.Unlock()
	if data.Token == "" {
		return nil, ErrNoSession
	}

	h.m.forget(data)
	u, err := h.m.fetchProfile(ctx, data)
	switch {
	case err == nil:
		h.settle(u, Authenticated)
		return u, nil
	case apiclient.IsUnauthorized(err):
		h.m.logger.Info("session rejected by api, signing out", "err", err)
		h.end(ctx)
		return nil, err
	default:
		h.m.logger.Warn("profile fetch failed", "err", err)
		h.settle(nil, Unavailable)
		return nil, err
	}
}

// Login authenticates against the API and starts a session on success.
func (h *Holder) Login(ctx context.Context, creds grooming.Credentials) error {
	token, err := h.m.api.Login(ctx, creds)
	if err != nil {
		h.reset()
		return err
	}
	d, err := h.m.issue(ctx, h.w, token)
	if err != nil {
		h.reset()
		return fmt.Errorf("start session: %w", err)
	}
	h.mu.Lock()
	h.data = d
	h.resolved = false
	h.mu.Unlock()

	// A profile outage keeps the new session; a rejected token ends it.
	if _, err := h.FetchCurrentUser(ctx); apiclient.IsUnauthorized(err) {
		return err
	}
	return nil
}

func (h *Holder) Logout(ctx context.Context) {
	h.end(ctx)
}

func (h *Holder) end(ctx context.Context) {
	h.mu.Lock()
	data := h.data
	h.mu.Unlock()

	if err := h.m.store.Drop(ctx, data); err != nil {
		h.m.logger.Warn("drop session failed", "err", err)
	}
	h.m.forget(data)
	h.m.clearCookie(h.w)
	h.reset()
}

func (h *Holder) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data = Data{}
	h.user = nil
	h.resolved = true
	h.state = Anonymous
}

func (h *Holder) settle(u *grooming.User, s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.user = u
	h.resolved = true
	h.state = s
}

// Key identifies the session in per-session caches. It is empty without a session.
func (h *Holder) Key() string {
	if h == nil {
		return ""
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.data.Token == "" {
		return ""
	}
	return profileKey(h.data)
}
