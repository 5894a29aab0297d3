// Package session tracks who the browser is signed in as.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/auth"
	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCookieName = "groombook_session"
	DefaultMaxAge     = 12 * time.Hour
)

// API is the part of the grooming API a session needs.
type API interface {
	Login(ctx context.Context, creds grooming.Credentials) (string, error)
	Me(ctx context.Context) (*grooming.User, error)
}

type Options struct {
	Codec      *Codec
	Store      Store
	API        API
	CookieName string
	MaxAge     time.Duration
	Secure     bool
	ProfileTTL time.Duration
	Logger     *slog.Logger
}

type Manager struct {
	codec      *Codec
	store      Store
	api        API
	cookieName string
	maxAge     time.Duration
	secure     bool
	logger     *slog.Logger
	now        func() time.Time

	profiles *cache.Cache
	fetches  singleflight.Group
}

func NewManager(opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.ProfileTTL <= 0 {
		opts.ProfileTTL = 5 * time.Minute
	}
	if opts.Store == nil {
		opts.Store = CookieStore{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		codec:      opts.Codec,
		store:      opts.Store,
		api:        opts.API,
		cookieName: opts.CookieName,
		maxAge:     opts.MaxAge,
		secure:     opts.Secure,
		logger:     opts.Logger,
		now:        time.Now,
		profiles:   cache.New(opts.ProfileTTL, 2*opts.ProfileTTL),
	}
}

// Middleware resolves the session cookie and binds a fresh Holder to the request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := &Holder{m: m, w: w}
		if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
			d, err := m.load(r.Context(), c.Value)
			if err != nil {
				m.logger.Debug("discarding session cookie", "err", err)
				m.clearCookie(w)
			} else {
				h.data = d
			}
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), h)))
	})
}

func (m *Manager) load(ctx context.Context, raw string) (Data, error) {
	d, err := m.codec.Decode(raw)
	if err != nil {
		return Data{}, err
	}
	return m.store.Resolve(ctx, d)
}

// expiry is the session lifetime capped by the access token's own exp claim.
func (m *Manager) expiry(token string) time.Time {
	exp := m.now().Add(m.maxAge)
	if claims, err := auth.Inspect(token); err == nil {
		if tokenExp := claims.Expiry(); !tokenExp.IsZero() && tokenExp.Before(exp) {
			exp = tokenExp
		}
	}
	return exp
}

func (m *Manager) issue(ctx context.Context, w http.ResponseWriter, token string) (Data, error) {
	d := Data{Token: token, ExpiresAt: m.expiry(token)}
	cookieData, err := m.store.Put(ctx, d)
	if err != nil {
		return Data{}, err
	}
	value, err := m.codec.Encode(cookieData)
	if err != nil {
		return Data{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  d.ExpiresAt,
		MaxAge:   int(d.ExpiresAt.Sub(m.now()).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	d.ID = cookieData.ID
	return d, nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// profileKey identifies a session in the profile cache without keeping the token itself.
func profileKey(d Data) string {
	if d.ID != "" {
		return "sid:" + d.ID
	}
	sum := sha256.Sum256([]byte(d.Token))
	return "tok:" + hex.EncodeToString(sum[:16])
}

func (m *Manager) fetchProfile(ctx context.Context, d Data) (*grooming.User, error) {
	key := profileKey(d)
	v, err, _ := m.fetches.Do(key, func() (any, error) {
		u, err := m.api.Me(ctx)
		if err != nil {
			return nil, err
		}
		m.profiles.SetDefault(key, u)
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*grooming.User), nil
}

func (m *Manager) cachedProfile(d Data) (*grooming.User, bool) {
	v, ok := m.profiles.Get(profileKey(d))
	if !ok {
		return nil, false
	}
	return v.(*grooming.User), true
}

func (m *Manager) forget(d Data) {
	m.profiles.Delete(profileKey(d))
}
