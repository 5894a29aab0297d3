package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/httpx"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("API_URL", "http://localhost:8080")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadSettingsDefaults(t *testing.T) {
	setRequired(t)
	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.port != "3000" {
		t.Fatalf("expected default port 3000, got %q", s.port)
	}
	if s.apiTimeout != 10*time.Second || s.requestTimeout != 15*time.Second {
		t.Fatalf("unexpected timeouts: api=%s request=%s", s.apiTimeout, s.requestTimeout)
	}
	if s.sessionStore != "cookie" || s.loginPerMinute != 10 || !s.limitFailOpen {
		t.Fatalf("unexpected session/limit defaults: %+v", s)
	}
	if s.location.String() != "Asia/Jerusalem" {
		t.Fatalf("expected Asia/Jerusalem, got %s", s.location)
	}
	if s.bodyLimit != 1<<20 {
		t.Fatalf("expected 1MiB body limit, got %d", s.bodyLimit)
	}
}

func TestLoadSettingsRejectsBadConfig(t *testing.T) {
	cases := map[string]map[string]string{
		"missing api url":    {"API_URL": ""},
		"relative api url":   {"API_URL": "localhost:8080"},
		"short secret":       {"SESSION_SECRET": "too-short"},
		"redis without addr": {"SESSION_STORE": "redis", "REDIS_ADDR": ""},
		"unknown store":      {"SESSION_STORE": "memcached"},
		"unknown timezone":   {"DISPLAY_TIMEZONE": "Mars/Olympus"},
		"port out of range":  {"PORT": "70000"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := loadSettings(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestNewHandlerMiddleware(t *testing.T) {
	router := http.NewServeMux()
	router.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(httpx.RequestIDFromContext(r.Context())))
	})
	router.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	s := settings{service: "web-service-test", bodyLimit: 1 << 20, requestTimeout: time.Second}
	h := newHandler(router, s, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rw := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(httpx.RequestIDHeader, "req-123")
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if got := rw.Header().Get(httpx.RequestIDHeader); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	body, _ := io.ReadAll(rw.Body)
	if string(body) != "req-123" {
		t.Fatalf("expected request id in context, got %q", body)
	}
	if rw.Header().Get("Content-Security-Policy") != contentSecurityPolicy {
		t.Fatal("expected content security policy header")
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rw.Code)
	}
}
