// Package views renders the web client's HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/flash"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{
	"home", "login", "register", "appointments", "mine", "form", "detail", "notfound", "error",
}

// Page is the data every template receives.
type Page struct {
	Title string
	User  *grooming.User
	// Unavailable is set when a session exists but its profile could not be loaded.
	Unavailable bool
	Flash       *flash.Message
	Path        string
	Data        any
}

type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

func New(loc *time.Location, logger *slog.Logger) (*Renderer, error) {
	funcs := Funcs(loc)
	r := &Renderer{pages: map[string]*template.Template{}, logger: logger}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes page into a buffer first so a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p Page) {
	t, ok := r.pages[name]
	if !ok {
		r.logger.Error("unknown page", "page", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		r.logger.Error("render page failed", "page", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Static serves the embedded scripts and styles.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

func Funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("02/01/2006, 15:04")
		},
		"day":     func(t time.Time) string { return t.In(loc).Format("02/01/2006") },
		"isodate": func(t time.Time) string { return t.In(loc).Format("2006-01-02") },
		"clock":   func(t time.Time) string { return t.In(loc).Format("15:04") },
		"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
		"add":     func(a, b int) int { return a + b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
		"owned": func(a grooming.Appointment, u *grooming.User) bool { return a.OwnedBy(u) },
	}
}
