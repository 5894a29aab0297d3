// Package handlers wires the web client's routes to the session, the grooming API
// and the page renderer.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/libs/httpx"
	"github.com/md-rashed-zaman/groombook/libs/runtime"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/activity"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/apiclient"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/booking"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/flash"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/session"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/table"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/views"
)

// API is the part of the grooming API the pages call directly. Login and profile
// calls go through the session manager.
type API interface {
	Register(ctx context.Context, reg grooming.Registration) error
	CreateAppointment(ctx context.Context, req grooming.AppointmentRequest) (*grooming.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, req grooming.AppointmentRequest) (*grooming.Appointment, error)
	CancelAppointment(ctx context.Context, id int64) error
	MyAppointments(ctx context.Context) ([]grooming.Appointment, error)
	Appointments(ctx context.Context, p apiclient.ListParams) ([]grooming.Appointment, error)
	Appointment(ctx context.Context, id int64) (*grooming.Appointment, error)
	AvailableTimes(ctx context.Context, date time.Time, duration int) ([]time.Time, error)
}

type Deps struct {
	API      API
	Sessions *session.Manager
	Views    *views.Renderer
	Location *time.Location
	Lists    *table.Cache
	Tracker  *booking.Tracker
	Guard    *booking.SubmitGuard
	Events   activity.Publisher
	// AuthLimiter throttles login and registration submits per client.
	AuthLimiter   httpx.Limiter
	LimitFailOpen bool
	Ready         []runtime.ReadyCheck
	Logger        *slog.Logger
	Now           func() time.Time
}

type Handler struct {
	api     API
	views   *views.Renderer
	loc     *time.Location
	lists   *table.Cache
	tracker *booking.Tracker
	guard   *booking.SubmitGuard
	events  activity.Publisher
	logger  *slog.Logger
	now     func() time.Time
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		api:     d.API,
		views:   d.Views,
		loc:     d.Location,
		lists:   d.Lists,
		tracker: d.Tracker,
		guard:   d.Guard,
		events:  d.Events,
		logger:  d.Logger,
		now:     d.Now,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.lists == nil {
		h.lists = table.NewCache(time.Minute)
	}
	if h.tracker == nil {
		h.tracker = booking.NewTracker(0)
	}
	if h.guard == nil {
		h.guard = booking.NewSubmitGuard(0)
	}
	if h.events == nil {
		h.events = activity.Noop{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()
	r.Get("/healthz", runtime.Healthz)
	r.Get("/readyz", runtime.Readyz(d.Ready...))
	r.Handle("/static/*", http.StripPrefix("/static/", views.Static()))

	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.Middleware)
		r.NotFound(h.notFound)

		r.Get("/", h.home)

		var limit func(http.Handler) http.Handler
		if d.AuthLimiter != nil {
			limit = httpx.Limit(d.AuthLimiter, httpx.LimitOptions{
				Key:       func(r *http.Request) string { return "auth:" + httpx.ClientKey(r) },
				FailOpen:  d.LimitFailOpen,
				Logger:    h.logger,
				OnLimited: http.HandlerFunc(h.tooManyAttempts),
			})
		} else {
			limit = func(next http.Handler) http.Handler { return next }
		}
		r.Get("/auth/login", h.loginPage)
		r.With(limit).Post("/auth/login", h.login)
		r.Get("/auth/register", h.registerPage)
		r.With(limit).Post("/auth/register", h.register)
		r.Post("/auth/logout", h.logout)

		r.Route("/appointments", func(r chi.Router) {
			r.Use(session.RequireAuth)
			r.NotFound(h.notFound)
			r.Get("/", h.allAppointments)
			r.Get("/me", h.myAppointments)
			r.Get("/new", h.newForm)
			r.Post("/new", h.create)
			r.Get("/available-times", h.availableTimes)
			r.Get("/edit/{id}", h.editForm)
			r.Post("/edit/{id}", h.update)
			r.Get("/{id}", h.detail)
			r.Post("/{id}/cancel", h.cancel)
			r.Delete("/{id}", h.cancelJSON)
		})
	})
	return r
}

// page assembles the data every template needs and consumes the pending flash.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, title string, data any) views.Page {
	user, state := session.FromContext(r.Context()).User(r.Context())
	return views.Page{
		Title:       title,
		User:        user,
		Unavailable: state == session.Unavailable,
		Flash:       flash.Pop(w, r),
		Path:        r.URL.Path,
		Data:        data,
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "home", h.page(w, r, "Home", nil))
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusNotFound, "notfound", h.page(w, r, "Not Found", nil))
}

func (h *Handler) failure(w http.ResponseWriter, r *http.Request, status int, key string) {
	h.views.Render(w, status, "error", h.page(w, r, "Error", views.ErrorData{Status: status, Message: flash.New(flash.Error, key).Text}))
}

// signedOut handles a 401 from the API mid-session: the token is dead, so the
// session ends and the browser goes back through login.
func (h *Handler) signedOut(w http.ResponseWriter, r *http.Request, err error) bool {
	if apiclient.StatusCode(err) != http.StatusUnauthorized {
		return false
	}
	holder := session.FromContext(r.Context())
	h.lists.Forget(holder.Key() + ":")
	holder.Logout(r.Context())
	if session.WantsJSON(r) {
		http.Error(w, "session expired", http.StatusUnauthorized)
		return true
	}
	callback := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		callback = ""
	}
	http.Redirect(w, r, session.LoginURL(callback), http.StatusSeeOther)
	return true
}

// upstreamStatus maps an API failure onto the status the page answers with.
func upstreamStatus(err error) int {
	switch code := apiclient.StatusCode(err); code {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return code
	default:
		return http.StatusBadGateway
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) userID(r *http.Request) int64 {
	u, _ := session.FromContext(r.Context()).User(r.Context())
	if u == nil {
		return 0
	}
	return u.ID
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
