package stub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/groombook/libs/auth"
	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/libs/runtime"
)

type Server struct {
	store    *Store
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewServer(store *Store, secret []byte, tokenTTL time.Duration, logger *slog.Logger) *Server {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Server{store: store, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", runtime.Healthz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/customers/register", s.register)
		r.Post("/customers/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/customers/me", s.me)
			r.Get("/appointments/available-times", s.availableTimes)
			r.Post("/appointments/create", s.create)
			r.Get("/appointments/me", s.mine)
			r.Get("/appointments", s.list)
			r.Get("/appointments/{id}", s.get)
			r.Put("/appointments/{id}", s.update)
			r.Delete("/appointments/{id}", s.delete)
		})
	})
	return r
}

type customerKey struct{}

func customerID(ctx context.Context) int64 {
	id, _ := ctx.Value(customerKey{}).(int64)
	return id
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		claims, err := auth.ParseHS256(strings.TrimSpace(token), s.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}
		if _, ok := s.store.Customer(id); !ok {
			writeError(w, http.StatusUnauthorized, "unknown customer")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), customerKey{}, id)))
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg grooming.Registration
	if !decode(w, r, &reg) {
		return
	}
	reg.Username = strings.TrimSpace(reg.Username)
	reg.FullName = strings.TrimSpace(reg.FullName)
	if !s.valid(r.Context(), w, &reg) {
		return
	}
	u, err := s.store.Register(reg)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("register failed", "err", err)
		writeError(w, http.StatusInternalServerError, "register failed")
		return
	}
	s.logger.Info("customer registered", "customer_id", u.ID, "username", u.Username)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds grooming.Credentials
	if !decode(w, r, &creds) {
		return
	}
	if !s.valid(r.Context(), w, &creds) {
		return
	}
	u, err := s.store.Authenticate(creds)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	token, err := auth.SignHS256(auth.NewClaims(strconv.FormatInt(u.ID, 10), u.Username, time.Now(), s.tokenTTL), s.secret)
	if err != nil {
		s.logger.Error("sign token failed", "err", err)
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, grooming.LoginResponse{AccessToken: token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, _ := s.store.Customer(customerID(r.Context()))
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) availableTimes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil || duration <= 0 {
		writeError(w, http.StatusBadRequest, "invalid duration")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Available(date, duration))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req grooming.AppointmentRequest
	if !decode(w, r, &req) {
		return
	}
	req.PetName = strings.TrimSpace(req.PetName)
	if !s.valid(grooming.WithNow(r.Context(), s.store.now()), w, &req) {
		return
	}
	a, err := s.store.Create(customerID(r.Context()), req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) mine(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Mine(customerID(r.Context())))
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if raw := r.URL.Query().Get("fromDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid fromDate")
			return
		}
		from = &t
	}
	if raw := r.URL.Query().Get("toDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid toDate")
			return
		}
		to = &t
	}
	writeJSON(w, http.StatusOK, s.store.List(from, to))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := s.store.Get(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req grooming.AppointmentRequest
	if !decode(w, r, &req) {
		return
	}
	req.PetName = strings.TrimSpace(req.PetName)
	if !s.valid(grooming.WithNow(r.Context(), s.store.now()), w, &req) {
		return
	}
	a, err := s.store.Update(customerID(r.Context()), id, req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(customerID(r.Context()), id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("store error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// valid runs the shared validation rules and answers 400 with the field errors on failure.
func (s *Server) valid(ctx context.Context, w http.ResponseWriter, in any) bool {
	err := grooming.Validate(ctx, in)
	if err == nil {
		return true
	}
	var fe grooming.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "validation failed", Errors: fe})
		return false
	}
	s.logger.Error("validation failed", "err", err)
	writeError(w, http.StatusInternalServerError, "validation error")
	return false
}

type errorBody struct {
	Message string               `json:"message"`
	Errors  grooming.FieldErrors `json:"errors,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return 0, false
	}
	return id, true
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}
