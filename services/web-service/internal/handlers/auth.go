package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/activity"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/apiclient"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/flash"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/session"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/views"
)

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	data := views.LoginData{CallbackURL: callbackParam(r.URL.Query().Get("callbackUrl"))}
	h.views.Render(w, http.StatusOK, "login", h.page(w, r, "Login", data))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	creds := grooming.Credentials{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	data := views.LoginData{
		Username:    creds.Username,
		CallbackURL: callbackParam(r.PostForm.Get("callbackUrl")),
	}

	ctx := r.Context()
	if err := grooming.Validate(ctx, &creds); err != nil {
		var fe grooming.FieldErrors
		if !errors.As(err, &fe) {
			h.logger.Error("validate credentials failed", "err", err)
			h.failure(w, r, http.StatusInternalServerError, flash.UnexpectedError)
			return
		}
		data.Errors = fe
		h.views.Render(w, http.StatusUnprocessableEntity, "login", h.page(w, r, "Login", data))
		return
	}

	holder := session.FromContext(ctx)
	if err := holder.Login(ctx, creds); err != nil {
		status := http.StatusBadGateway
		if code := apiclient.StatusCode(err); code >= 400 && code < 500 {
			status = http.StatusUnauthorized
		} else {
			h.logger.Error("login failed", "err", err)
		}
		p := h.page(w, r, "Login", data)
		p.Flash = flash.New(flash.Error, flash.LoginFailure)
		h.views.Render(w, status, "login", p)
		return
	}

	flash.Set(w, flash.Success, flash.LoginSuccess)
	redirect(w, r, session.SafeCallback(data.CallbackURL))
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "register", h.page(w, r, "Register", views.RegisterData{}))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := grooming.RegistrationForm{
		Username:        strings.TrimSpace(r.PostForm.Get("username")),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
		FullName:        strings.TrimSpace(r.PostForm.Get("fullName")),
	}
	data := views.RegisterData{Username: form.Username, FullName: form.FullName}

	ctx := r.Context()
	if err := grooming.Validate(ctx, &form); err != nil {
		var fe grooming.FieldErrors
		if !errors.As(err, &fe) {
			h.logger.Error("validate registration failed", "err", err)
			h.failure(w, r, http.StatusInternalServerError, flash.UnexpectedError)
			return
		}
		data.Errors = fe
		h.views.Render(w, http.StatusUnprocessableEntity, "register", h.page(w, r, "Register", data))
		return
	}

	if err := h.api.Register(ctx, form.Registration()); err != nil {
		h.logger.Warn("registration failed", "err", err, "username", form.Username)
		p := h.page(w, r, "Register", data)
		p.Flash = flash.New(flash.Error, flash.RegistrationFailure)
		h.views.Render(w, upstreamStatus(err), "register", p)
		return
	}

	h.events.Publish(ctx, activity.CustomerRegistered, form.Username, activity.CustomerPayload{
		Username:   form.Username,
		OccurredAt: h.now().UTC(),
	})
	flash.Set(w, flash.Success, flash.RegistrationSuccess)
	redirect(w, r, session.LoginPath)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	holder := session.FromContext(r.Context())
	if key := holder.Key(); key != "" {
		h.lists.Forget(key + ":")
	}
	holder.Logout(r.Context())
	flash.Set(w, flash.Success, flash.LogoutSuccess)
	redirect(w, r, "/")
}

// tooManyAttempts re-renders the throttled form instead of a bare 429.
func (h *Handler) tooManyAttempts(w http.ResponseWriter, r *http.Request) {
	name, title := "login", "Login"
	var data any = views.LoginData{
		Username:    strings.TrimSpace(r.PostFormValue("username")),
		CallbackURL: callbackParam(r.PostFormValue("callbackUrl")),
	}
	if strings.HasSuffix(r.URL.Path, "/register") {
		name, title = "register", "Register"
		data = views.RegisterData{
			Username: strings.TrimSpace(r.PostFormValue("username")),
			FullName: strings.TrimSpace(r.PostFormValue("fullName")),
		}
	}
	p := h.page(w, r, title, data)
	p.Flash = flash.New(flash.Error, flash.TooManyAttempts)
	w.Header().Set("Retry-After", "60")
	h.views.Render(w, http.StatusTooManyRequests, name, p)
}

// callbackParam keeps a callback only when it is a local path.
func callbackParam(raw string) string {
	if cb := session.SafeCallback(raw); cb != "/" {
		return cb
	}
	return ""
}
