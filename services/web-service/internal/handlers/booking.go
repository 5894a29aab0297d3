package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/activity"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/apiclient"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/booking"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/flash"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/session"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/views"
)

// fill copies the submitted fields into f. The size goes first because setting
// it clears the chosen time.
func fill(f *booking.Form, v url.Values) {
	if !v.Has("petSize") && !v.Has("appointmentDate") && !v.Has("petName") {
		return
	}
	f.SetPetSize(grooming.PetSize(v.Get("petSize")))
	f.SetPetName(v.Get("petName"))
	f.SetDate(v.Get("appointmentDate"))
	f.SetTime(v.Get("appointmentTime"))
}

// loadSlots fetches the times for the form's current date and size. Lookups
// made through tracked are superseded by newer ones from the same session.
func (h *Handler) loadSlots(ctx context.Context, f *booking.Form, tracked *booking.Availability) error {
	q, ok := f.AvailabilityQuery()
	if !ok {
		return nil
	}
	if tracked == nil {
		tracked = &booking.Availability{}
	}
	slots, err := tracked.Fetch(ctx, h.api, q, h.loc)
	switch {
	case errors.Is(err, booking.ErrSuperseded):
		return nil
	case errors.Is(err, booking.ErrInvalid):
		f.Errors["appointmentDate"] = "Please select a date"
		return nil
	case err != nil:
		return err
	}
	f.ApplySlots(q, slots)
	return nil
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, f *booking.Form, fl *flash.Message) {
	title, action := "Book Appointment", "/appointments/new"
	if f.Editing() {
		title, action = "Edit Appointment", "/appointments/edit/"+strconv.FormatInt(f.AppointmentID(), 10)
	}
	p := h.page(w, r, title, views.FormData{
		Form:   f,
		Sizes:  grooming.PetSizes,
		Today:  h.now().In(h.loc).Format(booking.DateLayout),
		Action: action,
	})
	if fl != nil {
		p.Flash = fl
	}
	h.views.Render(w, status, "form", p)
}

// showForm renders f after an optional slot lookup for what the query string asked.
func (h *Handler) showForm(w http.ResponseWriter, r *http.Request, f *booking.Form) {
	fill(f, r.URL.Query())
	holder := session.FromContext(r.Context())
	if err := h.loadSlots(r.Context(), f, h.tracker.For(holder.Key())); err != nil {
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Warn("available times failed", "err", err)
		h.renderForm(w, r, http.StatusOK, f, flash.New(flash.Error, flash.ActionFailed))
		return
	}
	h.renderForm(w, r, http.StatusOK, f, nil)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	user, _ := session.FromContext(r.Context()).User(r.Context())
	h.showForm(w, r, booking.NewForm(user, nil, h.loc))
}

// editTarget loads the appointment under edit and checks it belongs to the user.
// It writes the response itself when it reports false.
func (h *Handler) editTarget(w http.ResponseWriter, r *http.Request) (*grooming.User, *grooming.Appointment, bool) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return nil, nil, false
	}
	a, err := h.api.Appointment(r.Context(), id)
	if err != nil {
		switch {
		case h.signedOut(w, r, err):
		case apiclient.IsNotFound(err):
			h.notFound(w, r)
		default:
			h.logger.Error("get appointment failed", "err", err, "appointment_id", id)
			h.failure(w, r, upstreamStatus(err), flash.ActionFailed)
		}
		return nil, nil, false
	}
	user, state := session.FromContext(r.Context()).User(r.Context())
	if state == session.Unavailable {
		h.failure(w, r, http.StatusServiceUnavailable, flash.FetchCustomersFailed)
		return nil, nil, false
	}
	if !a.OwnedBy(user) {
		h.failure(w, r, http.StatusForbidden, flash.UnauthorizedAccess)
		return nil, nil, false
	}
	return user, a, true
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	user, a, ok := h.editTarget(w, r)
	if !ok {
		return
	}
	h.showForm(w, r, booking.NewForm(user, a, h.loc))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user, _ := session.FromContext(r.Context()).User(r.Context())
	h.submit(w, r, booking.NewForm(user, nil, h.loc))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	user, a, ok := h.editTarget(w, r)
	if !ok {
		return
	}
	h.submit(w, r, booking.NewForm(user, a, h.loc))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, f *booking.Form) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if err := h.guard.Claim(r.PostForm.Get("nonce")); err != nil {
		// The first submit is already being handled; its outcome decides the flash.
		redirect(w, r, "/appointments/me")
		return
	}
	fill(f, r.PostForm)

	failed := flash.AppointmentCreationFailed
	if f.Editing() {
		failed = flash.AppointmentUpdateFailed
	}
	// Field rules first: a form that fails them never reaches the API.
	if err := f.ValidateFields(h.now()); err != nil {
		if !errors.Is(err, booking.ErrInvalid) {
			h.logger.Error("validate appointment failed", "err", err)
			h.renderForm(w, r, http.StatusInternalServerError, f, flash.New(flash.Error, failed))
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, f, nil)
		return
	}
	if err := h.loadSlots(ctx, f, nil); err != nil {
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Warn("available times failed", "err", err)
		h.renderForm(w, r, http.StatusBadGateway, f, flash.New(flash.Error, failed))
		return
	}

	saved, err := f.Submit(ctx, h.api, h.now())
	switch {
	case errors.Is(err, booking.ErrInvalid):
		h.renderForm(w, r, http.StatusUnprocessableEntity, f, nil)
		return
	case err != nil:
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Error("save appointment failed", "err", err, "editing", f.Editing())
		h.renderForm(w, r, upstreamStatus(err), f, flash.New(flash.Error, failed))
		return
	}

	holder := session.FromContext(ctx)
	h.lists.Forget(holder.Key() + ":")
	typ, done := activity.AppointmentBooked, flash.AppointmentCreated
	if f.Editing() {
		typ, done = activity.AppointmentUpdated, flash.AppointmentUpdated
	}
	h.events.Publish(ctx, typ, activity.AppointmentKey(saved.ID), activity.NewAppointmentPayload(*saved, h.userID(r), h.now()))
	flash.Set(w, flash.Success, done)
	redirect(w, r, "/appointments/me")
}

type slotOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type slotsResponse struct {
	Slots []slotOption `json:"slots"`
}

// availableTimes answers the form script. Only the newest lookup of a session
// gets slots; an overtaken one gets 409 and is ignored by the script.
func (h *Handler) availableTimes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size := grooming.PetSize(strings.TrimSpace(q.Get("petSize")))
	if !size.Valid() {
		http.Error(w, "invalid petSize", http.StatusBadRequest)
		return
	}
	query := booking.Query{Date: q.Get("appointmentDate"), Duration: size.Duration()}
	holder := session.FromContext(r.Context())
	slots, err := h.tracker.For(holder.Key()).Fetch(r.Context(), h.api, query, h.loc)
	switch {
	case errors.Is(err, booking.ErrInvalid):
		http.Error(w, "invalid appointmentDate", http.StatusBadRequest)
		return
	case errors.Is(err, booking.ErrSuperseded):
		http.Error(w, "superseded", http.StatusConflict)
		return
	case err != nil:
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Warn("available times failed", "err", err)
		http.Error(w, "available times unavailable", http.StatusBadGateway)
		return
	}

	resp := slotsResponse{Slots: make([]slotOption, 0, len(slots))}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, slotOption{
			Value: s.UTC().Format(time.RFC3339),
			Label: s.In(h.loc).Format("15:04"),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(resp)
}
