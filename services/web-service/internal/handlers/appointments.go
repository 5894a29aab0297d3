package handlers

import (
	"context"
	"net/http"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/activity"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/apiclient"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/flash"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/session"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/table"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/views"
)

const (
	listAll  = ":all"
	listMine = ":mine"
)

// list returns the session's cached list, loading it on a miss or when the
// user asked for a refresh.
func (h *Handler) list(r *http.Request, suffix string, load func(context.Context) ([]grooming.Appointment, error)) (*table.List, error) {
	key := session.FromContext(r.Context()).Key() + suffix
	if r.URL.Query().Get("refresh") == "" {
		if l, ok := h.lists.Get(key); ok {
			return l, nil
		}
	}
	items, err := load(r.Context())
	if err != nil {
		return nil, err
	}
	return h.lists.Put(key, items), nil
}

func (h *Handler) allAppointments(w http.ResponseWriter, r *http.Request) {
	state := table.ParseState(r.URL.Query())
	data := views.TableData{State: state, Path: r.URL.Path, PageSizes: table.PageSizes}

	l, err := h.list(r, listAll, func(ctx context.Context) ([]grooming.Appointment, error) {
		return h.api.Appointments(ctx, apiclient.ListParams{})
	})
	if err != nil {
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Error("list appointments failed", "err", err)
		data.View = table.Build(nil, table.Filter{}, state.Sort, state.Page, h.loc)
		p := h.page(w, r, "All Appointments", data)
		p.Flash = flash.New(flash.Error, flash.FetchAppointmentsFailed)
		h.views.Render(w, http.StatusBadGateway, "appointments", p)
		return
	}

	data.View = table.Build(l.Items(), state.Filter(h.loc), state.Sort, state.Page, h.loc)
	data.State.Page = data.View.Page
	h.views.Render(w, http.StatusOK, "appointments", h.page(w, r, "All Appointments", data))
}

func (h *Handler) myAppointments(w http.ResponseWriter, r *http.Request) {
	l, err := h.list(r, listMine, h.api.MyAppointments)
	if err != nil {
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Error("list my appointments failed", "err", err)
		p := h.page(w, r, "My Appointments", views.MineData{})
		p.Flash = flash.New(flash.Error, flash.FetchAppointmentsFailed)
		h.views.Render(w, http.StatusBadGateway, "mine", p)
		return
	}
	items := l.Items()
	table.SortRows(items, table.Sort{Column: table.ColumnTime, Dir: table.Asc})
	h.views.Render(w, http.StatusOK, "mine", h.page(w, r, "My Appointments", views.MineData{Appointments: items}))
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
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
		return
	}

	back := r.URL.Query().Get("back")
	if back == "" {
		back = "/appointments"
	}
	user, _ := session.FromContext(r.Context()).User(r.Context())
	data := views.DetailData{
		Appointment: *a,
		CanModify:   a.OwnedBy(user),
		Back:        session.SafeCallback(back),
	}
	h.views.Render(w, http.StatusOK, "detail", h.page(w, r, a.PetName, data))
}

// cancelCached cancels id through the session's cached all-appointments list so
// the row disappears at once and comes back if the API refuses.
func (h *Handler) cancelCached(r *http.Request, id int64) error {
	ctx := r.Context()
	key := session.FromContext(ctx).Key()
	all, ok := h.lists.Get(key + listAll)
	if !ok {
		all = table.NewList(nil)
	}
	cancelled, _ := all.Find(id)
	if err := table.CancelOptimistic(ctx, all, h.api, id); err != nil {
		return err
	}
	if mine, ok := h.lists.Get(key + listMine); ok {
		if a, found := mine.Find(id); found {
			cancelled = a
		}
		mine.Remove(id)
	}
	cancelled.ID = id
	h.events.Publish(ctx, activity.AppointmentCancelled, activity.AppointmentKey(id),
		activity.NewAppointmentPayload(cancelled, h.userID(r), h.now()))
	return nil
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	back := session.SafeCallback(r.PostFormValue("back"))
	if back == "/" {
		back = "/appointments"
	}
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.cancelCached(r, id); err != nil {
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Warn("cancel appointment failed", "err", err, "appointment_id", id)
		key := flash.AppointmentDeletionFailed
		if apiclient.IsForbidden(err) {
			key = flash.UnauthorizedAccess
		}
		flash.Set(w, flash.Error, key)
		redirect(w, r, back)
		return
	}
	flash.Set(w, flash.Success, flash.AppointmentDeleted)
	redirect(w, r, back)
}

// cancelJSON serves the script-driven cancel. The script reloads on success, so
// the flash is still set for the next page.
func (h *Handler) cancelJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusNotFound)
		return
	}
	if err := h.cancelCached(r, id); err != nil {
		if h.signedOut(w, r, err) {
			return
		}
		h.logger.Warn("cancel appointment failed", "err", err, "appointment_id", id)
		status := http.StatusBadGateway
		switch {
		case apiclient.IsForbidden(err):
			status = http.StatusForbidden
		case apiclient.IsNotFound(err):
			status = http.StatusNotFound
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	flash.Set(w, flash.Success, flash.AppointmentDeleted)
	w.WriteHeader(http.StatusNoContent)
}
