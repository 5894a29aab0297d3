// Package booking implements the create and edit appointment form.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/groombook/libs/grooming"
)

const DateLayout = "2006-01-02"

var ErrInvalid = errors.New("appointment form is invalid")

// Query identifies one availability lookup.
type Query struct {
	Date     string
	Duration int
}

// Day is midnight of the query date in loc.
func (q Query) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, q.Date, loc)
}

// API is what submitting a form needs from the grooming API.
type API interface {
	CreateAppointment(ctx context.Context, req grooming.AppointmentRequest) (*grooming.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, req grooming.AppointmentRequest) (*grooming.Appointment, error)
}

type Form struct {
	CustomerName string
	PetName      string
	PetSize      grooming.PetSize
	Date         string
	// Time is the chosen slot in RFC 3339, as the API returned it.
	Time     string
	Duration int
	Slots    []time.Time
	Nonce    string
	Errors   grooming.FieldErrors

	original *grooming.Appointment
	slotsFor Query
	loc      *time.Location
}

// NewForm seeds a form from appointment when editing, or blank otherwise.
func NewForm(user *grooming.User, appointment *grooming.Appointment, loc *time.Location) *Form {
	f := &Form{loc: loc, Nonce: uuid.NewString(), Errors: grooming.FieldErrors{}}
	if user != nil {
		f.CustomerName = user.FullName
	}
	if appointment != nil {
		a := *appointment
		f.original = &a
		f.PetName = a.PetName
		f.PetSize = a.PetSize
		f.Duration = a.PetSize.Duration()
		f.Date = a.AppointmentTime.In(loc).Format(DateLayout)
		f.Time = a.AppointmentTime.UTC().Format(time.RFC3339)
	}
	return f
}

func (f *Form) Editing() bool { return f.original != nil }

// AppointmentID is the id under edit, or 0 in create mode.
func (f *Form) AppointmentID() int64 {
	if f.original == nil {
		return 0
	}
	return f.original.ID
}

func (f *Form) Location() *time.Location { return f.loc }

// Own is the appointment under edit, or nil in create mode.
func (f *Form) Own() *grooming.Appointment { return f.original }

func (f *Form) SetPetName(name string) { f.PetName = name }

// SetPetSize derives the duration and drops the chosen time, which was picked for the old duration.
func (f *Form) SetPetSize(size grooming.PetSize) {
	f.PetSize = size
	f.Duration = size.Duration()
	f.Time = ""
}

func (f *Form) SetDate(date string) { f.Date = date }

func (f *Form) SetTime(t string) { f.Time = t }

// AvailabilityQuery reports the lookup the form currently needs, if both inputs are set.
func (f *Form) AvailabilityQuery() (Query, bool) {
	q := Query{Date: f.Date, Duration: f.Duration}
	return q, q.Date != "" && q.Duration > 0
}

// ApplySlots stores slots only if they answer the form's current query.
func (f *Form) ApplySlots(q Query, slots []time.Time) bool {
	current, ok := f.AvailabilityQuery()
	if !ok || current != q {
		return false
	}
	f.Slots = slots
	f.slotsFor = q
	return true
}

// SlotSelected reports whether slot is the chosen time.
func (f *Form) SlotSelected(slot time.Time) bool {
	t, err := time.Parse(time.RFC3339, f.Time)
	return err == nil && t.Equal(slot)
}

// keepsOwnSlot is true while an edit still targets the appointment's own date and size.
func (f *Form) keepsOwnSlot(t time.Time) bool {
	if f.original == nil {
		return false
	}
	return t.Equal(f.original.AppointmentTime) &&
		f.PetSize == f.original.PetSize &&
		f.Date == f.original.AppointmentTime.In(f.loc).Format(DateLayout)
}

// OwnSlot returns the appointment's current time when it should be offered alongside the fetched slots.
func (f *Form) OwnSlot() (time.Time, bool) {
	if f.original == nil || !f.keepsOwnSlot(f.original.AppointmentTime) {
		return time.Time{}, false
	}
	for _, s := range f.Slots {
		if s.Equal(f.original.AppointmentTime) {
			return time.Time{}, false
		}
	}
	return f.original.AppointmentTime, true
}

// TimeOptions is what the time picker offers: the fetched slots, preceded by the
// appointment's own time while an edit still allows it.
func (f *Form) TimeOptions() []time.Time {
	own, ok := f.OwnSlot()
	if !ok {
		return f.Slots
	}
	return append([]time.Time{own}, f.Slots...)
}

// ValidateFields runs the shared rules alone. It needs no slot list, so it runs
// before any availability lookup.
func (f *Form) ValidateFields(now time.Time) error {
	errs, err := f.fieldErrors(now)
	if err != nil {
		return err
	}
	return f.settle(errs)
}

// Validate checks the form against the shared rules plus membership of the
// chosen time in the fetched slots. now decides what "today" is.
func (f *Form) Validate(now time.Time) error {
	errs, err := f.fieldErrors(now)
	if err != nil {
		return err
	}
	if _, set := errs["appointmentTime"]; !set {
		if !f.timeOffered() {
			errs["appointmentTime"] = "Please select an appointment time"
		}
	}
	return f.settle(errs)
}

func (f *Form) fieldErrors(now time.Time) (grooming.FieldErrors, error) {
	in := grooming.AppointmentInput{
		PetName: f.PetName,
		PetSize: f.PetSize,
		Time:    f.Time,
	}
	if day, err := time.ParseInLocation(DateLayout, f.Date, f.loc); err == nil {
		in.Date = day
	}

	errs := grooming.FieldErrors{}
	if err := grooming.Validate(grooming.WithNow(context.Background(), now), &in); err != nil {
		if !errors.As(err, &errs) {
			return nil, err
		}
	}
	f.PetName = in.PetName
	return errs, nil
}

func (f *Form) settle(errs grooming.FieldErrors) error {
	f.Errors = errs
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	return nil
}

func (f *Form) timeOffered() bool {
	t, err := time.Parse(time.RFC3339, f.Time)
	if err != nil {
		return false
	}
	if f.keepsOwnSlot(t) {
		return true
	}
	if q, _ := f.AvailabilityQuery(); q != f.slotsFor {
		return false
	}
	for _, s := range f.Slots {
		if s.Equal(t) {
			return true
		}
	}
	return false
}

// Request builds the wire body. Call only after Validate succeeds.
func (f *Form) Request() (grooming.AppointmentRequest, error) {
	t, err := time.Parse(time.RFC3339, f.Time)
	if err != nil {
		return grooming.AppointmentRequest{}, fmt.Errorf("%w: appointment time %q", ErrInvalid, f.Time)
	}
	return grooming.NewAppointmentRequest(f.PetName, f.PetSize, t.UTC()), nil
}

// Submit validates the form and sends it. Nothing is sent when validation fails.
func (f *Form) Submit(ctx context.Context, api API, now time.Time) (*grooming.Appointment, error) {
	if err := f.Validate(now); err != nil {
		return nil, err
	}
	req, err := f.Request()
	if err != nil {
		return nil, err
	}
	if f.Editing() {
		return api.UpdateAppointment(ctx, f.original.ID, req)
	}
	return api.CreateAppointment(ctx, req)
}
