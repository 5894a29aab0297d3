package activity

import (
	"strconv"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
)

type AppointmentPayload struct {
	AppointmentID   int64            `json:"appointmentId"`
	CustomerID      int64            `json:"customerId"`
	PetSize         grooming.PetSize `json:"petSize,omitempty"`
	AppointmentTime *time.Time       `json:"appointmentTime,omitempty"`
	Duration        int              `json:"duration,omitempty"`
	OccurredAt      time.Time        `json:"occurredAt"`
}

type CustomerPayload struct {
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurredAt"`
}

// AppointmentKey keys appointment events so one appointment's events stay ordered.
func AppointmentKey(id int64) string { return "appointment-" + strconv.FormatInt(id, 10) }

func NewAppointmentPayload(a grooming.Appointment, customerID int64, now time.Time) AppointmentPayload {
	p := AppointmentPayload{
		AppointmentID: a.ID,
		CustomerID:    customerID,
		PetSize:       a.PetSize,
		Duration:      a.GroomingDuration,
		OccurredAt:    now.UTC(),
	}
	if !a.AppointmentTime.IsZero() {
		t := a.AppointmentTime.UTC()
		p.AppointmentTime = &t
	}
	return p
}
