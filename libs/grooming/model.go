// Package grooming holds the appointment model and the validation rules shared by
// the web client and the API stub.
package grooming

import (
	"strconv"
	"time"
)

type PetSize string

const (
	Small  PetSize = "Small"
	Medium PetSize = "Medium"
	Large  PetSize = "Large"
)

// PetSizes lists the sizes in the order forms offer them.
var PetSizes = []PetSize{Small, Medium, Large}

// Duration is the grooming time in minutes for the size, or 0 for an unknown size.
func (s PetSize) Duration() int {
	switch s {
	case Small:
		return 30
	case Medium:
		return 60
	case Large:
		return 90
	default:
		return 0
	}
}

func (s PetSize) Valid() bool { return s.Duration() > 0 }

type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

type Appointment struct {
	ID               int64     `json:"id"`
	CustomerID       int64     `json:"customerId"`
	CustomerName     string    `json:"customerName,omitempty"`
	PetName          string    `json:"petName"`
	PetSize          PetSize   `json:"petSize"`
	AppointmentTime  time.Time `json:"appointmentTime"`
	GroomingDuration int       `json:"groomingDuration"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (a Appointment) OwnedBy(u *User) bool {
	return u != nil && u.ID == a.CustomerID
}

func (a Appointment) End() time.Time {
	return a.AppointmentTime.Add(time.Duration(a.GroomingDuration) * time.Minute)
}

// IDString is the id as it appears in URLs.
func (a Appointment) IDString() string {
	return strconv.FormatInt(a.ID, 10)
}

// AppointmentRequest is the body of create and update calls.
type AppointmentRequest struct {
	AppointmentTime time.Time `json:"appointmentTime" validate:"required,notpast"`
	Duration        int       `json:"duration" validate:"required"`
	PetSize         PetSize   `json:"petSize" validate:"required,oneof=Small Medium Large"`
	PetName         string    `json:"petName" validate:"required,min=2,max=100"`
}

// NewAppointmentRequest derives the duration from the size.
func NewAppointmentRequest(petName string, size PetSize, at time.Time) AppointmentRequest {
	return AppointmentRequest{
		AppointmentTime: at,
		Duration:        size.Duration(),
		PetSize:         size,
		PetName:         petName,
	}
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullName" validate:"required,max=100"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}
