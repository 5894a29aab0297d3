// Package flash carries a one-shot notice across a redirect.
package flash

import (
	"net/http"
	"strings"
)

const cookieName = "groombook_flash"

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Message keys. The cookie carries the key, never the text.
const (
	LoginSuccess              = "loginSuccess"
	LoginFailure              = "loginFailure"
	LogoutSuccess             = "logoutSuccess"
	RegistrationSuccess       = "registrationSuccess"
	RegistrationFailure       = "registrationFailure"
	AppointmentCreated        = "appointmentCreated"
	AppointmentCreationFailed = "appointmentCreationFailed"
	AppointmentUpdated        = "appointmentUpdated"
	AppointmentUpdateFailed   = "appointmentUpdateFailed"
	AppointmentDeleted        = "appointmentDeleted"
	AppointmentDeletionFailed = "appointmentDeletionFailed"
	FetchAppointmentsFailed   = "fetchAppointmentsFailed"
	FetchCustomersFailed      = "fetchCustomersFailed"
	CustomerNotFound          = "customerNotFound"
	ActionSuccess             = "actionSuccess"
	ActionFailed              = "actionFailed"
	UnauthorizedAccess        = "unauthorizedAccess"
	UnexpectedError           = "unexpectedError"
	TooManyAttempts           = "tooManyAttempts"
)

var texts = map[string]string{
	LoginSuccess:              "Welcome back! You have logged in successfully.",
	LoginFailure:              "Login failed. Please check your username and password.",
	LogoutSuccess:             "You have logged out successfully.",
	RegistrationSuccess:       "Account created successfully! Please log in.",
	RegistrationFailure:       "Registration failed. Username may already be in use.",
	AppointmentCreated:        "Appointment booked successfully!",
	AppointmentCreationFailed: "Failed to book the appointment. Please try again.",
	AppointmentUpdated:        "Appointment updated successfully!",
	AppointmentUpdateFailed:   "Failed to update the appointment. Please try again.",
	AppointmentDeleted:        "Appointment canceled successfully!",
	AppointmentDeletionFailed: "Failed to cancel the appointment. Please try again.",
	FetchAppointmentsFailed:   "Failed to fetch appointments. Please refresh the page.",
	FetchCustomersFailed:      "Failed to fetch customer data. Please try again.",
	CustomerNotFound:          "Customer not found.",
	ActionSuccess:             "Action completed successfully!",
	ActionFailed:              "Something went wrong. Please try again.",
	UnauthorizedAccess:        "You are not authorized to perform this action.",
	UnexpectedError:           "An unexpected error occurred. Please try again later.",
	TooManyAttempts:           "Too many attempts. Please wait a minute and try again.",
}

type Message struct {
	Kind Kind
	Text string
}

// New resolves a key to a displayable message. Unknown keys read as an unexpected error.
func New(kind Kind, key string) *Message {
	text, ok := texts[key]
	if !ok {
		text = texts[UnexpectedError]
	}
	return &Message{Kind: kind, Text: text}
}

// Set schedules a message for the next page the browser loads.
func Set(w http.ResponseWriter, kind Kind, key string) {
	if _, ok := texts[key]; !ok {
		key = UnexpectedError
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    string(kind) + "." + key,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending message, if any, and clears it.
func Pop(w http.ResponseWriter, r *http.Request) *Message {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})

	kind, key, ok := strings.Cut(c.Value, ".")
	if !ok {
		return nil
	}
	if _, known := texts[key]; !known {
		return nil
	}
	switch Kind(kind) {
	case Success, Error:
		return New(Kind(kind), key)
	default:
		return nil
	}
}
