package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
)

// ListParams narrows the all-appointments call. Empty fields are not sent.
type ListParams struct {
	FromDate string
	ToDate   string
}

func (c *Client) CreateAppointment(ctx context.Context, req grooming.AppointmentRequest) (*grooming.Appointment, error) {
	var out grooming.Appointment
	if err := c.do(ctx, http.MethodPost, pathCreate, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyAppointments(ctx context.Context) ([]grooming.Appointment, error) {
	var out []grooming.Appointment
	if err := c.do(ctx, http.MethodGet, pathMine, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Appointments(ctx context.Context, p ListParams) ([]grooming.Appointment, error) {
	q := url.Values{}
	if p.FromDate != "" {
		q.Set("fromDate", p.FromDate)
	}
	if p.ToDate != "" {
		q.Set("toDate", p.ToDate)
	}
	var out []grooming.Appointment
	if err := c.do(ctx, http.MethodGet, pathAppointments, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Appointment(ctx context.Context, id int64) (*grooming.Appointment, error) {
	var out grooming.Appointment
	if err := c.do(ctx, http.MethodGet, appointmentPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id int64, req grooming.AppointmentRequest) (*grooming.Appointment, error) {
	var out grooming.Appointment
	if err := c.do(ctx, http.MethodPut, appointmentPath(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, appointmentPath(id), nil, nil, nil)
}

// AvailableTimes asks for the free start times on the calendar day of date.
// The day is sent as UTC midnight regardless of the caller's location.
func (c *Client) AvailableTimes(ctx context.Context, date time.Time, duration int) ([]time.Time, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	q := url.Values{}
	q.Set("date", day.Format(time.RFC3339))
	q.Set("duration", strconv.Itoa(duration))
	var out []time.Time
	if err := c.do(ctx, http.MethodGet, pathAvailableTimes, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
