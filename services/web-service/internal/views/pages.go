package views

import (
	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/booking"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/table"
)

type LoginData struct {
	Username    string
	CallbackURL string
	Errors      grooming.FieldErrors
}

// RegisterData never carries passwords back into the page.
type RegisterData struct {
	Username string
	FullName string
	Errors   grooming.FieldErrors
}

type TableData struct {
	View      table.View
	State     table.State
	Path      string
	PageSizes []int
}

// Header is one sortable column as the template needs it.
type Header struct {
	Label     string
	Href      string
	Indicator string
}

func (d TableData) Headers() []Header {
	labels := map[table.Column]string{
		table.ColumnCustomer: "Customer Name",
		table.ColumnPet:      "Pet Name",
		table.ColumnTime:     "Date & Time",
		table.ColumnDuration: "Duration (min)",
	}
	out := make([]Header, 0, len(table.Columns))
	for _, c := range table.Columns {
		out = append(out, Header{
			Label:     labels[c],
			Href:      d.State.SortHref(d.Path, c),
			Indicator: d.State.SortIndicator(c),
		})
	}
	return out
}

func (d TableData) PageHref(i int) string { return d.State.PageHref(d.Path, i) }

func (d TableData) SizeHref(n int) string { return d.State.SizeHref(d.Path, n) }

func (d TableData) ResetHref() string { return d.State.ResetHref(d.Path) }

type MineData struct {
	Appointments []grooming.Appointment
}

type FormData struct {
	Form  *booking.Form
	Sizes []grooming.PetSize
	Today string
	// Action is the URL the form posts to.
	Action string
}

type DetailData struct {
	Appointment grooming.Appointment
	CanModify   bool
	Back        string
}

type ErrorData struct {
	Status  int
	Message string
}
