package grooming

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a field name, as sent on the wire, to a message for the user.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// AppointmentInput is the appointment form as typed by the user. Date is midnight
// of the chosen day in the display location; Time is the chosen slot as sent by the API.
type AppointmentInput struct {
	PetName string    `json:"petName" validate:"required,min=2,max=100"`
	PetSize PetSize   `json:"petSize" validate:"required,oneof=Small Medium Large"`
	Date    time.Time `json:"appointmentDate" validate:"required,notbeforetoday"`
	Time    string    `json:"appointmentTime" validate:"required"`
}

// RegistrationForm is the sign-up form, including the confirmation field.
type RegistrationForm struct {
	Username        string `json:"username" validate:"required,max=50"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	FullName        string `json:"fullName" validate:"required,max=100"`
}

func (f RegistrationForm) Registration() Registration {
	return Registration{Username: f.Username, Password: f.Password, FullName: f.FullName}
}

var messages = map[string]string{
	"petName.required":         "Pet name is required",
	"petName.min":              "Pet name must be at least 2 characters",
	"petName.max":              "Pet name must be at most 100 characters",
	"petSize":                  "Please select a pet size",
	"appointmentDate.required": "Please select a date",
	"appointmentDate":          "Please select a future date",
	"appointmentTime.required": "Please select an appointment time",
	"appointmentTime":          "Please select a future time",
	"duration":                 "Duration does not match the pet size",
	"username.required":        "Username is required",
	"username":                 "Username must be at most 50 characters",
	"password":                 "Password is required",
	"confirmPassword":          "Passwords do not match",
	"fullName.required":        "Full name is required",
	"fullName":                 "Full name must be at most 100 characters",
}

type nowKey struct{}

// WithNow fixes the instant the time rules compare against.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

func nowFrom(ctx context.Context) time.Time {
	if now, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return now
	}
	return time.Now()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidationCtx("notpast", func(ctx context.Context, fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && !t.Before(nowFrom(ctx))
	})
	_ = v.RegisterValidationCtx("notbeforetoday", func(ctx context.Context, fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.Before(StartOfDay(nowFrom(ctx), t.Location()))
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(AppointmentRequest)
		if req.PetSize.Valid() && req.Duration != req.PetSize.Duration() {
			sl.ReportError(req.Duration, "duration", "Duration", "petduration", "")
		}
	}, AppointmentRequest{})
	return v
}

// Validate checks one of the package's input types against the shared rules and
// returns FieldErrors when any rule fails.
func Validate(ctx context.Context, in any) error {
	if s, ok := in.(*AppointmentInput); ok {
		s.PetName = strings.TrimSpace(s.PetName)
	}
	err := validate.StructCtx(ctx, in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag())
	}
	return out
}

func message(field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	if m, ok := messages[field]; ok {
		return m
	}
	return field + " is invalid"
}

// StartOfDay is midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
