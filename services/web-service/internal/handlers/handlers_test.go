package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/libs/httpx"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/activity"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/apiclient"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/session"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/table"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handlers-test-secret-0123456789abcdef"

var (
	testLoc = time.FixedZone("IDT", 3*60*60)
	testNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
)

type fakeAPI struct {
	mu          sync.Mutex
	loginErr    error
	meErr       error
	listErr     error
	cancelErr   error
	createErr   error
	registerErr error
	appts       []grooming.Appointment
	slots       []time.Time
	listCalls   int
	slotCalls   int
	created     []grooming.AppointmentRequest
	updated     map[int64]grooming.AppointmentRequest
	cancelled   []int64
	registered  []grooming.Registration
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		appts: []grooming.Appointment{
			{ID: 1, CustomerID: 7, CustomerName: "Dana Levi", PetName: "Rex", PetSize: grooming.Small, GroomingDuration: 30, AppointmentTime: time.Date(2026, 5, 3, 7, 0, 0, 0, time.UTC)},
			{ID: 2, CustomerID: 8, CustomerName: "Avi Cohen", PetName: "Bella", PetSize: grooming.Large, GroomingDuration: 90, AppointmentTime: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
		},
		slots: []time.Time{
			time.Date(2026, 5, 3, 6, 0, 0, 0, time.UTC),
			time.Date(2026, 5, 3, 7, 0, 0, 0, time.UTC),
		},
		updated: map[int64]grooming.AppointmentRequest{},
	}
}

func (f *fakeAPI) Login(context.Context, grooming.Credentials) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "access-token-7", nil
}

func (f *fakeAPI) Me(context.Context) (*grooming.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &grooming.User{ID: 7, FullName: "Dana Levi", Username: "dana"}, nil
}

func (f *fakeAPI) Register(_ context.Context, reg grooming.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, reg)
	return nil
}

func (f *fakeAPI) CreateAppointment(_ context.Context, req grooming.AppointmentRequest) (*grooming.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &grooming.Appointment{ID: 99, CustomerID: 7, PetName: req.PetName, PetSize: req.PetSize, GroomingDuration: req.Duration, AppointmentTime: req.AppointmentTime}, nil
}

func (f *fakeAPI) UpdateAppointment(_ context.Context, id int64, req grooming.AppointmentRequest) (*grooming.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = req
	return &grooming.Appointment{ID: id, CustomerID: 7, PetName: req.PetName, PetSize: req.PetSize, GroomingDuration: req.Duration, AppointmentTime: req.AppointmentTime}, nil
}

func (f *fakeAPI) CancelAppointment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeAPI) MyAppointments(context.Context) ([]grooming.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []grooming.Appointment
	for _, a := range f.appts {
		if a.CustomerID == 7 {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAPI) Appointments(context.Context, apiclient.ListParams) ([]grooming.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]grooming.Appointment(nil), f.appts...), nil
}

func (f *fakeAPI) Appointment(_ context.Context, id int64) (*grooming.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, &apiclient.StatusError{Method: http.MethodGet, Path: "/appointments/x", StatusCode: http.StatusNotFound}
}

func (f *fakeAPI) AvailableTimes(context.Context, time.Time, int) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotCalls++
	return f.slots, nil
}

type recordedEvent struct {
	typ activity.Type
	key string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(_ context.Context, typ activity.Type, key string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{typ: typ, key: key})
}

type env struct {
	api    *fakeAPI
	events *fakePublisher
	codec  *session.Codec
	router http.Handler
}

func newEnv(t *testing.T, limiter httpx.Limiter) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := newFakeAPI()
	codec, err := session.NewCodec(testSecret)
	require.NoError(t, err)
	renderer, err := views.New(testLoc, logger)
	require.NoError(t, err)
	events := &fakePublisher{}
	router := NewRouter(Deps{
		API:         api,
		Sessions:    session.NewManager(session.Options{Codec: codec, API: api, Logger: logger}),
		Views:       renderer,
		Location:    testLoc,
		Lists:       table.NewCache(time.Minute),
		Events:      events,
		AuthLimiter: limiter,
		Logger:      logger,
		Now:         func() time.Time { return testNow },
	})
	return &env{api: api, events: events, codec: codec, router: router}
}

// sessionCookie is what a successful login would have set.
func (e *env) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	value, err := e.codec.Encode(session.Data{Token: "access-token-7", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	return &http.Cookie{Name: session.DefaultCookieName, Value: value}
}

func (e *env) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodGet, "/appointments/me", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=%2Fappointments%2Fme", rec.Header().Get("Location"))

	rec = e.do(http.MethodDelete, "/appointments/1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLoginSuccessStartsSessionAndFollowsCallback(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodPost, "/auth/login", url.Values{
		"username":    {"dana"},
		"password":    {"secret"},
		"callbackUrl": {"/appointments/new"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/appointments/new", rec.Header().Get("Location"))
	require.NotNil(t, cookieNamed(rec, session.DefaultCookieName))
	assert.NotNil(t, cookieNamed(rec, "groombook_flash"))

	home := e.do(http.MethodGet, "/", nil, cookieNamed(rec, session.DefaultCookieName))
	assert.Contains(t, home.Body.String(), "Welcome back, Dana Levi!")
}

func TestLoginRejectsOffsiteCallback(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(http.MethodPost, "/auth/login", url.Values{
		"username":    {"dana"},
		"password":    {"secret"},
		"callbackUrl": {"//evil.example"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoginFailureShowsMessage(t *testing.T) {
	e := newEnv(t, nil)
	e.api.loginErr = &apiclient.StatusError{Method: http.MethodPost, Path: "/customers/login", StatusCode: http.StatusUnauthorized}

	rec := e.do(http.MethodPost, "/auth/login", url.Values{"username": {"dana"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed. Please check your username and password.")
	assert.Nil(t, cookieNamed(rec, session.DefaultCookieName))
}

func TestLoginFailsWhenProfileRejectsToken(t *testing.T) {
	e := newEnv(t, nil)
	e.api.meErr = &apiclient.StatusError{Method: http.MethodGet, Path: "/customers/me", StatusCode: http.StatusUnauthorized}

	rec := e.do(http.MethodPost, "/auth/login", url.Values{"username": {"dana"}, "password": {"secret"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed. Please check your username and password.")
	assert.Nil(t, cookieNamed(rec, "groombook_flash"), "no success flash")
}

func TestLoginValidation(t *testing.T) {
	e := newEnv(t, nil)
	rec := e.do(http.MethodPost, "/auth/login", url.Values{"username": {" "}, "password": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username is required")
}

func TestLoginRateLimited(t *testing.T) {
	e := newEnv(t, httpx.NewMemoryLimiter(1, time.Minute))
	form := url.Values{"username": {"dana"}, "password": {"secret"}}

	first := e.do(http.MethodPost, "/auth/login", form)
	assert.Equal(t, http.StatusSeeOther, first.Code)

	second := e.do(http.MethodPost, "/auth/login", form)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "Too many attempts.")
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestRegister(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodPost, "/auth/register", url.Values{
		"username": {"dana"}, "fullName": {"Dana Levi"}, "password": {"pw"}, "confirmPassword": {"other"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")
	assert.Empty(t, e.api.registered)

	rec = e.do(http.MethodPost, "/auth/register", url.Values{
		"username": {"dana"}, "fullName": {"Dana Levi"}, "password": {"pw"}, "confirmPassword": {"pw"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.LoginPath, rec.Header().Get("Location"))
	require.Len(t, e.api.registered, 1)
	assert.Equal(t, grooming.Registration{Username: "dana", Password: "pw", FullName: "Dana Levi"}, e.api.registered[0])
	require.Len(t, e.events.events, 1)
	assert.Equal(t, activity.CustomerRegistered, e.events.events[0].typ)
}

func TestRegisterUpstreamConflict(t *testing.T) {
	e := newEnv(t, nil)
	e.api.registerErr = &apiclient.StatusError{Method: http.MethodPost, Path: "/customers/register", StatusCode: http.StatusConflict}

	rec := e.do(http.MethodPost, "/auth/register", url.Values{
		"username": {"dana"}, "fullName": {"Dana Levi"}, "password": {"pw"}, "confirmPassword": {"pw"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration failed.")
	assert.Empty(t, e.events.events)
}

func TestAllAppointmentsFiltersAndCaches(t *testing.T) {
	e := newEnv(t, nil)
	c := e.sessionCookie(t)

	rec := e.do(http.MethodGet, "/appointments?name=dana", nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Rex")
	assert.NotContains(t, body, "Bella")
	assert.Contains(t, body, `data-cancel="1"`)

	rec = e.do(http.MethodGet, "/appointments?name=nobody", nil, c)
	assert.Contains(t, rec.Body.String(), "No appointments found")
	assert.Equal(t, 1, e.api.listCalls)

	e.do(http.MethodGet, "/appointments?refresh=1", nil, c)
	assert.Equal(t, 2, e.api.listCalls)
}

func TestAllAppointmentsFetchFailure(t *testing.T) {
	e := newEnv(t, nil)
	e.api.listErr = &apiclient.StatusError{Method: http.MethodGet, Path: "/appointments", StatusCode: http.StatusInternalServerError}

	rec := e.do(http.MethodGet, "/appointments", nil, e.sessionCookie(t))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch appointments.")
}

func TestExpiredTokenEndsSession(t *testing.T) {
	e := newEnv(t, nil)
	e.api.listErr = &apiclient.StatusError{Method: http.MethodGet, Path: "/appointments", StatusCode: http.StatusUnauthorized}

	rec := e.do(http.MethodGet, "/appointments", nil, e.sessionCookie(t))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=%2Fappointments", rec.Header().Get("Location"))
	cleared := cookieNamed(rec, session.DefaultCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestMyAppointmentsEmptyState(t *testing.T) {
	e := newEnv(t, nil)
	e.api.appts = nil

	rec := e.do(http.MethodGet, "/appointments/me", nil, e.sessionCookie(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No Puppy Appointments Yet!")
}

func TestDetailAndEditAccess(t *testing.T) {
	e := newEnv(t, nil)
	c := e.sessionCookie(t)

	rec := e.do(http.MethodGet, "/appointments/1", nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/appointments/edit/1")
	assert.Contains(t, rec.Body.String(), `<a href="/appointments">Back</a>`)

	rec = e.do(http.MethodGet, "/appointments/1?back=/appointments/me", nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/appointments/me">Back</a>`)

	rec = e.do(http.MethodGet, "/appointments/2", nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/appointments/edit/2")

	rec = e.do(http.MethodGet, "/appointments/404", nil, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not exist")

	rec = e.do(http.MethodGet, "/appointments/edit/404", nil, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodGet, "/appointments/edit/2", nil, c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "You are not authorized to perform this action.")

	rec = e.do(http.MethodGet, "/appointments/edit/1", nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Rex"`)
}

func TestAvailableTimesJSON(t *testing.T) {
	e := newEnv(t, nil)
	c := e.sessionCookie(t)

	rec := e.do(http.MethodGet, "/appointments/available-times?petSize=Medium&appointmentDate=2026-05-03", nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Slots []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Slots, 2)
	assert.Equal(t, "2026-05-03T06:00:00Z", body.Slots[0].Value)
	assert.Equal(t, "09:00", body.Slots[0].Label)

	rec = e.do(http.MethodGet, "/appointments/available-times?petSize=Huge&appointmentDate=2026-05-03", nil, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(http.MethodGet, "/appointments/available-times?petSize=Small&appointmentDate=soon", nil, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func bookingForm(nonce, petName, at string) url.Values {
	return url.Values{
		"nonce":           {nonce},
		"petName":         {petName},
		"petSize":         {"Medium"},
		"appointmentDate": {"2026-05-03"},
		"appointmentTime": {at},
	}
}

func TestCreateAppointment(t *testing.T) {
	e := newEnv(t, nil)
	c := e.sessionCookie(t)
	e.do(http.MethodGet, "/appointments/me", nil, c)

	rec := e.do(http.MethodPost, "/appointments/new", bookingForm("n-1", "Rex", "2026-05-03T07:00:00Z"), c)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/appointments/me", rec.Header().Get("Location"))
	require.Len(t, e.api.created, 1)
	assert.Equal(t, 60, e.api.created[0].Duration)
	assert.True(t, e.api.created[0].AppointmentTime.Equal(time.Date(2026, 5, 3, 7, 0, 0, 0, time.UTC)))
	require.Len(t, e.events.events, 1)
	assert.Equal(t, activity.AppointmentBooked, e.events.events[0].typ)
	assert.Equal(t, "appointment-99", e.events.events[0].key)

	again := e.do(http.MethodPost, "/appointments/new", bookingForm("n-1", "Rex", "2026-05-03T07:00:00Z"), c)
	assert.Equal(t, http.StatusSeeOther, again.Code)
	assert.Len(t, e.api.created, 1)
}

func TestCreateAppointmentInvalidMakesNoCall(t *testing.T) {
	cases := map[string]struct {
		form url.Values
		want string
	}{
		"empty name": {form: bookingForm("n-2a", "", "2026-05-03T07:00:00Z"), want: "Pet name is required"},
		"one char":   {form: bookingForm("n-2b", "R", "2026-05-03T07:00:00Z"), want: "Pet name must be at least 2 characters"},
		"past date": {
			form: url.Values{
				"nonce":           {"n-2c"},
				"petName":         {"Rex"},
				"petSize":         {"Medium"},
				"appointmentDate": {"2026-04-30"},
				"appointmentTime": {"2026-04-30T07:00:00Z"},
			},
			want: "Please select a future date",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, nil)
			rec := e.do(http.MethodPost, "/appointments/new", tc.form, e.sessionCookie(t))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
			assert.Zero(t, e.api.slotCalls, "no availability lookup")
			assert.Empty(t, e.api.created)
		})
	}
}

func TestCreateAppointmentTimeNotOffered(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodPost, "/appointments/new", bookingForm("n-2d", "Rex", "2026-05-03T08:30:00Z"), e.sessionCookie(t))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please select an appointment time")
	assert.Equal(t, 1, e.api.slotCalls)
	assert.Empty(t, e.api.created)
}

func TestCreateAppointmentUpstreamFailure(t *testing.T) {
	e := newEnv(t, nil)
	e.api.createErr = &apiclient.StatusError{Method: http.MethodPost, Path: "/appointments/create", StatusCode: http.StatusConflict}

	rec := e.do(http.MethodPost, "/appointments/new", bookingForm("n-3", "Rex", "2026-05-03T07:00:00Z"), e.sessionCookie(t))
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Failed to book the appointment.")
	assert.Contains(t, body, `value="Rex"`)
}

func TestUpdateKeepsOwnSlot(t *testing.T) {
	e := newEnv(t, nil)
	e.api.slots = nil
	form := url.Values{
		"nonce":           {"n-4"},
		"petName":         {"Rexy"},
		"petSize":         {"Small"},
		"appointmentDate": {"2026-05-03"},
		"appointmentTime": {"2026-05-03T07:00:00Z"},
	}

	rec := e.do(http.MethodPost, "/appointments/edit/1", form, e.sessionCookie(t))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Contains(t, e.api.updated, int64(1))
	assert.Equal(t, "Rexy", e.api.updated[1].PetName)
	assert.Equal(t, 30, e.api.updated[1].Duration)
}

func TestCancelRestoresRowOnFailure(t *testing.T) {
	e := newEnv(t, nil)
	c := e.sessionCookie(t)
	e.do(http.MethodGet, "/appointments", nil, c)

	e.api.cancelErr = &apiclient.StatusError{Method: http.MethodDelete, Path: "/appointments/1", StatusCode: http.StatusInternalServerError}
	rec := e.do(http.MethodDelete, "/appointments/1", nil, c)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = e.do(http.MethodGet, "/appointments", nil, c)
	assert.Contains(t, rec.Body.String(), "Rex")

	e.api.cancelErr = nil
	rec = e.do(http.MethodDelete, "/appointments/1", nil, c)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{1}, e.api.cancelled)

	rec = e.do(http.MethodGet, "/appointments", nil, c)
	assert.NotContains(t, rec.Body.String(), "Rex")
	assert.Equal(t, 1, e.api.listCalls)
	require.Len(t, e.events.events, 1)
	assert.Equal(t, activity.AppointmentCancelled, e.events.events[0].typ)
}

func TestCancelFormRedirectsBack(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(http.MethodPost, "/appointments/1/cancel", url.Values{"back": {"/appointments/me"}}, e.sessionCookie(t))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/appointments/me", rec.Header().Get("Location"))
	assert.Equal(t, []int64{1}, e.api.cancelled)
	assert.NotNil(t, cookieNamed(rec, "groombook_flash"))
}

func TestProfileOutageKeepsSession(t *testing.T) {
	e := newEnv(t, nil)
	e.api.meErr = &apiclient.StatusError{Method: http.MethodGet, Path: "/customers/me", StatusCode: http.StatusInternalServerError}

	rec := e.do(http.MethodGet, "/", nil, e.sessionCookie(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "We could not load your profile right now.")
	assert.Nil(t, cookieNamed(rec, session.DefaultCookieName))
}
