// Package stub is an in-memory grooming API for local development and tests.
package stub

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/tools/api-stub/internal/availability"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken  = errors.New("username already registered")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrNotFound       = errors.New("appointment not found")
	ErrForbidden      = errors.New("appointment belongs to another customer")
	ErrConflict       = errors.New("time slot is not available")
)

type customer struct {
	user grooming.User
	hash []byte
}

type Store struct {
	mu           sync.RWMutex
	customers    map[int64]*customer
	byUsername   map[string]int64
	appointments map[int64]grooming.Appointment
	lastCustomer int64
	lastAppt     int64

	hours      availability.Hours
	loc        *time.Location
	now        func() time.Time
	bcryptCost int
}

func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		customers:    map[int64]*customer{},
		byUsername:   map[string]int64{},
		appointments: map[int64]grooming.Appointment{},
		hours:        availability.DefaultHours,
		loc:          loc,
		now:          time.Now,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

func (s *Store) Register(reg grooming.Registration) (grooming.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return grooming.User{}, err
	}
	key := strings.ToLower(reg.Username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[key]; taken {
		return grooming.User{}, ErrUsernameTaken
	}
	s.lastCustomer++
	c := &customer{
		user: grooming.User{ID: s.lastCustomer, FullName: reg.FullName, Username: reg.Username},
		hash: hash,
	}
	s.customers[c.user.ID] = c
	s.byUsername[key] = c.user.ID
	return c.user, nil
}

func (s *Store) Authenticate(creds grooming.Credentials) (grooming.User, error) {
	s.mu.RLock()
	id, ok := s.byUsername[strings.ToLower(creds.Username)]
	var c *customer
	if ok {
		c = s.customers[id]
	}
	s.mu.RUnlock()
	if c == nil {
		return grooming.User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(creds.Password)); err != nil {
		return grooming.User{}, ErrBadCredentials
	}
	return c.user, nil
}

func (s *Store) Customer(id int64) (grooming.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return grooming.User{}, false
	}
	return c.user, true
}

// withName fills in the owner's name, which is not stored on the appointment.
func (s *Store) withName(a grooming.Appointment) grooming.Appointment {
	if c, ok := s.customers[a.CustomerID]; ok {
		a.CustomerName = c.user.FullName
	}
	return a
}

func (s *Store) Get(id int64) (grooming.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return grooming.Appointment{}, ErrNotFound
	}
	return s.withName(a), nil
}

// List returns appointments starting within [from, to], ordered by time. Nil bounds are open.
func (s *Store) List(from, to *time.Time) []grooming.Appointment {
	return s.filter(func(a grooming.Appointment) bool {
		if from != nil && a.AppointmentTime.Before(*from) {
			return false
		}
		return to == nil || !a.AppointmentTime.After(*to)
	})
}

func (s *Store) Mine(customerID int64) []grooming.Appointment {
	return s.filter(func(a grooming.Appointment) bool { return a.CustomerID == customerID })
}

func (s *Store) filter(keep func(grooming.Appointment) bool) []grooming.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]grooming.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, s.withName(a))
		}
	}
	slices.SortFunc(out, func(a, b grooming.Appointment) int {
		if c := a.AppointmentTime.Compare(b.AppointmentTime); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out
}

// busy lists every booked interval except the one with id skip.
func (s *Store) busy(skip int64) []availability.Interval {
	out := make([]availability.Interval, 0, len(s.appointments))
	for id, a := range s.appointments {
		if id == skip {
			continue
		}
		out = append(out, availability.Interval{Start: a.AppointmentTime, End: a.End()})
	}
	return out
}

// Available lists the free starts on date's calendar day for a grooming of duration minutes.
func (s *Store) Available(date time.Time, duration int) []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	free := s.hours.ForDay(date, s.loc, time.Duration(duration)*time.Minute, s.busy(0), s.now())
	slots := make([]time.Time, 0, len(free))
	for _, t := range free {
		slots = append(slots, t.UTC())
	}
	return slots
}

// fits checks req against opening hours and every other booking. Callers hold the lock.
func (s *Store) fits(req grooming.AppointmentRequest, skip int64) bool {
	iv := availability.Interval{
		Start: req.AppointmentTime,
		End:   req.AppointmentTime.Add(time.Duration(req.Duration) * time.Minute),
	}
	if !s.hours.Contains(iv, s.loc) {
		return false
	}
	for _, b := range s.busy(skip) {
		if iv.Overlaps(b) {
			return false
		}
	}
	return true
}

func (s *Store) Create(customerID int64, req grooming.AppointmentRequest) (grooming.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fits(req, 0) {
		return grooming.Appointment{}, ErrConflict
	}
	s.lastAppt++
	a := grooming.Appointment{
		ID:               s.lastAppt,
		CustomerID:       customerID,
		PetName:          req.PetName,
		PetSize:          req.PetSize,
		AppointmentTime:  req.AppointmentTime.UTC(),
		GroomingDuration: req.Duration,
		CreatedAt:        s.now().UTC(),
	}
	s.appointments[a.ID] = a
	return s.withName(a), nil
}

func (s *Store) Update(customerID, id int64, req grooming.AppointmentRequest) (grooming.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return grooming.Appointment{}, ErrNotFound
	}
	if a.CustomerID != customerID {
		return grooming.Appointment{}, ErrForbidden
	}
	if !s.fits(req, id) {
		return grooming.Appointment{}, ErrConflict
	}
	a.PetName = req.PetName
	a.PetSize = req.PetSize
	a.AppointmentTime = req.AppointmentTime.UTC()
	a.GroomingDuration = req.Duration
	s.appointments[id] = a
	return s.withName(a), nil
}

func (s *Store) Delete(customerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return ErrNotFound
	}
	if a.CustomerID != customerID {
		return ErrForbidden
	}
	delete(s.appointments, id)
	return nil
}
