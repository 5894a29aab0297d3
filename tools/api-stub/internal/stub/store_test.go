package stub

import (
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"golang.org/x/crypto/bcrypt"
)

var (
	testNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	day     = time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
)

func newTestStore() *Store {
	s := NewStore(time.UTC)
	s.now = func() time.Time { return testNow }
	s.bcryptCost = bcrypt.MinCost
	return s
}

func mustRegister(t *testing.T, s *Store, username, fullName string) grooming.User {
	t.Helper()
	u, err := s.Register(grooming.Registration{Username: username, Password: "pw-" + username, FullName: fullName})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := newTestStore()
	u := mustRegister(t, s, "dana", "Dana Levi")
	if u.ID != 1 {
		t.Fatalf("expected id 1, got %d", u.ID)
	}

	if _, err := s.Register(grooming.Registration{Username: "DANA", Password: "x", FullName: "Other"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	got, err := s.Authenticate(grooming.Credentials{Username: "Dana", Password: "pw-dana"})
	if err != nil || got.ID != u.ID {
		t.Fatalf("authenticate: %+v %v", got, err)
	}
	if _, err := s.Authenticate(grooming.Credentials{Username: "dana", Password: "wrong"}); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for a wrong password, got %v", err)
	}
	if _, err := s.Authenticate(grooming.Credentials{Username: "nobody", Password: "x"}); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for an unknown user, got %v", err)
	}
}

func TestCreateRejectsOverlapAndClosedHours(t *testing.T) {
	s := newTestStore()
	owner := mustRegister(t, s, "dana", "Dana Levi")

	first, err := s.Create(owner.ID, grooming.NewAppointmentRequest("Rex", grooming.Medium, day.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.CustomerName != "Dana Levi" || first.GroomingDuration != 60 {
		t.Fatalf("unexpected appointment: %+v", first)
	}

	overlap := grooming.NewAppointmentRequest("Bella", grooming.Small, day.Add(10*time.Hour+30*time.Minute))
	if _, err := s.Create(owner.ID, overlap); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for an overlap, got %v", err)
	}
	late := grooming.NewAppointmentRequest("Bella", grooming.Large, day.Add(16*time.Hour))
	if _, err := s.Create(owner.ID, late); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict past closing, got %v", err)
	}
	adjacent := grooming.NewAppointmentRequest("Bella", grooming.Small, day.Add(11*time.Hour))
	if _, err := s.Create(owner.ID, adjacent); err != nil {
		t.Fatalf("back-to-back booking should fit: %v", err)
	}
}

func TestUpdateKeepsOwnSlotAndChecksOwner(t *testing.T) {
	s := newTestStore()
	owner := mustRegister(t, s, "dana", "Dana Levi")
	other := mustRegister(t, s, "omer", "Omer Cohen")

	a, err := s.Create(owner.ID, grooming.NewAppointmentRequest("Rex", grooming.Medium, day.Add(10*time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Shifting by half an hour overlaps only the appointment itself.
	req := grooming.NewAppointmentRequest("Rexy", grooming.Medium, day.Add(10*time.Hour+30*time.Minute))
	updated, err := s.Update(owner.ID, a.ID, req)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PetName != "Rexy" || !updated.AppointmentTime.Equal(req.AppointmentTime) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := s.Update(other.ID, a.ID, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := s.Update(owner.ID, 99, req); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(other.ID, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	if err := s.Delete(owner.ID, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAvailableExcludesBookings(t *testing.T) {
	s := newTestStore()
	owner := mustRegister(t, s, "dana", "Dana Levi")
	if _, err := s.Create(owner.ID, grooming.NewAppointmentRequest("Rex", grooming.Medium, day.Add(9*time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}

	slots := s.Available(day, 30)
	// 09:00 to 16:30 in half hours is 16 starts; the booking takes 09:00 and 09:30.
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d: %v", len(slots), slots)
	}
	if !slots[0].Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("expected first slot 10:00, got %s", slots[0])
	}
	if slots[0].Location() != time.UTC {
		t.Fatalf("expected UTC slots, got %s", slots[0].Location())
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	s := newTestStore()
	dana := mustRegister(t, s, "dana", "Dana Levi")
	omer := mustRegister(t, s, "omer", "Omer Cohen")

	next := day.AddDate(0, 0, 1)
	mustCreate := func(customer int64, name string, at time.Time) {
		t.Helper()
		if _, err := s.Create(customer, grooming.NewAppointmentRequest(name, grooming.Small, at)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	mustCreate(dana.ID, "Late", next.Add(12*time.Hour))
	mustCreate(omer.ID, "Early", day.Add(9*time.Hour))
	mustCreate(dana.ID, "Middle", day.Add(15*time.Hour))

	all := s.List(nil, nil)
	if len(all) != 3 || all[0].PetName != "Early" || all[2].PetName != "Late" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if all[0].CustomerName != "Omer Cohen" {
		t.Fatalf("expected owner name on listed appointment, got %q", all[0].CustomerName)
	}

	from, to := day, day.Add(23*time.Hour)
	if got := s.List(&from, &to); len(got) != 2 {
		t.Fatalf("expected 2 appointments on the day, got %d", len(got))
	}
	if got := s.Mine(dana.ID); len(got) != 2 || got[0].PetName != "Middle" {
		t.Fatalf("unexpected own appointments: %+v", got)
	}
}
