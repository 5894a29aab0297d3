// Package table filters, sorts and pages appointment lists for display.
package table

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	"github.com/md-rashed-zaman/groombook/libs/grooming"
)

type Column string

const (
	ColumnCustomer Column = "customerName"
	ColumnPet      Column = "petName"
	ColumnTime     Column = "appointmentTime"
	ColumnDuration Column = "groomingDuration"
)

var Columns = []Column{ColumnCustomer, ColumnPet, ColumnTime, ColumnDuration}

func (c Column) Valid() bool { return slices.Contains(Columns, c) }

type Dir string

const (
	None Dir = ""
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

type Sort struct {
	Column Column
	Dir    Dir
}

// Toggle is the result of clicking column's header: the active column cycles
// asc, desc, unsorted; any other column starts ascending.
func (s Sort) Toggle(column Column) Sort {
	if s.Column != column || s.Dir == None {
		return Sort{Column: column, Dir: Asc}
	}
	if s.Dir == Asc {
		return Sort{Column: column, Dir: Desc}
	}
	return Sort{}
}

func (s Sort) Active() bool { return s.Column.Valid() && (s.Dir == Asc || s.Dir == Desc) }

// Filter keeps appointments whose customer name contains Name and whose calendar
// date falls within [Start, End]. Nil bounds are open.
type Filter struct {
	Name  string
	Start *time.Time
	End   *time.Time
}

func (f Filter) Match(a grooming.Appointment, loc *time.Location) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(a.CustomerName), strings.ToLower(f.Name)) {
		return false
	}
	day := grooming.StartOfDay(a.AppointmentTime, loc)
	if f.Start != nil && day.Before(grooming.StartOfDay(*f.Start, loc)) {
		return false
	}
	if f.End != nil && day.After(grooming.StartOfDay(*f.End, loc)) {
		return false
	}
	return true
}

var PageSizes = []int{5, 10, 25, 50}

const DefaultPageSize = 10

type Page struct {
	Index int
	Size  int
}

func NormalizeSize(n int) int {
	if slices.Contains(PageSizes, n) {
		return n
	}
	return DefaultPageSize
}

type View struct {
	Rows      []grooming.Appointment
	Total     int
	Page      Page
	PageCount int
	// First and Last are the 1-based positions of the shown rows.
	First, Last int
	Empty       bool
}

// Build applies the filter, then the sort, then the page. The page index is
// clamped so a shrinking result never shows an empty page past the end.
func Build(items []grooming.Appointment, f Filter, s Sort, p Page, loc *time.Location) View {
	rows := make([]grooming.Appointment, 0, len(items))
	for _, a := range items {
		if f.Match(a, loc) {
			rows = append(rows, a)
		}
	}
	if s.Active() {
		SortRows(rows, s)
	}

	p.Size = NormalizeSize(p.Size)
	pageCount := max(1, (len(rows)+p.Size-1)/p.Size)
	p.Index = min(max(p.Index, 0), pageCount-1)

	start := p.Index * p.Size
	end := min(start+p.Size, len(rows))
	v := View{
		Rows:      rows[start:end],
		Total:     len(rows),
		Page:      p,
		PageCount: pageCount,
		Empty:     len(rows) == 0,
	}
	if !v.Empty {
		v.First, v.Last = start+1, end
	}
	return v
}

// SortRows orders rows in place. Equal rows keep their relative order.
func SortRows(rows []grooming.Appointment, s Sort) {
	compare := comparator(s.Column)
	if compare == nil {
		return
	}
	slices.SortStableFunc(rows, func(a, b grooming.Appointment) int {
		if s.Dir == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func comparator(c Column) func(a, b grooming.Appointment) int {
	switch c {
	case ColumnCustomer:
		return func(a, b grooming.Appointment) int { return NaturalCompare(a.CustomerName, b.CustomerName) }
	case ColumnPet:
		return func(a, b grooming.Appointment) int { return NaturalCompare(a.PetName, b.PetName) }
	case ColumnTime:
		return func(a, b grooming.Appointment) int { return a.AppointmentTime.Compare(b.AppointmentTime) }
	case ColumnDuration:
		return func(a, b grooming.Appointment) int { return cmp.Compare(a.GroomingDuration, b.GroomingDuration) }
	default:
		return nil
	}
}

// NaturalCompare orders strings case-insensitively with digit runs compared by
// value, so "Rex 2" sorts before "Rex 10".
func NaturalCompare(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	default:
		return 0
	}
}
