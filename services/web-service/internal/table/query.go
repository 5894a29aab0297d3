package table

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// State is the table's position as carried in the query string.
type State struct {
	Name  string
	Start string
	End   string
	Sort  Sort
	Page  Page
}

func ParseState(q url.Values) State {
	s := State{
		Name:  strings.TrimSpace(q.Get("name")),
		Start: validDate(q.Get("start")),
		End:   validDate(q.Get("end")),
		Sort:  Sort{Column: Column(q.Get("sort")), Dir: Dir(q.Get("dir"))},
	}
	if !s.Sort.Active() {
		s.Sort = Sort{}
	}
	s.Page.Index, _ = strconv.Atoi(q.Get("page"))
	if s.Page.Index < 0 {
		s.Page.Index = 0
	}
	size, _ := strconv.Atoi(q.Get("size"))
	s.Page.Size = NormalizeSize(size)
	return s
}

func validDate(raw string) string {
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return ""
	}
	return raw
}

// Filter resolves the date bounds in loc.
func (s State) Filter(loc *time.Location) Filter {
	f := Filter{Name: s.Name}
	if t, err := time.ParseInLocation(DateLayout, s.Start, loc); err == nil {
		f.Start = &t
	}
	if t, err := time.ParseInLocation(DateLayout, s.End, loc); err == nil {
		f.End = &t
	}
	return f
}

func (s State) Values() url.Values {
	q := url.Values{}
	if s.Name != "" {
		q.Set("name", s.Name)
	}
	if s.Start != "" {
		q.Set("start", s.Start)
	}
	if s.End != "" {
		q.Set("end", s.End)
	}
	if s.Sort.Active() {
		q.Set("sort", string(s.Sort.Column))
		q.Set("dir", string(s.Sort.Dir))
	}
	if s.Page.Index > 0 {
		q.Set("page", strconv.Itoa(s.Page.Index))
	}
	if s.Page.Size != DefaultPageSize && s.Page.Size != 0 {
		q.Set("size", strconv.Itoa(s.Page.Size))
	}
	return q
}

func (s State) href(path string) string {
	if enc := s.Values().Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// SortHref links to the state after clicking column's header.
func (s State) SortHref(path string, column Column) string {
	s.Sort = s.Sort.Toggle(column)
	return s.href(path)
}

func (s State) PageHref(path string, index int) string {
	s.Page.Index = index
	return s.href(path)
}

// SizeHref changes the page size and goes back to the first page.
func (s State) SizeHref(path string, size int) string {
	s.Page = Page{Size: NormalizeSize(size)}
	return s.href(path)
}

// ResetHref clears the name and date filters, keeping sort and page size.
func (s State) ResetHref(path string) string {
	return State{Sort: s.Sort, Page: Page{Size: s.Page.Size}}.href(path)
}

// SortIndicator is the arrow shown next to column's header.
func (s State) SortIndicator(column Column) string {
	if s.Sort.Column != column {
		return ""
	}
	switch s.Sort.Dir {
	case Asc:
		return "▲"
	case Desc:
		return "▼"
	default:
		return ""
	}
}
