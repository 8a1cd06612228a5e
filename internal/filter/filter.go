// Package filter narrows a calendar down to the events a reader cares about.
//
// Criteria:
//   - Date range (from/to, inclusive). An event matches when any of its days
//     falls inside the range.
//   - Labels (substring matching after width folding, case-insensitive).
//     An event matches when its label contains any of them.
//
// Example usage:
//
//	// Exams in the second term
//	f, err := filter.New("2024-10-01..2025-03-31", []string{"試験"})
//	if err != nil {
//	    return err
//	}
//	exams := f.Apply(events)
//
// The export command takes --range and --match; the server reads the same
// criteria from the range and q query parameters.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kosen-tools/gyouji-cal/internal/event"
	"github.com/kosen-tools/gyouji-cal/internal/textnorm"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering, both ends inclusive
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Label filtering (case-insensitive substring match)
	Labels []string `json:"labels,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Labels: []string{},
	}
}

// New builds a filter from a date range expression (see ParseDateRange) and
// label substrings. Empty arguments add no criteria.
func New(dateRange string, labels []string) (*Filter, error) {
	f := NewFilter()

	if strings.TrimSpace(dateRange) != "" {
		from, to, err := ParseDateRange(dateRange)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}

	for _, l := range labels {
		if l = textnorm.Fold(l); l != "" {
			f.Labels = append(f.Labels, l)
		}
	}

	return f, nil
}

// FromQuery reads the range and q parameters of a feed request.
func FromQuery(q url.Values) (*Filter, error) {
	return New(q.Get("range"), q["q"])
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all events.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Labels) == 0
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Canonical) bool {
	if evt == nil {
		return false
	}
	if f.IsEmpty() {
		return true
	}

	first, last := eventDays(evt)

	if f.DateFrom != nil && last.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && first.After(*f.DateTo) {
		return false
	}

	if len(f.Labels) > 0 {
		matched := false
		label := strings.ToLower(textnorm.Fold(evt.Label))
		for _, l := range f.Labels {
			if strings.Contains(label, strings.ToLower(l)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply applies the filter to a list of events and returns only matching events.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.Canonical) []*event.Canonical {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]*event.Canonical, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// ApplyDiff narrows a change report to matching events. A move is kept when
// either its old or its new dates match.
func (f *Filter) ApplyDiff(d *event.DiffResult) *event.DiffResult {
	if d == nil || f.IsEmpty() {
		return d
	}

	out := &event.DiffResult{
		Added:   f.Apply(d.Added),
		Removed: f.Apply(d.Removed),
		Moved:   make([]event.Move, 0, len(d.Moved)),
	}
	for _, m := range d.Moved {
		if f.Matches(m.From) || f.Matches(m.To) {
			out.Moved = append(out.Moved, m)
		}
	}
	return out
}

// String returns a human-readable description of the active filter criteria.
// Returns "No active filters" if the filter is empty.
// Format: "From: 2024-10-01 | To: 2025-03-31 | Labels: 試験"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("2006-01-02")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("2006-01-02")))
	}

	if len(f.Labels) > 0 {
		parts = append(parts, fmt.Sprintf("Labels: %s", strings.Join(f.Labels, ", ")))
	}

	return strings.Join(parts, " | ")
}

// eventDays returns the first and last day an event covers. The end date of
// a canonical event is exclusive unless it equals the start.
func eventDays(evt *event.Canonical) (first, last time.Time) {
	first = toDate(evt.StartYear, evt.StartMonth, evt.StartDay)
	end := toDate(evt.EndYear, evt.EndMonth, evt.EndDay)
	if end.After(first) {
		return first, end.AddDate(0, 0, -1)
	}
	return first, first
}

func toDate(year int, month, day string) time.Time {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
