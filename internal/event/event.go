package event

import (
	"crypto/sha1"
	"fmt"
)

// RawEvent is one listed item under a month heading, in document order.
type RawEvent struct {
	Month      string `json:"month"` // "01".."12"
	Expression string `json:"expression"`
	Label      string `json:"label"`
}

// Canonical is a normalized all-day event. Month and day fields are zero
// padded; EndDay is exclusive except for single-day events, where the end
// equals the start.
type Canonical struct {
	Label      string `json:"label"`
	StartYear  int    `json:"start_year"`
	StartMonth string `json:"start_month"`
	StartDay   string `json:"start_day"`
	EndYear    int    `json:"end_year"`
	EndMonth   string `json:"end_month"`
	EndDay     string `json:"end_day"`
}

// StartDate formats the start as YYYY-MM-DD.
func (c *Canonical) StartDate() string {
	return fmt.Sprintf("%d-%s-%s", c.StartYear, c.StartMonth, c.StartDay)
}

// EndDate formats the exclusive end as YYYY-MM-DD.
func (c *Canonical) EndDate() string {
	return fmt.Sprintf("%d-%s-%s", c.EndYear, c.EndMonth, c.EndDay)
}

// ID returns a deterministic identifier derived from the label and dates.
func (c *Canonical) ID() string {
	return GenerateID(c.Label, c.StartDate(), c.EndDate())
}

// GenerateID hashes the fields that identify an event.
func GenerateID(label, start, end string) string {
	h := sha1.New()
	h.Write([]byte(label + "|" + start + "|" + end))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Dedupe drops nil entries and repeated events, keeping the first occurrence
// so document order is preserved.
func Dedupe(events []*Canonical) []*Canonical {
	seen := make(map[string]bool)
	unique := make([]*Canonical, 0, len(events))
	for _, evt := range events {
		if evt == nil {
			continue
		}
		id := evt.ID()
		if !seen[id] {
			seen[id] = true
			unique = append(unique, evt)
		}
	}
	return unique
}

// Count returns the number of non-nil events.
func Count(events []*Canonical) int {
	n := 0
	for _, evt := range events {
		if evt != nil {
			n++
		}
	}
	return n
}
