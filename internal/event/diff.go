package event

import (
	"sort"
	"time"
)

// Snapshot is the event set of one build, kept between runs.
type Snapshot struct {
	Events    map[string]*Canonical `json:"events"`     // keyed by Canonical.ID
	UpdatedAt string                `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Events: make(map[string]*Canonical),
	}
}

// CreateSnapshot creates a snapshot from a list of events
func CreateSnapshot(events []*Canonical, updatedAt time.Time) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	for _, evt := range events {
		if evt != nil {
			snap.Events[evt.ID()] = evt
		}
	}
	return snap
}

// Move is an event whose dates changed while its label stayed the same.
type Move struct {
	From *Canonical `json:"from"`
	To   *Canonical `json:"to"`
}

// DiffResult lists what changed between a snapshot and the current events.
type DiffResult struct {
	Added   []*Canonical `json:"added"`
	Removed []*Canonical `json:"removed"`
	Moved   []Move       `json:"moved"`
}

// Empty reports whether nothing changed.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0
}

// Diff compares current events against a previous snapshot. An added and a
// removed event sharing a label are reported as one move; labels that repeat
// are paired in date order. All lists are sorted by start date.
func Diff(previous *Snapshot, current []*Canonical) *DiffResult {
	if previous == nil {
		previous = NewSnapshot()
	}

	seen := make(map[string]bool, len(current))
	var added, removed []*Canonical
	for _, evt := range current {
		if evt == nil {
			continue
		}
		id := evt.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, exists := previous.Events[id]; !exists {
			added = append(added, evt)
		}
	}
	for id, evt := range previous.Events {
		if !seen[id] {
			removed = append(removed, evt)
		}
	}
	sortByDate(added)
	sortByDate(removed)

	result := &DiffResult{
		Added:   make([]*Canonical, 0),
		Removed: make([]*Canonical, 0),
		Moved:   make([]Move, 0),
	}

	paired := make(map[*Canonical]bool)
	for _, to := range added {
		for _, from := range removed {
			if !paired[from] && from.Label == to.Label {
				paired[from] = true
				paired[to] = true
				result.Moved = append(result.Moved, Move{From: from, To: to})
				break
			}
		}
	}
	for _, evt := range added {
		if !paired[evt] {
			result.Added = append(result.Added, evt)
		}
	}
	for _, evt := range removed {
		if !paired[evt] {
			result.Removed = append(result.Removed, evt)
		}
	}

	return result
}

func sortByDate(events []*Canonical) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].StartDate(), events[j].StartDate()
		if a != b {
			return a < b
		}
		return events[i].Label < events[j].Label
	})
}
