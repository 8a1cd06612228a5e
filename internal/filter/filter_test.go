package filter

import (
	"net/url"
	"testing"

	"github.com/kosen-tools/gyouji-cal/internal/event"
)

func ev(label string, sy int, sm, sd string, ey int, em, ed string) *event.Canonical {
	return &event.Canonical{Label: label, StartYear: sy, StartMonth: sm, StartDay: sd, EndYear: ey, EndMonth: em, EndDay: ed}
}

var (
	entrance = ev("入学式", 2024, "04", "08", 2024, "04", "08")
	midterm  = ev("前期中間試験", 2024, "06", "10", 2024, "06", "13")
	winter   = ev("冬季休業", 2024, "12", "26", 2025, "01", "08")
	makeup   = ev("補講日", 2025, "01", "31", 2025, "01", "31")
	overflow = ev("高専祭", 2024, "05", "30", 2024, "05", "32")
)

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		rng    string
		labels []string
		evt    *event.Canonical
		want   bool
	}{
		{name: "empty filter", evt: entrance, want: true},
		{name: "single day inside", rng: "2024-04", evt: entrance, want: true},
		{name: "single day outside", rng: "2024-05", evt: entrance, want: false},
		{name: "range overlapping start", rng: "2024-12-01..2024-12-26", evt: winter, want: true},
		{name: "range overlapping last day", rng: "2025-01-07..", evt: winter, want: true},
		{name: "exclusive end is not a day of the event", rng: "2025-01-08..", evt: winter, want: false},
		{name: "open start", rng: "..2024-04-07", evt: entrance, want: false},
		{name: "overflowing end day normalizes", rng: "2024-05-31", evt: overflow, want: true},
		{name: "overflowing end day stays exclusive", rng: "2024-06-01", evt: overflow, want: false},
		{name: "label substring", labels: []string{"試験"}, evt: midterm, want: true},
		{name: "label miss", labels: []string{"試験"}, evt: entrance, want: false},
		{name: "any label", labels: []string{"休業", "補講"}, evt: makeup, want: true},
		{name: "full width query", labels: []string{"ｼｹﾝ", "補講"}, evt: makeup, want: true},
		{name: "range and label", rng: "2024-10..2025-03", labels: []string{"試験"}, evt: midterm, want: false},
		{name: "nil event", evt: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.rng, tt.labels)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := f.Matches(tt.evt); got != tt.want {
				t.Errorf("Matches() = %v, want %v (filter: %s)", got, tt.want, f)
			}
		})
	}
}

func TestFilterApply(t *testing.T) {
	events := []*event.Canonical{entrance, midterm, winter, makeup}

	t.Run("empty filter returns input", func(t *testing.T) {
		got := NewFilter().Apply(events)
		if len(got) != len(events) {
			t.Errorf("Apply() returned %d events, want %d", len(got), len(events))
		}
	})

	t.Run("second term keeps order", func(t *testing.T) {
		f, err := New("2024-10..2025-03", nil)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		got := f.Apply(events)
		if len(got) != 2 || got[0] != winter || got[1] != makeup {
			t.Errorf("Apply() = %v, want [冬季休業 補講日]", got)
		}
	})
}

func TestFilterApplyDiff(t *testing.T) {
	moved := ev("入学式", 2024, "04", "09", 2024, "04", "09")
	diff := &event.DiffResult{
		Added:   []*event.Canonical{midterm, makeup},
		Removed: []*event.Canonical{winter},
		Moved:   []event.Move{{From: entrance, To: moved}},
	}

	tests := []struct {
		name        string
		rng         string
		labels      []string
		wantAdded   int
		wantRemoved int
		wantMoved   int
	}{
		{name: "empty filter", wantAdded: 2, wantRemoved: 1, wantMoved: 1},
		{name: "second term", rng: "2024-10..2025-03", wantAdded: 1, wantRemoved: 1},
		{name: "move matched by new date", rng: "2024-04-09", wantMoved: 1},
		{name: "move matched by old date", rng: "2024-04-08", wantMoved: 1},
		{name: "label", labels: []string{"試験"}, wantAdded: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.rng, tt.labels)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got := f.ApplyDiff(diff)
			if len(got.Added) != tt.wantAdded || len(got.Removed) != tt.wantRemoved || len(got.Moved) != tt.wantMoved {
				t.Errorf("ApplyDiff() = %d added, %d removed, %d moved; want %d, %d, %d",
					len(got.Added), len(got.Removed), len(got.Moved), tt.wantAdded, tt.wantRemoved, tt.wantMoved)
			}
		})
	}
}

func TestFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("range", "2024-06")
	q.Add("q", "試験")
	q.Add("q", "")

	f, err := FromQuery(q)
	if err != nil {
		t.Fatalf("FromQuery() error = %v", err)
	}
	if len(f.Labels) != 1 {
		t.Errorf("Labels = %v, want one non-empty label", f.Labels)
	}
	if want := "From: 2024-06-01 | To: 2024-06-30 | Labels: 試験"; f.String() != want {
		t.Errorf("String() = %q, want %q", f.String(), want)
	}

	if _, err := FromQuery(url.Values{"range": {"soon"}}); err == nil {
		t.Error("FromQuery() with bad range: error = nil")
	}
	if f, _ := FromQuery(url.Values{}); !f.IsEmpty() {
		t.Error("FromQuery() without parameters should be empty")
	}
}

func TestFilterString(t *testing.T) {
	if got := NewFilter().String(); got != "No active filters" {
		t.Errorf("String() = %q", got)
	}
}
