package calendar

import (
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/kosen-tools/gyouji-cal/internal/event"
)

// StrictOptions configures RenderStrictICal.
type StrictOptions struct {
	ProdID    string
	Name      string    // X-WR-CALNAME, omitted when empty
	Timezone  string    // X-WR-TIMEZONE, omitted when empty
	UIDDomain string    // right-hand side of each UID
	Stamp     time.Time // DTSTAMP for every event
}

// RenderStrictICal renders an RFC 5545 feed: CRLF lines, escaped text,
// VALUE=DATE start and end, and a stable UID per event.
//
// Unlike RenderICal, dates are normalized through time.Date so an end day
// past the month length rolls into the next month, and single-day events end
// on the following day.
func RenderStrictICal(events []*event.Canonical, opts StrictOptions) string {
	if opts.ProdID == "" {
		opts.ProdID = DefaultProdID
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = "gyouji-cal"
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now().UTC()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProdID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}

	for _, evt := range events {
		if evt == nil {
			continue
		}
		start := toDate(evt.StartYear, evt.StartMonth, evt.StartDay)
		end := toDate(evt.EndYear, evt.EndMonth, evt.EndDay)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}

		ve := cal.AddEvent(evt.ID() + "@" + opts.UIDDomain)
		ve.SetDtStampTime(opts.Stamp)
		ve.SetSummary(evt.Label)
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(end)
	}

	return cal.Serialize(ical.WithNewLineWindows)
}

func toDate(year int, month, day string) time.Time {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
