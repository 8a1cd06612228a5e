package calendar

import (
	"fmt"
	"strings"

	"github.com/kosen-tools/gyouji-cal/internal/event"
)

// DefaultProdID identifies this tool in generated feeds.
const DefaultProdID = "-//kosen-tools//gyouji-cal//JA"

// RenderICal renders a VCALENDAR with one VEVENT per non-nil event.
// Dropped events are filtered before emission, so the output never holds an
// empty VEVENT block.
func RenderICal(events []*event.Canonical, prodID string) string {
	if prodID == "" {
		prodID = DefaultProdID
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\n")
	ics.WriteString("VERSION:2.0\n")
	ics.WriteString(fmt.Sprintf("PRODID:%s\n", prodID))

	for _, evt := range events {
		if evt == nil {
			continue
		}
		ics.WriteString("BEGIN:VEVENT\n")
		ics.WriteString(fmt.Sprintf("SUMMARY:%s\n", evt.Label))
		ics.WriteString(fmt.Sprintf("DTSTART:%s\n", formatICalDate(evt.StartYear, evt.StartMonth, evt.StartDay)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\n", formatICalDate(evt.EndYear, evt.EndMonth, evt.EndDay)))
		ics.WriteString("END:VEVENT\n")
	}

	ics.WriteString("END:VCALENDAR")
	return ics.String()
}

// formatICalDate renders YYYYMMDD from already padded month and day.
func formatICalDate(year int, month, day string) string {
	return fmt.Sprintf("%04d%s%s", year, month, day)
}
