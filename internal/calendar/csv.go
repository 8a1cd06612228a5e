package calendar

import (
	"strings"

	"github.com/kosen-tools/gyouji-cal/internal/event"
)

// CSVHeader is the column row understood by calendar import tools.
const CSVHeader = "Subject,Start Date,End Date,All Day Event"

// RenderCSV renders one row per event after the header. Nil events produce
// no row. Labels are written as-is, commas included.
func RenderCSV(events []*event.Canonical) string {
	var b strings.Builder
	b.WriteString(CSVHeader)

	for _, evt := range events {
		if evt == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(evt.Label)
		b.WriteString(",")
		b.WriteString(evt.StartDate())
		b.WriteString(",")
		b.WriteString(evt.EndDate())
		b.WriteString(",True")
	}

	return b.String()
}
