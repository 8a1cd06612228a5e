package event

import (
	"fmt"
	"strconv"

	"github.com/kosen-tools/gyouji-cal/internal/era"
)

// Normalize turns a raw listing item into a canonical event using the
// document's base year. It returns nil when the expression is unrecognized,
// spans two explicit months, names a month outside 1..12 or would end before
// it starts.
func Normalize(raw RawEvent, base int) *Canonical {
	return NormalizeClassified(raw, Classify(raw.Expression), base)
}

// NormalizeClassified is Normalize for an expression that was already classified.
//
// Day arithmetic is not calendar aware: "30日～31日" ends on day "32", which
// both output formats accept as written.
func NormalizeClassified(raw RawEvent, c Classification, base int) *Canonical {
	month := padMonth(raw.Month)
	if month == "" {
		return nil
	}

	var (
		startMonth, endMonth = month, month
		startDay, endDay     int
	)

	switch c.Shape {
	case ShapeDayToDayMonth:
		startDay = c.Day1
		endMonth, endDay = padMonth(strconv.Itoa(c.Month2)), c.Day2+1
		if endMonth == "" {
			return nil
		}
	case ShapeDayRange:
		startDay, endDay = c.Day1, c.Day2+1
	case ShapeSingleDay:
		startDay, endDay = c.Day1, c.Day1
	case ShapeDayMonthToDayMonth, ShapeUnrecognized:
		return nil
	default:
		return nil
	}

	evt := &Canonical{
		Label:      raw.Label,
		StartYear:  era.FiscalYear(startMonth, base),
		StartMonth: startMonth,
		StartDay:   pad(startDay),
		EndYear:    era.FiscalYear(endMonth, base),
		EndMonth:   endMonth,
		EndDay:     pad(endDay),
	}
	if evt.endsBeforeStart() {
		return nil
	}
	return evt
}

// NormalizeAll normalizes every item, keeping positions: dropped items are nil.
func NormalizeAll(raws []RawEvent, base int) []*Canonical {
	out := make([]*Canonical, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw, base)
	}
	return out
}

func (c *Canonical) endsBeforeStart() bool {
	sm, _ := strconv.Atoi(c.StartMonth)
	sd, _ := strconv.Atoi(c.StartDay)
	em, _ := strconv.Atoi(c.EndMonth)
	ed, _ := strconv.Atoi(c.EndDay)

	if c.StartYear != c.EndYear {
		return c.EndYear < c.StartYear
	}
	if sm != em {
		return em < sm
	}
	return ed < sd
}

func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}

// padMonth accepts "4" or "04" and returns "04"; anything else is "".
func padMonth(m string) string {
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 || n > 12 {
		return ""
	}
	return pad(n)
}
