package era

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownEra          = errors.New("unknown era")
	ErrEraNotStarted       = errors.New("era has not started")
	ErrInvalidRelativeYear = errors.New("relative year out of range")
)

// jst is the zone era boundaries are defined in.
var jst = time.FixedZone("Asia/Tokyo", 9*60*60)

// Era is one entry of the era table.
type Era struct {
	Name    string   // kanji name, e.g. 令和
	Aliases []string // romanized or abbreviated names
	Begins  time.Time
	EndYear int // last Gregorian year of the era, 0 if still current
}

// Year is an era-relative year as written on a page, e.g. 令和6.
type Year struct {
	Name     string `json:"name"`
	Relative int    `json:"relative"`
}

func (y Year) String() string {
	if y.Relative == 1 {
		return y.Name + "元年"
	}
	return fmt.Sprintf("%s%d年", y.Name, y.Relative)
}

// Table maps era names to Gregorian spans. Eras must be ordered by start.
type Table struct {
	Version string
	Eras    []Era
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, jst)
}

// Default is the modern era table.
var Default = &Table{
	Version: "2019-05-01",
	Eras: []Era{
		{Name: "明治", Aliases: []string{"Meiji", "M"}, Begins: date(1868, time.October, 23), EndYear: 1912},
		{Name: "大正", Aliases: []string{"Taisho", "T"}, Begins: date(1912, time.July, 30), EndYear: 1926},
		{Name: "昭和", Aliases: []string{"Showa", "S"}, Begins: date(1926, time.December, 25), EndYear: 1989},
		{Name: "平成", Aliases: []string{"Heisei", "H"}, Begins: date(1989, time.January, 8), EndYear: 2019},
		{Name: "令和", Aliases: []string{"Reiwa", "R"}, Begins: date(2019, time.May, 1)},
	},
}

// Lookup finds an era by kanji name or alias. Aliases match case-insensitively.
func (t *Table) Lookup(name string) (Era, bool) {
	name = strings.TrimSpace(name)
	for _, e := range t.Eras {
		if e.Name == name {
			return e, true
		}
		for _, a := range e.Aliases {
			if strings.EqualFold(a, name) {
				return e, true
			}
		}
	}
	return Era{}, false
}

// Current returns the era in effect at now and now's relative year within it.
// ok is false when now precedes every era in the table.
func (t *Table) Current(now time.Time) (e Era, relative int, ok bool) {
	now = now.In(jst)
	for i := len(t.Eras) - 1; i >= 0; i-- {
		if !t.Eras[i].Begins.After(now) {
			e = t.Eras[i]
			return e, now.Year() - e.Begins.Year() + 1, true
		}
	}
	return Era{}, 0, false
}

// ResolveBaseYear converts an era-relative year to a Gregorian year as seen
// from today. For the era current at today the result is counted back from
// today's own year; for earlier eras it is the era's first year plus the offset.
func (t *Table) ResolveBaseYear(name string, relative int, today time.Time) (int, error) {
	e, ok := t.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEra, name)
	}
	if e.Begins.After(today.In(jst)) {
		return 0, fmt.Errorf("%w: %s begins %s", ErrEraNotStarted, e.Name, e.Begins.Format("2006-01-02"))
	}

	first := e.Begins.Year()
	if relative < 1 || (e.EndYear != 0 && first+relative-1 > e.EndYear) {
		return 0, fmt.Errorf("%w: %s %d", ErrInvalidRelativeYear, e.Name, relative)
	}

	if cur, curRel, ok := t.Current(today); ok && cur.Name == e.Name {
		return today.In(jst).Year() - (curRel - relative), nil
	}
	return first + relative - 1, nil
}

// ResolveBaseYear resolves y against the Default table.
func ResolveBaseYear(y Year, today time.Time) (int, error) {
	return Default.ResolveBaseYear(y.Name, y.Relative, today)
}

// FiscalYear returns the calendar year of a month in the school year that
// starts in April of base. January to March belong to the following year.
func FiscalYear(month string, base int) int {
	switch month {
	case "01", "02", "03":
		return base + 1
	}
	return base
}
