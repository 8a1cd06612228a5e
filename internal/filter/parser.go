package filter

import (
	"fmt"
	"strings"
	"time"
)

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats:
//   - "2024-10-01..2025-03-31" - Inclusive day range
//   - "2024-10-01.." or "..2025-03-31" - Open-ended range
//   - "2024-10..2025-03" - Whole months
//   - "2024-10" - Entire month
//   - "2024-10-01" - Single day
//
// Returns (dateFrom, dateTo, error). Times are in UTC at midnight; an open
// end is nil.
func ParseDateRange(input string) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	fromText, toText, isRange := strings.Cut(input, "..")
	if !isRange {
		from, to, err := parseBound(input)
		if err != nil {
			return nil, nil, err
		}
		return &from, &to, nil
	}

	fromText, toText = strings.TrimSpace(fromText), strings.TrimSpace(toText)
	if fromText == "" && toText == "" {
		return nil, nil, fmt.Errorf("date range needs at least one end")
	}

	var dateFrom, dateTo *time.Time
	if fromText != "" {
		from, _, err := parseBound(fromText)
		if err != nil {
			return nil, nil, err
		}
		dateFrom = &from
	}
	if toText != "" {
		_, to, err := parseBound(toText)
		if err != nil {
			return nil, nil, err
		}
		dateTo = &to
	}

	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}

	return dateFrom, dateTo, nil
}

// parseBound parses a single day or a whole month and returns the first and
// last day it covers.
func parseBound(s string) (first, last time.Time, err error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, t, nil
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, t.AddDate(0, 1, -1), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q. Use '2024-10-01', '2024-10' or a range like '2024-10-01..2025-03-31'", s)
}
