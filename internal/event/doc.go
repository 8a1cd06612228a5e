// Package event classifies the free-text date expressions found on school
// event calendars and normalizes them into dated, all-day events.
//
// A listing item such as "20日(月)～22日(水) 前期末試験" under the 1月 heading
// arrives as a RawEvent. Classify decides which of four fixed shapes the date
// expression has, and Normalize combines that with the document's base year
// into a Canonical event whose end date is exclusive. Expressions that match
// no shape, and ranges written across two explicit months, yield no event.
//
// Snapshot and Diff compare the events of two builds so changes to the
// published calendar can be reported between runs.
package event
