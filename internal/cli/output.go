package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kosen-tools/gyouji-cal/internal/calendar"
	"github.com/kosen-tools/gyouji-cal/internal/event"
	"github.com/kosen-tools/gyouji-cal/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatCSV  OutputFormat = "csv"
	FormatICal OutputFormat = "ical"
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// OutputOptions tunes the iCalendar output.
type OutputOptions struct {
	Strict       bool
	ProdID       string
	CalendarName string
	Timezone     string
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *pipeline.Result, format OutputFormat, opts OutputOptions) error {
	switch format {
	case FormatCSV:
		_, err := io.WriteString(w, result.CSV())
		return err
	case FormatICal:
		return writeICal(w, result, opts)
	case FormatJSON:
		return writeJSON(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeICal(w io.Writer, result *pipeline.Result, opts OutputOptions) error {
	if !opts.Strict {
		_, err := io.WriteString(w, result.ICal(opts.ProdID))
		return err
	}

	_, err := io.WriteString(w, result.StrictICal(calendar.StrictOptions{
		ProdID:   opts.ProdID,
		Name:     opts.CalendarName,
		Timezone: opts.Timezone,
	}))
	return err
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// DiffReport contains the data written by the diff command
type DiffReport struct {
	CheckedAt   time.Time `json:"checked_at"`
	Source      string    `json:"source"`
	PreviousAt  string    `json:"previous_at,omitempty"`
	Recorded    int       `json:"recorded"`
	ChangeCount int       `json:"change_count"`
	*event.DiffResult
}

// WriteDiff writes a diff report as text or JSON
func WriteDiff(w io.Writer, report *DiffReport, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeDiffText(w, report)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeDiffText outputs the changes as human-readable text
func writeDiffText(w io.Writer, report *DiffReport) error {
	if report.PreviousAt == "" {
		fmt.Fprintf(w, "No previous snapshot; %d events recorded.\n", report.Recorded)
		return nil
	}

	if report.ChangeCount == 0 {
		fmt.Fprintln(w, "No changes found.")
		return nil
	}

	for _, evt := range report.Added {
		fmt.Fprintf(w, "NEW:     %s\n", describe(evt))
	}
	for _, mv := range report.Moved {
		fmt.Fprintf(w, "MOVED:   %s -> %s\n", describe(mv.From), span(mv.To))
	}
	for _, evt := range report.Removed {
		fmt.Fprintf(w, "REMOVED: %s\n", describe(evt))
	}

	fmt.Fprintf(w, "\nTotal: %d changes since %s\n", report.ChangeCount, report.PreviousAt)
	return nil
}

func describe(evt *event.Canonical) string {
	return evt.Label + " " + span(evt)
}

func span(evt *event.Canonical) string {
	if evt.StartDate() == evt.EndDate() {
		return evt.StartDate()
	}
	return evt.StartDate() + "..." + evt.EndDate()
}
