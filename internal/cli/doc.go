// Package cli implements the command-line interface for gyouji-cal.
//
// The cli package provides the Cobra-based CLI: export writes the calendar
// as CSV, iCalendar or JSON; serve runs the HTTP feed server; classify shows
// how individual date expressions are read. It loads configuration and wires
// the scraper, page cache, pipeline and web packages together.
package cli
