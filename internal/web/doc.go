// Package web serves the built calendar over HTTP.
//
// Routes:
//
//	GET /csv          spreadsheet import table (text/csv)
//	GET /ical         iCalendar feed (text/calendar); ?strict=1 for RFC 5545
//	GET /events.json  normalized events with build stats
//	GET /health       liveness plus a metrics snapshot
//
// The feed routes accept range (e.g. 2024-10..2025-03) and q (label
// substring, repeatable) to narrow the calendar.
//
// Every response carries Access-Control-Allow-Origin: * so the feeds can be
// read from browser calendar widgets. Any other path or method gets a plain
// "Not found" 404.
//
// Built calendars are kept in memory for the configured TTL and can also be
// rebuilt on a cron schedule.
package web
