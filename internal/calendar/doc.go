// Package calendar renders normalized events as a spreadsheet-importable CSV
// table and as iCalendar feeds.
//
// RenderCSV and RenderICal produce the compact formats served to existing
// subscribers: no escaping, no line folding, LF line endings. RenderStrictICal
// produces an RFC 5545 feed with UIDs and VALUE=DATE properties for clients
// that reject the compact form.
package calendar
