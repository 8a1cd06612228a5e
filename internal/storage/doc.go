// Package storage persists state between runs in a data directory.
//
// Two kinds of files are kept per source URL, keyed by a hash of the URL:
//   - the last fetched page, as a body file plus JSON metadata holding the
//     HTTP validators (ETag, Last-Modified) and content type. The scraper
//     uses it for conditional requests and reuses the body on 304.
//   - the last exported event snapshot, used by the diff command to report
//     events that were added, removed or moved since the previous run.
package storage
