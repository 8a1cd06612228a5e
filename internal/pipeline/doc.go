// Package pipeline turns a collected calendar page into normalized events.
//
// Run is pure given its inputs: it resolves the page's era year against an
// injected reference time, classifies and normalizes every item, and returns
// either a complete Result or an error. There is no partial success, so the
// serializers only ever see a full event set.
package pipeline
