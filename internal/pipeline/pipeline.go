package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kosen-tools/gyouji-cal/internal/calendar"
	"github.com/kosen-tools/gyouji-cal/internal/era"
	"github.com/kosen-tools/gyouji-cal/internal/event"
	"github.com/kosen-tools/gyouji-cal/internal/filter"
	"github.com/kosen-tools/gyouji-cal/internal/logger"
	"github.com/kosen-tools/gyouji-cal/internal/scraper"
)

var (
	// ErrMissingYearContext means the page has no usable era year, so no
	// event can be dated.
	ErrMissingYearContext = errors.New("missing year context")
	// ErrSourceUnavailable wraps any failure to retrieve the page.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Source yields a collected calendar page.
type Source interface {
	Fetch(ctx context.Context) (*scraper.Document, error)
}

// Options controls a run.
type Options struct {
	// Today is the reference moment for era resolution. Zero means now.
	Today time.Time
	// Eras defaults to era.Default.
	Eras *era.Table
	// KeepDuplicates disables removal of repeated identical events.
	KeepDuplicates bool
}

// Stats counts what happened to each collected item.
type Stats struct {
	Items        int `json:"items"`
	Events       int `json:"events"`
	Ambiguous    int `json:"ambiguous"`    // two explicit months, dropped
	Unrecognized int `json:"unrecognized"` // no shape matched
	Rejected     int `json:"rejected"`     // ends before it starts, or bad month
	Duplicates   int `json:"duplicates"`
}

// Result is a complete, normalized calendar.
type Result struct {
	SourceURL string             `json:"source_url"`
	Year      era.Year           `json:"era_year"`
	BaseYear  int                `json:"base_year"`
	Events    []*event.Canonical `json:"events"` // document order, no nils
	Stats     Stats              `json:"stats"`
	BuiltAt   time.Time          `json:"built_at"`
}

// CSV renders the result as the spreadsheet import table.
func (r *Result) CSV() string {
	return calendar.RenderCSV(r.Events)
}

// ICal renders the result as the compact iCalendar feed.
func (r *Result) ICal(prodID string) string {
	return calendar.RenderICal(r.Events, prodID)
}

// Filter returns a copy of the result holding only the events f matches.
// Stats.Events counts the kept events; the other counters are unchanged.
func (r *Result) Filter(f *filter.Filter) *Result {
	if f == nil || f.IsEmpty() {
		return r
	}
	out := *r
	out.Events = f.Apply(r.Events)
	out.Stats.Events = len(out.Events)
	return &out
}

// StrictICal renders the RFC 5545 feed. UIDs are scoped to the source host
// and DTSTAMP is the build time unless opts set them.
func (r *Result) StrictICal(opts calendar.StrictOptions) string {
	if opts.UIDDomain == "" {
		opts.UIDDomain = hostOf(r.SourceURL)
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = r.BuiltAt
	}
	return calendar.RenderStrictICal(r.Events, opts)
}

func hostOf(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Build fetches the page from src and runs the pipeline on it.
func Build(ctx context.Context, src Source, opts Options) (*Result, error) {
	doc, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return Run(doc, opts)
}

// Run normalizes a collected page.
func Run(doc *scraper.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", ErrSourceUnavailable)
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}
	if opts.Eras == nil {
		opts.Eras = era.Default
	}

	if !doc.HasYear {
		return nil, fmt.Errorf("%w: no era year on %s", ErrMissingYearContext, doc.SourceURL)
	}
	base, err := opts.Eras.ResolveBaseYear(doc.Year.Name, doc.Year.Relative, opts.Today)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingYearContext, err)
	}

	res := &Result{
		SourceURL: doc.SourceURL,
		Year:      doc.Year,
		BaseYear:  base,
		Events:    make([]*event.Canonical, 0, len(doc.Events)),
		BuiltAt:   opts.Today,
	}
	res.Stats.Items = len(doc.Events)

	for _, raw := range doc.Events {
		c := event.Classify(raw.Expression)
		evt := event.NormalizeClassified(raw, c, base)
		if evt != nil {
			res.Events = append(res.Events, evt)
			continue
		}

		switch c.Shape {
		case event.ShapeDayMonthToDayMonth:
			res.Stats.Ambiguous++
		case event.ShapeUnrecognized:
			res.Stats.Unrecognized++
			logger.Debug("unrecognized date expression", logger.Fields{
				"month":      raw.Month,
				"expression": raw.Expression,
				"label":      raw.Label,
			})
		default:
			res.Stats.Rejected++
			logger.Debug("event rejected", logger.Fields{
				"month":      raw.Month,
				"expression": raw.Expression,
				"label":      raw.Label,
			})
		}
	}

	if !opts.KeepDuplicates {
		before := len(res.Events)
		res.Events = event.Dedupe(res.Events)
		res.Stats.Duplicates = before - len(res.Events)
	}
	res.Stats.Events = len(res.Events)

	logger.Info("calendar built", logger.Fields{
		"source":       doc.SourceURL,
		"era_year":     doc.Year.String(),
		"base_year":    base,
		"items":        res.Stats.Items,
		"events":       res.Stats.Events,
		"ambiguous":    res.Stats.Ambiguous,
		"unrecognized": res.Stats.Unrecognized,
	})

	return res, nil
}
