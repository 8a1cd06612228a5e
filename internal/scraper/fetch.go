package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/kosen-tools/gyouji-cal/internal/logger"
	"github.com/kosen-tools/gyouji-cal/internal/storage"
)

const (
	DefaultUserAgent = "gyouji-cal/1.0 (+https://github.com/kosen-tools/gyouji-cal)"
	Timeout          = 30 * time.Second

	maxBodySize = 8 << 20
)

// Scraper handles fetching and parsing a calendar page
type Scraper struct {
	client        *http.Client
	url           string
	userAgent     string
	monthSelector string
	itemSelector  string
	cache         *storage.Storage
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithClient replaces the HTTP client, e.g. to change the timeout.
func WithClient(c *http.Client) Option {
	return func(s *Scraper) { s.client = c }
}

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithSelectors overrides the month heading and item selectors. Empty
// values keep the defaults.
func WithSelectors(month, item string) Option {
	return func(s *Scraper) {
		if month != "" {
			s.monthSelector = month
		}
		if item != "" {
			s.itemSelector = item
		}
	}
}

// WithCache enables conditional requests backed by a page store.
func WithCache(st *storage.Storage) Option {
	return func(s *Scraper) { s.cache = st }
}

// New creates a Scraper for the page at url.
func New(url string, opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:           url,
		userAgent:     DefaultUserAgent,
		monthSelector: DefaultMonthSelector,
		itemSelector:  DefaultItemSelector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page the scraper reads.
func (s *Scraper) URL() string {
	return s.url
}

// Fetch downloads, decodes and parses the page.
func (s *Scraper) Fetch(ctx context.Context) (*Document, error) {
	body, contentType, err := s.fetchBody(ctx)
	if err != nil {
		return nil, err
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}
	return s.Parse(r, s.url)
}

// fetchBody performs the GET, sending validators from the cache when one is
// configured. A stored body is only reused on 304; network errors and other
// status codes are returned as errors.
func (s *Scraper) fetchBody(ctx context.Context) ([]byte, string, error) {
	var cached *storage.Page
	if s.cache != nil {
		page, err := s.cache.LoadPage(s.url)
		if err != nil {
			logger.Warn("page cache unreadable", logger.Fields{"source": s.url, "error": err.Error()})
		}
		cached = page
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	if cached != nil {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	logger.RecordTiming("scraper.fetch", time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, "", fmt.Errorf("reading page: %w", err)
		}
		contentType := resp.Header.Get("Content-Type")

		if s.cache != nil {
			err := s.cache.SavePage(&storage.Page{
				URL:          s.url,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
				ContentType:  contentType,
				FetchedAt:    time.Now().UTC(),
				Body:         body,
			})
			if err != nil {
				logger.Warn("page cache save failed", logger.Fields{"source": s.url, "error": err.Error()})
			}
		}

		logger.Debug("page fetched", logger.Fields{"source": s.url, "bytes": len(body)})
		return body, contentType, nil

	case http.StatusNotModified:
		if cached == nil {
			return nil, "", fmt.Errorf("received 304 Not Modified without a cached page")
		}
		logger.Debug("page not modified, using cache", logger.Fields{"source": s.url})
		return cached.Body, cached.ContentType, nil

	default:
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
