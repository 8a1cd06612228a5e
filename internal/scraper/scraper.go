package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kosen-tools/gyouji-cal/internal/era"
	"github.com/kosen-tools/gyouji-cal/internal/event"
	"github.com/kosen-tools/gyouji-cal/internal/textnorm"
)

const (
	DefaultMonthSelector = "h2, h3, h4, caption"
	DefaultItemSelector  = "li, tr"
)

// Document is the collected content of one calendar page.
type Document struct {
	SourceURL string
	Title     string
	Year      era.Year
	HasYear   bool
	Events    []event.RawEvent // document order
}

// MonthGroup is the items listed under one month, in document order.
type MonthGroup struct {
	Month string
	Items []event.RawEvent
}

// Months groups the events by month, ordered by first appearance. A month
// heading that appears twice contributes to a single group.
func (d *Document) Months() []MonthGroup {
	index := make(map[string]int)
	groups := make([]MonthGroup, 0, 12)
	for _, evt := range d.Events {
		i, ok := index[evt.Month]
		if !ok {
			i = len(groups)
			index[evt.Month] = i
			groups = append(groups, MonthGroup{Month: evt.Month})
		}
		groups[i].Items = append(groups[i].Items, evt)
	}
	return groups
}

var (
	monthPattern = regexp.MustCompile(`^(\d{1,2})\s*月`)

	// leading date expression of a list item, e.g. "20日(月)~22日(水)"
	weekdayPart = `(?:\s*\([月火水木金土日祝・]+\))?`
	datePart    = `\d+(?:月\d+)?日` + weekdayPart
	itemPattern = regexp.MustCompile(`^(` + datePart + `(?:\s*[~～〜]\s*` + datePart + `)?)\s*(.*)$`)
)

// Parse collects a UTF-8 calendar page. A page without an era year is not an
// error here; HasYear reports it and the pipeline decides.
func (s *Scraper) Parse(r io.Reader, sourceURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	out := &Document{
		SourceURL: sourceURL,
		Title:     textnorm.Fold(doc.Find("title").First().Text()),
		Events:    make([]event.RawEvent, 0),
	}
	out.Year, out.HasYear = findYear(doc)

	month := ""
	doc.Find(s.monthSelector + ", " + s.itemSelector).Each(func(_ int, sel *goquery.Selection) {
		if sel.Is(s.monthSelector) {
			if m, ok := parseMonth(sel.Text()); ok {
				month = m
				return
			}
		}
		if month == "" || !sel.Is(s.itemSelector) {
			return
		}
		// containers such as an <li> wrapping a nested list
		if sel.Find(s.itemSelector).Length() > 0 {
			return
		}

		expr, label, ok := splitItem(sel)
		if !ok {
			return
		}
		out.Events = append(out.Events, event.RawEvent{
			Month:      month,
			Expression: expr,
			Label:      label,
		})
	})

	return out, nil
}

// findYear looks for an era year in the title, then headings, then the body.
func findYear(doc *goquery.Document) (era.Year, bool) {
	for _, selector := range []string{"title", "h1, h2, h3, caption", "body"} {
		if y, err := era.Parse(doc.Find(selector).Text()); err == nil {
			return y, true
		}
	}
	return era.Year{}, false
}

// parseMonth reads a heading such as "4月" or "１２月 (December)".
func parseMonth(text string) (string, bool) {
	m := monthPattern.FindStringSubmatch(textnorm.Fold(text))
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 12 {
		return "", false
	}
	return fmt.Sprintf("%02d", n), true
}

// splitItem separates a listing item into its date expression and label.
// Table rows use the first cell as the expression and the remaining cells as
// the label; other elements are split after the leading date expression.
func splitItem(sel *goquery.Selection) (expr, label string, ok bool) {
	cells := sel.ChildrenFiltered("td, th")
	if cells.Length() >= 2 {
		expr = textnorm.Fold(cells.First().Text())
		rest := make([]string, 0, cells.Length()-1)
		cells.Slice(1, cells.Length()).Each(func(_ int, c *goquery.Selection) {
			if t := textnorm.Fold(c.Text()); t != "" {
				rest = append(rest, t)
			}
		})
		label = strings.Join(rest, " ")
		return expr, label, expr != "" || label != ""
	}

	text := textnorm.Fold(sel.Text())
	if text == "" {
		return "", "", false
	}
	if m := itemPattern.FindStringSubmatch(text); m != nil {
		return m[1], m[2], true
	}
	return text, "", true
}
