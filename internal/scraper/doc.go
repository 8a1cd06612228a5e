// Package scraper fetches a school's published event calendar page and
// collects its listing items.
//
// The page is walked in document order with two CSS selectors: one for month
// headings ("4月") and one for listing items ("10日(水) 入学式" in a list
// item, or a table row with date and event cells). Each item becomes an
// event.RawEvent tagged with the most recent month heading. The era year the
// page is written for ("令和6年度") is read from the title or headings.
//
// Pages served as Shift_JIS or EUC-JP are decoded to UTF-8 before parsing,
// and all text is width-folded so full-width digits reach the classifier as
// ASCII.
package scraper
