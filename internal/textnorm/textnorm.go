// Package textnorm folds full-width and half-width characters to their
// canonical width so that Japanese page text can be matched with ASCII
// patterns.
//
// Full-width digits, Latin letters, punctuation and the ideographic space are
// mapped to ASCII, while half-width katakana are widened. The wave dash
// (U+301C) has no narrow form and is left untouched.
package textnorm

import (
	"strings"

	"golang.org/x/text/width"
)

// Fold maps s to canonical width and collapses runs of whitespace into a
// single space, trimming both ends.
func Fold(s string) string {
	return strings.Join(strings.Fields(width.Fold.String(s)), " ")
}
