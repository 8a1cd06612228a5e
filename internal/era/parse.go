package era

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/kosen-tools/gyouji-cal/internal/textnorm"
)

var ErrNoEraYear = errors.New("no era year found")

// Parse finds the first era year in text using the Default table.
func Parse(text string) (Year, error) {
	return Default.Parse(text)
}

// Parse finds the first era year in text, such as "令和6年度" or "平成元年".
// Text is width-folded first so full-width digits are accepted.
func (t *Table) Parse(text string) (Year, error) {
	names := make([]string, 0, len(t.Eras))
	for _, e := range t.Eras {
		names = append(names, regexp.QuoteMeta(e.Name))
	}
	pattern := regexp.MustCompile(`(` + strings.Join(names, "|") + `)\s*(元|\d{1,2})\s*年`)

	m := pattern.FindStringSubmatch(textnorm.Fold(text))
	if m == nil {
		return Year{}, ErrNoEraYear
	}

	rel := 1
	if m[2] != "元" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Year{}, ErrNoEraYear
		}
		rel = n
	}
	return Year{Name: m[1], Relative: rel}, nil
}
