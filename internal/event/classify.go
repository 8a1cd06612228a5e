package event

import (
	"regexp"
	"strconv"

	"github.com/kosen-tools/gyouji-cal/internal/textnorm"
)

// Shape identifies which date expression form matched.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	// "4月28日～5月6日": both ends carry an explicit month.
	ShapeDayMonthToDayMonth
	// "28日～5月6日": start in the heading month, end with its own month.
	ShapeDayToDayMonth
	// "20日～22日": both ends in the heading month.
	ShapeDayRange
	// "10日"
	ShapeSingleDay
)

func (s Shape) String() string {
	switch s {
	case ShapeDayMonthToDayMonth:
		return "DayMonthToDayMonth"
	case ShapeDayToDayMonth:
		return "DayToDayMonth"
	case ShapeDayRange:
		return "DayRange"
	case ShapeSingleDay:
		return "SingleDay"
	default:
		return "Unrecognized"
	}
}

// Classification is the result of Classify. Numeric fields are the values
// as written; fields a shape does not use are zero.
type Classification struct {
	Shape  Shape `json:"shape"`
	Month1 int   `json:"month1,omitempty"`
	Day1   int   `json:"day1,omitempty"`
	Month2 int   `json:"month2,omitempty"`
	Day2   int   `json:"day2,omitempty"`
}

type matcher struct {
	shape   Shape
	pattern *regexp.Regexp
	build   func(n []int) Classification
}

// tilde accepts the ASCII tilde, the full-width tilde and the wave dash.
const tilde = `[~～〜]\s*`

// matchers are tried in order and the first match wins. Matching is
// unanchored, so the two-month form must come first or its tail would be
// read as a DayToDayMonth.
var matchers = []matcher{
	{
		shape:   ShapeDayMonthToDayMonth,
		pattern: regexp.MustCompile(`(\d+)月(\d+)日.*` + tilde + `(\d+)月(\d+)日`),
		build: func(n []int) Classification {
			return Classification{Month1: n[0], Day1: n[1], Month2: n[2], Day2: n[3]}
		},
	},
	{
		shape:   ShapeDayToDayMonth,
		pattern: regexp.MustCompile(`(\d+)日.*` + tilde + `(\d+)月(\d+)日`),
		build: func(n []int) Classification {
			return Classification{Day1: n[0], Month2: n[1], Day2: n[2]}
		},
	},
	{
		shape:   ShapeDayRange,
		pattern: regexp.MustCompile(`(\d+)日.*` + tilde + `(\d+)日`),
		build: func(n []int) Classification {
			return Classification{Day1: n[0], Day2: n[1]}
		},
	},
	{
		shape:   ShapeSingleDay,
		pattern: regexp.MustCompile(`(\d+)日`),
		build: func(n []int) Classification {
			return Classification{Day1: n[0]}
		},
	},
}

// Classify determines the shape of a date expression and extracts its
// numbers. It never fails: empty or unmatched input is ShapeUnrecognized.
func Classify(expr string) Classification {
	expr = textnorm.Fold(expr)
	if expr == "" {
		return Classification{}
	}

	for _, m := range matchers {
		sub := m.pattern.FindStringSubmatch(expr)
		if sub == nil {
			continue
		}
		nums := make([]int, 0, len(sub)-1)
		for _, s := range sub[1:] {
			n, err := strconv.Atoi(s)
			if err != nil {
				// only reachable on absurdly long digit runs
				return Classification{}
			}
			nums = append(nums, n)
		}
		c := m.build(nums)
		c.Shape = m.shape
		return c
	}
	return Classification{}
}
