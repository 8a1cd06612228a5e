package era

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestResolveBaseYear(t *testing.T) {
	today := day(2024, time.October, 1)

	tests := []struct {
		name     string
		era      string
		relative int
		today    time.Time
		want     int
		wantErr  error
	}{
		{name: "current era current year", era: "令和", relative: 6, today: today, want: 2024},
		{name: "current era first year", era: "令和", relative: 1, today: today, want: 2019},
		{name: "current era next year", era: "令和", relative: 7, today: today, want: 2025},
		{name: "romanized alias", era: "reiwa", relative: 6, today: today, want: 2024},
		{name: "previous era", era: "平成", relative: 30, today: today, want: 2018},
		{name: "previous era last year", era: "平成", relative: 31, today: today, want: 2019},
		{name: "showa", era: "昭和", relative: 64, today: today, want: 1989},
		{name: "previous era beyond end", era: "平成", relative: 32, today: today, wantErr: ErrInvalidRelativeYear},
		{name: "zero relative year", era: "令和", relative: 0, today: today, wantErr: ErrInvalidRelativeYear},
		{name: "unknown era", era: "慶応", relative: 3, today: today, wantErr: ErrUnknownEra},
		{name: "era not yet started", era: "令和", relative: 1, today: day(2019, time.April, 1), wantErr: ErrEraNotStarted},
		{name: "heisei seen from heisei", era: "平成", relative: 30, today: day(2018, time.June, 1), want: 2018},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Default.ResolveBaseYear(tt.era, tt.relative, tt.today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveBaseYear() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveBaseYear() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveBaseYear(%s, %d) = %d, want %d", tt.era, tt.relative, got, tt.want)
			}
		})
	}
}

func TestResolveBaseYear_Package(t *testing.T) {
	got, err := ResolveBaseYear(Year{Name: "令和", Relative: 6}, day(2025, time.February, 10))
	if err != nil {
		t.Fatalf("ResolveBaseYear() error = %v", err)
	}
	if got != 2024 {
		t.Errorf("ResolveBaseYear() = %d, want 2024", got)
	}
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantEra string
		wantRel int
		wantOK  bool
	}{
		{"last day of heisei", time.Date(2019, time.April, 30, 23, 0, 0, 0, jst), "平成", 31, true},
		{"first day of reiwa", time.Date(2019, time.May, 1, 0, 0, 0, 0, jst), "令和", 1, true},
		{"utc evening is next day in japan", time.Date(2019, time.April, 30, 16, 0, 0, 0, time.UTC), "令和", 1, true},
		{"reiwa 6", day(2024, time.December, 31), "令和", 6, true},
		{"before meiji", day(1800, time.January, 1), "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rel, ok := Default.Current(tt.now)
			if ok != tt.wantOK {
				t.Fatalf("Current() ok = %v, want %v", ok, tt.wantOK)
			}
			if e.Name != tt.wantEra || rel != tt.wantRel {
				t.Errorf("Current() = %s %d, want %s %d", e.Name, rel, tt.wantEra, tt.wantRel)
			}
		})
	}
}

func TestFiscalYear(t *testing.T) {
	tests := []struct {
		month string
		want  int
	}{
		{"01", 2025},
		{"02", 2025},
		{"03", 2025},
		{"04", 2024},
		{"10", 2024},
		{"12", 2024},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			if got := FiscalYear(tt.month, 2024); got != tt.want {
				t.Errorf("FiscalYear(%q, 2024) = %d, want %d", tt.month, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Year
		wantErr bool
	}{
		{name: "fiscal year heading", text: "令和6年度 行事予定", want: Year{"令和", 6}},
		{name: "first year", text: "令和元年度　年間行事", want: Year{"令和", 1}},
		{name: "fullwidth digits", text: "令和６年度", want: Year{"令和", 6}},
		{name: "spaced", text: "平成 31 年度", want: Year{"平成", 31}},
		{name: "first match wins", text: "令和5年度 (令和6年3月更新)", want: Year{"令和", 5}},
		{name: "gregorian only", text: "2024年度 行事予定", wantErr: true},
		{name: "empty", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrNoEraYear) {
					t.Errorf("Parse(%q) error = %v, want ErrNoEraYear", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestYear_String(t *testing.T) {
	if got := (Year{"令和", 1}).String(); got != "令和元年" {
		t.Errorf("String() = %q, want 令和元年", got)
	}
	if got := (Year{"令和", 6}).String(); got != "令和6年" {
		t.Errorf("String() = %q, want 令和6年", got)
	}
}
