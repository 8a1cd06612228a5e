package event

import (
	"fmt"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		raw       RawEvent
		base      int
		wantNil   bool
		wantStart string
		wantEnd   string
	}{
		{
			name:      "single day in april",
			raw:       RawEvent{Month: "04", Expression: "10日", Label: "入学式"},
			base:      2024,
			wantStart: "2024-04-10",
			wantEnd:   "2024-04-10",
		},
		{
			name:      "day range in january rolls over",
			raw:       RawEvent{Month: "01", Expression: "20日～22日", Label: "試験"},
			base:      2024,
			wantStart: "2025-01-20",
			wantEnd:   "2025-01-23",
		},
		{
			name:      "single day in february",
			raw:       RawEvent{Month: "02", Expression: "10日", Label: "学年末試験"},
			base:      2024,
			wantStart: "2025-02-10",
			wantEnd:   "2025-02-10",
		},
		{
			name:      "winter break crosses the year",
			raw:       RawEvent{Month: "12", Expression: "26日(木)～1月7日(火)", Label: "冬季休業"},
			base:      2024,
			wantStart: "2024-12-26",
			wantEnd:   "2025-01-08",
		},
		{
			name:    "end month past december",
			raw:     RawEvent{Month: "04", Expression: "28日～13月2日", Label: "連休"},
			base:    2024,
			wantNil: true,
		},
		{
			name:    "end month zero",
			raw:     RawEvent{Month: "04", Expression: "28日～0月2日", Label: "連休"},
			base:    2024,
			wantNil: true,
		},
		{
			name:      "day to day month within the year",
			raw:       RawEvent{Month: "07", Expression: "29日～8月2日", Label: "前期末試験"},
			base:      2024,
			wantStart: "2024-07-29",
			wantEnd:   "2024-08-03",
		},
		{
			name:      "end day is not calendar aware",
			raw:       RawEvent{Month: "05", Expression: "30日～31日", Label: "高専祭"},
			base:      2024,
			wantStart: "2024-05-30",
			wantEnd:   "2024-05-32",
		},
		{
			name:      "unpadded month",
			raw:       RawEvent{Month: "4", Expression: "5日", Label: "始業式"},
			base:      2024,
			wantStart: "2024-04-05",
			wantEnd:   "2024-04-05",
		},
		{
			name:    "two explicit months dropped",
			raw:     RawEvent{Month: "04", Expression: "4月28日～5月6日", Label: "連休"},
			base:    2024,
			wantNil: true,
		},
		{
			name:    "unrecognized dropped",
			raw:     RawEvent{Month: "10", Expression: "未定", Label: "遠足"},
			base:    2024,
			wantNil: true,
		},
		{
			name:    "spring break ends before it starts",
			raw:     RawEvent{Month: "03", Expression: "25日～4月5日", Label: "春季休業"},
			base:    2024,
			wantNil: true,
		},
		{
			name:    "inverted day range",
			raw:     RawEvent{Month: "05", Expression: "30日～2日", Label: "誤記"},
			base:    2024,
			wantNil: true,
		},
		{
			name:    "invalid month",
			raw:     RawEvent{Month: "13", Expression: "10日", Label: "x"},
			base:    2024,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.base)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Normalize() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Normalize() = nil, want event")
			}
			if got.Label != tt.raw.Label {
				t.Errorf("Label = %q, want %q", got.Label, tt.raw.Label)
			}
			if got.StartDate() != tt.wantStart {
				t.Errorf("StartDate() = %q, want %q", got.StartDate(), tt.wantStart)
			}
			if got.EndDate() != tt.wantEnd {
				t.Errorf("EndDate() = %q, want %q", got.EndDate(), tt.wantEnd)
			}
		})
	}
}

func TestNormalize_SingleDayOutsideRollover(t *testing.T) {
	for m := 4; m <= 12; m++ {
		for d := 1; d <= 31; d++ {
			month := fmt.Sprintf("%02d", m)
			got := Normalize(RawEvent{Month: month, Expression: fmt.Sprintf("%d日", d), Label: "x"}, 2024)
			want := fmt.Sprintf("2024-%s-%02d", month, d)
			if got == nil {
				t.Fatalf("Normalize(%s, %d日) = nil", month, d)
			}
			if got.StartDate() != want || got.EndDate() != want {
				t.Errorf("Normalize(%s, %d日) = %s..%s, want %s..%s", month, d, got.StartDate(), got.EndDate(), want, want)
			}
		}
	}
}

func TestNormalize_DayRangeEndIsExclusive(t *testing.T) {
	for _, month := range []string{"01", "04", "09", "12"} {
		for d1 := 1; d1 <= 28; d1 += 3 {
			d2 := d1 + 2
			got := Normalize(RawEvent{Month: month, Expression: fmt.Sprintf("%d日～%d日", d1, d2)}, 2024)
			if got == nil {
				t.Fatalf("Normalize(%s, %d日～%d日) = nil", month, d1, d2)
			}
			if got.EndDay != fmt.Sprintf("%02d", d2+1) {
				t.Errorf("EndDay = %q, want %02d", got.EndDay, d2+1)
			}
			if got.StartMonth != month || got.EndMonth != month {
				t.Errorf("months = %s/%s, want %s", got.StartMonth, got.EndMonth, month)
			}
		}
	}
}

func TestNormalize_CrossBoundaryYears(t *testing.T) {
	got := Normalize(RawEvent{Month: "12", Expression: "20日～1月10日"}, 2030)
	if got == nil {
		t.Fatal("Normalize() = nil")
	}
	if got.StartYear != 2030 || got.EndYear != 2031 {
		t.Errorf("years = %d/%d, want 2030/2031", got.StartYear, got.EndYear)
	}
}

func TestNormalizeAll_KeepsPositions(t *testing.T) {
	raws := []RawEvent{
		{Month: "04", Expression: "8日", Label: "始業式"},
		{Month: "04", Expression: "4月28日～5月6日", Label: "連休"},
		{Month: "05", Expression: "1日～2日", Label: "健康診断"},
	}

	got := NormalizeAll(raws, 2024)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] == nil || got[0].Label != "始業式" {
		t.Errorf("got[0] = %+v, want 始業式", got[0])
	}
	if got[1] != nil {
		t.Errorf("got[1] = %+v, want nil", got[1])
	}
	if got[2] == nil || got[2].Label != "健康診断" {
		t.Errorf("got[2] = %+v, want 健康診断", got[2])
	}
}
