package textnorm

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii unchanged", "10日", "10日"},
		{"fullwidth digits", "１０日", "10日"},
		{"fullwidth tilde", "２０日～２２日", "20日~22日"},
		{"fullwidth parens", "１０日（水）", "10日(水)"},
		{"ideographic space", "１０日　入学式", "10日 入学式"},
		{"halfwidth katakana widened", "ｶﾅ", "カナ"},
		{"whitespace collapsed", "  4月  \n 5日 ", "4月 5日"},
		{"wave dash kept", "1日〜3日", "1日〜3日"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
