package label

import (
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		label string
		key   int
		ok    bool
	}{
		{"plain digits", "42", "42", 42, true},
		{"page prefix", "Page 123", "123", 123, true},
		{"pg prefix", "pg. 17", "17", 17, true},
		{"p prefix", "p. 9", "9", 9, true},
		{"lowercase roman", "iv", "iv", 4, true},
		{"uppercase roman", "XII", "XII", 12, true},
		{"dashed", "- 56 -", "56", 56, true},
		{"en-dash", "– 81 –", "81", 81, true},
		{"bracketed", "[78]", "78", 78, true},
		{"parenthesized", "(33)", "33", 33, true},
		{"out of range", "99999", "", 0, false},
		{"zero", "0", "", 0, false},
		{"no number", "no number here", "", 0, false},
		{"empty", "", "", 0, false},
		{"digits within prose", "chapter 4 continues", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, key, ok := Extract(tt.text)
			if ok != tt.ok {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if label != tt.label {
				t.Errorf("Extract(%q) label = %q, want %q", tt.text, label, tt.label)
			}
			if key != tt.key {
				t.Errorf("Extract(%q) key = %d, want %d", tt.text, key, tt.key)
			}
		})
	}
}

func TestExtract_Multiline(t *testing.T) {
	text := "THE HISTORY OF ROME\n\nIt was in the consulship of Appius\nthat the matter came before the senate.\n\n142"
	label, key, ok := Extract(text)
	if !ok {
		t.Fatal("expected a match in multi-line text")
	}
	if label != "142" || key != 142 {
		t.Errorf("got (%q, %d), want (%q, %d)", label, key, "142", 142)
	}
}

func TestExtract_LinePatternsDoNotSpanLines(t *testing.T) {
	// The digits appear mid-line, so the line-scoped classes must not
	// match; the bracketed class picks it up instead.
	label, key, ok := Extract("some heading text [204] more text")
	if !ok || label != "204" || key != 204 {
		t.Errorf("got (%q, %d, %v), want (204, 204, true)", label, key, ok)
	}
}

func TestExtract_PriorityOrder(t *testing.T) {
	// A bare-digit line beats a bracketed capture elsewhere in the text.
	label, _, ok := Extract("[9]\n7")
	if !ok || label != "7" {
		t.Errorf("got label %q, want 7 (bare-digit line has priority)", label)
	}
}

func TestExtract_RomanRoundTrip(t *testing.T) {
	for i := 1; i <= 100; i++ {
		numeral := intToRoman(i)
		for _, s := range []string{numeral, strings.ToLower(numeral)} {
			label, key, ok := Extract(s)
			if !ok {
				t.Fatalf("Extract(%q): no match", s)
			}
			if key != i {
				t.Errorf("Extract(%q) key = %d, want %d", s, key, i)
			}
			if label != s {
				t.Errorf("Extract(%q) label = %q, casing not preserved", s, label)
			}
		}
	}
}

// intToRoman builds the canonical subtractive-notation numeral for the
// round-trip table.
func intToRoman(num int) string {
	values := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	symbols := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}

	var b strings.Builder
	for i := 0; i < len(values); i++ {
		for num >= values[i] {
			num -= values[i]
			b.WriteString(symbols[i])
		}
	}
	return b.String()
}
