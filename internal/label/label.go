// Package label normalizes page-number labels found in recognized page text.
// Printed folios come in many shapes ("42", "- 56 -", "Page 123", "iv",
// "[78]"); Extract reconciles them into a label token plus an integer sort
// key usable for ordering.
package label

import (
	"regexp"
	"strconv"
	"strings"
)

// maxPageNumber bounds plausible Arabic page numbers. Five-digit captures
// are almost always scanner artifacts, not folios.
const maxPageNumber = 10000

// Pattern classes in priority order. Line-scoped patterns use (?m) anchors
// so they match individual lines of multi-line OCR output; the page-prefix
// and bracketed forms match anywhere in the text.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[ \t]*(\d+)[ \t]*$`),
	regexp.MustCompile(`(?m)^[ \t]*[-\x{2013}\x{2014}][ \t]*(\d+)[ \t]*[-\x{2013}\x{2014}][ \t]*$`),
	regexp.MustCompile(`(?i)\b(?:page|pg\.?|p\.)[ \t]*(\d+)`),
	regexp.MustCompile(`(?mi)^[ \t]*([ivxlcdm]+)[ \t]*$`),
	regexp.MustCompile(`[\[(](\d+)[\])]`),
}

// Extract scans text for a page-number label. It returns the label as
// printed, its numeric sort key, and whether anything matched. A false
// result is not an error: covers, plates and blank pages carry no folio.
func Extract(text string) (label string, sortKey int, ok bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if lbl, key, ok := interpret(m[1]); ok {
				return lbl, key, true
			}
		}
	}
	return "", 0, false
}

// interpret resolves one captured token. Roman numerals take precedence
// over the plain-integer reading; the original casing is preserved in the
// label either way.
func interpret(capture string) (string, int, bool) {
	if isRoman(capture) {
		if v := romanToInt(strings.ToUpper(capture)); v > 0 {
			return capture, v, true
		}
	}
	if n, err := strconv.Atoi(capture); err == nil && n > 0 && n < maxPageNumber {
		return capture, n, true
	}
	return "", 0, false
}

func isRoman(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range strings.ToUpper(s) {
		switch r {
		case 'I', 'V', 'X', 'L', 'C', 'D', 'M':
		default:
			return false
		}
	}
	return true
}

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50,
	'C': 100, 'D': 500, 'M': 1000,
}

// romanToInt converts an uppercase roman numeral using subtractive
// notation: a symbol preceding a larger one subtracts instead of adds.
// Returns 0 for input containing non-roman characters.
func romanToInt(s string) int {
	result := 0
	for i := 0; i < len(s); i++ {
		val, ok := romanValues[s[i]]
		if !ok {
			return 0
		}
		if i+1 < len(s) && romanValues[s[i+1]] > val {
			result -= val
		} else {
			result += val
		}
	}
	return result
}
