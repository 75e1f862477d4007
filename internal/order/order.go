// Package order decides where pages belong in the final document. Reorder
// produces the total order for a whole project; Place slots a late-added
// page into an already-ordered sequence.
package order

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rstamps01/image-to-text/internal/models"
)

// Reorder sorts pages into their final document order and writes back
// zero-based contiguous sort positions. The comparator is:
//
//  1. pages with a sort key before pages without one
//  2. both unkeyed: creation order
//  3. both keyed: numeric ascending, creation order breaking ties
//
// The sort is stable, so calling Reorder on its own output is a no-op.
func Reorder(pages []*models.Page) []*models.Page {
	ordered := make([]*models.Page, len(pages))
	copy(ordered, pages)

	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})

	for i, p := range ordered {
		p.SortPosition = i
	}
	return ordered
}

func less(a, b *models.Page) bool {
	switch {
	case a.SortKey != nil && b.SortKey == nil:
		return true
	case a.SortKey == nil && b.SortKey != nil:
		return false
	case a.SortKey == nil && b.SortKey == nil:
		return a.Seq < b.Seq
	default:
		if *a.SortKey != *b.SortKey {
			return *a.SortKey < *b.SortKey
		}
		return a.Seq < b.Seq
	}
}

// Place computes the insertion position for page among ordered (sorted by
// SortPosition) and whether the placement is confident. A page with a sort
// key that fits uniquely between keyed neighbours is confident; a key
// collision, or a page with no key at all, falls back to secondary signals
// (filename-encoded numbers, then upload order) and is flagged for review.
// Pages are never dropped: the worst case is an unconfident append.
func Place(page *models.Page, ordered []*models.Page) (pos int, confident bool) {
	if page.SortKey != nil {
		if pos, confident, ok := placeByKey(*page.SortKey, ordered); ok {
			return pos, confident
		}
	}
	return placeByHint(page, ordered), false
}

// placeByKey returns the index preserving numeric key order. ok is false
// when no existing page carries a key, leaving nothing to anchor against.
func placeByKey(key int, ordered []*models.Page) (pos int, confident bool, ok bool) {
	anchored := false
	collision := false
	pos = len(ordered)

	for i, p := range ordered {
		if p.SortKey == nil {
			// Keyed pages sort before unkeyed ones; insert at the
			// boundary if we ran past every keyed page.
			if pos == len(ordered) {
				pos = i
			}
			break
		}
		anchored = true
		if *p.SortKey == key {
			collision = true
		}
		if *p.SortKey > key {
			pos = i
			break
		}
	}
	if !anchored {
		return 0, false, false
	}
	return pos, !collision, true
}

// placeByHint orders by a number encoded in the upload filename
// (scan_0042.jpg and friends). Without a usable hint the page is appended,
// which preserves upload recency.
func placeByHint(page *models.Page, ordered []*models.Page) int {
	hint, ok := filenameHint(page.Filename)
	if !ok {
		return len(ordered)
	}
	for i, p := range ordered {
		if h, ok := filenameHint(p.Filename); ok && h > hint {
			return i
		}
	}
	return len(ordered)
}

var trailingDigits = regexp.MustCompile(`(\d+)\D*$`)

// filenameHint pulls the last run of digits out of a filename, a common
// scanner naming convention.
func filenameHint(filename string) (int, bool) {
	base := filepath.Base(filename)
	m := trailingDigits.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}
	n := 0
	for _, r := range m[1] {
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	return n, true
}
