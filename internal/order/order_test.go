package order

import (
	"testing"

	"github.com/rstamps01/image-to-text/internal/models"
)

func keyed(id string, seq, key int) *models.Page {
	return &models.Page{ID: id, Seq: seq, SortKey: &key}
}

func unkeyed(id string, seq int) *models.Page {
	return &models.Page{ID: id, Seq: seq}
}

func positions(pages []*models.Page) map[string]int {
	out := make(map[string]int, len(pages))
	for _, p := range pages {
		out[p.ID] = p.SortPosition
	}
	return out
}

func TestReorder(t *testing.T) {
	pages := []*models.Page{
		unkeyed("cover", 1),
		keyed("p42", 2, 42),
		keyed("piv", 3, 4),
		unkeyed("plate", 4),
		keyed("p7", 5, 7),
	}

	ordered := Reorder(pages)

	want := []string{"piv", "p7", "p42", "cover", "plate"}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, ordered[i].ID, id)
		}
		if ordered[i].SortPosition != i {
			t.Errorf("page %s: SortPosition = %d, want %d", id, ordered[i].SortPosition, i)
		}
	}
}

func TestReorder_KeyedBeforeUnkeyed(t *testing.T) {
	pages := []*models.Page{
		unkeyed("u1", 1),
		unkeyed("u2", 2),
		keyed("k9", 3, 9),
		unkeyed("u3", 4),
		keyed("k3", 5, 3),
	}

	ordered := Reorder(pages)

	sawUnkeyed := false
	for _, p := range ordered {
		if p.SortKey == nil {
			sawUnkeyed = true
		} else if sawUnkeyed {
			t.Fatalf("keyed page %s sorted after an unkeyed page", p.ID)
		}
	}

	// Unkeyed pages keep their relative creation order.
	wantTail := []string{"u1", "u2", "u3"}
	tail := ordered[2:]
	for i, id := range wantTail {
		if tail[i].ID != id {
			t.Errorf("unkeyed position %d: got %s, want %s", i, tail[i].ID, id)
		}
	}
}

func TestReorder_DuplicateKeysBreakTiesByCreation(t *testing.T) {
	pages := []*models.Page{
		keyed("second", 7, 12),
		keyed("first", 3, 12),
	}

	ordered := Reorder(pages)
	if ordered[0].ID != "first" || ordered[1].ID != "second" {
		t.Errorf("duplicate keys: got order [%s %s], want [first second]", ordered[0].ID, ordered[1].ID)
	}
}

func TestReorder_Idempotent(t *testing.T) {
	pages := []*models.Page{
		keyed("a", 1, 20),
		unkeyed("b", 2),
		keyed("c", 3, 10),
		keyed("d", 4, 10),
		unkeyed("e", 5),
	}

	first := positions(Reorder(pages))
	second := positions(Reorder(pages))

	for id, pos := range first {
		if second[id] != pos {
			t.Errorf("page %s: position changed from %d to %d on second reorder", id, pos, second[id])
		}
	}
}

func TestPlace_KeyBetweenNeighbours(t *testing.T) {
	existing := Reorder([]*models.Page{
		keyed("a", 1, 10),
		keyed("b", 2, 20),
		keyed("c", 3, 30),
	})

	pos, confident := Place(keyed("new", 4, 15), existing)
	if pos != 1 {
		t.Errorf("pos = %d, want 1 (between keys 10 and 20)", pos)
	}
	if !confident {
		t.Error("expected confident placement")
	}
}

func TestPlace_NoSortKey(t *testing.T) {
	existing := Reorder([]*models.Page{
		keyed("a", 1, 10),
		keyed("b", 2, 20),
		keyed("c", 3, 30),
	})

	pos, confident := Place(unkeyed("new", 4), existing)
	if confident {
		t.Error("unkeyed page must not be a confident placement")
	}
	if pos != len(existing) {
		t.Errorf("pos = %d, want append at %d", pos, len(existing))
	}
}

func TestPlace_KeyCollision(t *testing.T) {
	existing := Reorder([]*models.Page{
		keyed("a", 1, 10),
		keyed("b", 2, 20),
	})

	pos, confident := Place(keyed("new", 3, 20), existing)
	if confident {
		t.Error("collision with an existing key must not be confident")
	}
	if pos != 2 {
		t.Errorf("pos = %d, want 2 (after the colliding key)", pos)
	}
}

func TestPlace_KeyBeforeUnkeyedTail(t *testing.T) {
	existing := Reorder([]*models.Page{
		keyed("a", 1, 10),
		unkeyed("u", 2),
	})

	pos, confident := Place(keyed("new", 3, 40), existing)
	if pos != 1 {
		t.Errorf("pos = %d, want 1 (keyed pages stay ahead of unkeyed)", pos)
	}
	if !confident {
		t.Error("expected confident placement after the last keyed page")
	}
}

func TestPlace_NoKeyedAnchors(t *testing.T) {
	existing := Reorder([]*models.Page{
		unkeyed("u1", 1),
		unkeyed("u2", 2),
	})

	_, confident := Place(keyed("new", 3, 5), existing)
	if confident {
		t.Error("no keyed anchors: placement cannot be confident")
	}
}

func TestPlace_FilenameHint(t *testing.T) {
	a := unkeyed("a", 1)
	a.Filename = "scan_0010.jpg"
	b := unkeyed("b", 2)
	b.Filename = "scan_0030.jpg"
	existing := Reorder([]*models.Page{a, b})

	p := unkeyed("new", 3)
	p.Filename = "scan_0020.jpg"

	pos, confident := Place(p, existing)
	if pos != 1 {
		t.Errorf("pos = %d, want 1 (between filename hints 10 and 30)", pos)
	}
	if confident {
		t.Error("hint-based placement is never confident")
	}
}

func TestFilenameHint(t *testing.T) {
	tests := []struct {
		filename string
		hint     int
		ok       bool
	}{
		{"scan_0042.jpg", 42, true},
		{"IMG_20240101_007.png", 7, true},
		{"page9", 9, true},
		{"cover.jpg", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		hint, ok := filenameHint(tt.filename)
		if ok != tt.ok || hint != tt.hint {
			t.Errorf("filenameHint(%q) = (%d, %v), want (%d, %v)", tt.filename, hint, ok, tt.hint, tt.ok)
		}
	}
}
