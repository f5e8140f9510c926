package authoring

import (
	"errors"
	"testing"
)

func newPageList() *List[Page] { return NewList(NewPage, nil) }

func positions[P Payload[P]](l *List[P]) []int {
	items := l.Items()
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Position
	}
	return out
}

func assertDense[P Payload[P]](t *testing.T, l *List[P]) {
	t.Helper()
	for i, p := range positions(l) {
		if p != i+1 {
			t.Fatalf("positions not dense 1..N: %v", positions(l))
		}
	}
}

func TestAddYieldsDensePositions(t *testing.T) {
	l := newPageList()
	for i := 0; i < 7; i++ {
		l.Add("")
		assertDense(t, l)
	}
	if l.Len() != 7 {
		t.Fatalf("expected 7 items, got %d", l.Len())
	}

	ids := map[ItemID]bool{}
	for _, it := range l.Items() {
		if ids[it.ID] {
			t.Fatalf("duplicate item id %s", it.ID)
		}
		ids[it.ID] = true
	}
}

func TestAddAfter(t *testing.T) {
	l := newPageList()
	first := l.Add("")
	l.Add("")
	mid := l.Add(first)

	items := l.Items()
	if items[1].ID != mid {
		t.Fatalf("expected new item right after %s, got order %v", first, items)
	}
	assertDense(t, l)

	// Unknown anchor appends.
	last := l.Add("no-such-id")
	items = l.Items()
	if items[len(items)-1].ID != last {
		t.Fatalf("unknown afterID should append")
	}
}

func TestRemoveLastItemFails(t *testing.T) {
	l := newPageList()
	id := l.Add("")
	if err := l.Remove(id); !errors.Is(err, ErrMinimumItems) {
		t.Fatalf("expected ErrMinimumItems, got %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("collection changed by rejected removal")
	}
}

func TestDuplicateThenRemoveRestores(t *testing.T) {
	l := newPageList()
	id := l.Add("")
	l.Add("")
	_ = l.Update(id, func(p *Page) { p.Text = "once upon a time"; p.ImageRef = "img-1.png" })

	before := l.Items()
	dupID, err := l.Duplicate(id)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	dup, _ := l.Get(dupID)
	if dup.Payload.Text != "once upon a time" || dup.Payload.ImageRef != "img-1.png" {
		t.Fatalf("payload not copied: %+v", dup.Payload)
	}
	if dup.Position != 2 {
		t.Fatalf("duplicate should sit right after source, got position %d", dup.Position)
	}

	if err := l.Remove(dupID); err != nil {
		t.Fatalf("remove duplicate: %v", err)
	}
	after := l.Items()
	if len(after) != len(before) {
		t.Fatalf("length differs after duplicate+remove")
	}
	for i := range after {
		if after[i].ID != before[i].ID || after[i].Position != before[i].Position {
			t.Fatalf("order changed: %v vs %v", before, after)
		}
	}
}

func TestDuplicateSharesMediaHandle(t *testing.T) {
	l := NewList(NewQuestion, nil)
	id := l.Add("")
	_ = l.Update(id, func(q *Question) {
		q.Options = map[string]string{"A": "yes", "B": "no"}
	})
	dupID, _ := l.Duplicate(id)

	// Option maps must be independent copies.
	_ = l.Update(dupID, func(q *Question) { q.Options["A"] = "changed" })
	src, _ := l.Get(id)
	if src.Payload.Options["A"] != "yes" {
		t.Fatalf("duplicate shares option map with source")
	}
}

func TestMoveUpDownRoundTrip(t *testing.T) {
	l := newPageList()
	l.Add("")
	mid := l.Add("")
	l.Add("")

	before := l.Items()
	if !l.MoveUp(mid) {
		t.Fatalf("expected MoveUp to move")
	}
	if !l.MoveDown(mid) {
		t.Fatalf("expected MoveDown to move")
	}
	after := l.Items()
	for i := range after {
		if after[i].ID != before[i].ID {
			t.Fatalf("MoveUp+MoveDown not idempotent: %v vs %v", before, after)
		}
	}
	assertDense(t, l)
}

func TestMoveAtBoundariesIsNoop(t *testing.T) {
	l := newPageList()
	top := l.Add("")
	bottom := l.Add("")

	if l.MoveUp(top) {
		t.Fatalf("MoveUp at top should be a no-op")
	}
	if l.MoveDown(bottom) {
		t.Fatalf("MoveDown at bottom should be a no-op")
	}
	assertDense(t, l)
}

func TestShufflePreservesIDSet(t *testing.T) {
	l := newPageList()
	want := map[ItemID]bool{}
	for i := 0; i < 10; i++ {
		want[l.Add("")] = true
	}
	l.SeedShuffle(42)
	if !l.Shuffle() {
		t.Fatalf("expected shuffle to run")
	}
	got := map[ItemID]bool{}
	for _, it := range l.Items() {
		got[it.ID] = true
	}
	if len(got) != len(want) {
		t.Fatalf("ids created or lost: %d vs %d", len(got), len(want))
	}
	for id := range want {
		if !got[id] {
			t.Fatalf("id %s lost in shuffle", id)
		}
	}
	assertDense(t, l)
}

func TestShuffleSingleItemNoop(t *testing.T) {
	l := newPageList()
	l.Add("")
	if l.Shuffle() {
		t.Fatalf("shuffle of one item should be a no-op")
	}
}

func TestBulkDeleteStopsAtMinimum(t *testing.T) {
	l := newPageList()
	var ids []ItemID
	for i := 0; i < 3; i++ {
		ids = append(ids, l.Add(""))
	}
	removed, blocked := l.BulkDelete(ids)
	if removed != 2 || blocked != 1 {
		t.Fatalf("expected 2 removed / 1 blocked, got %d / %d", removed, blocked)
	}
	if l.Len() != 1 {
		t.Fatalf("expected exactly 1 survivor, got %d", l.Len())
	}
	assertDense(t, l)
}

func TestBulkApply(t *testing.T) {
	l := newPageList()
	a := l.Add("")
	b := l.Add("")
	l.Add("")

	applied := l.BulkApply([]ItemID{a, b, "missing"}, func(p *Page) { p.Text = "" })
	if applied != 2 {
		t.Fatalf("expected 2 applied, got %d", applied)
	}
}

func TestDirtyMarkOnMutation(t *testing.T) {
	calls := 0
	l := NewList(NewPage, func() { calls++ })
	id := l.Add("")
	l.Add("")
	_ = l.Update(id, func(p *Page) { p.Text = "x" })
	l.MoveDown(id)
	if calls != 4 {
		t.Fatalf("expected every mutation to mark dirty, got %d calls", calls)
	}

	// Boundary no-ops do not mark.
	l.MoveDown(ItemID("missing"))
	if calls != 4 {
		t.Fatalf("no-op should not mark dirty")
	}
}
