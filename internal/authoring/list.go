package authoring

import (
	"errors"
	"math/rand"
	"time"
)

// List is an ordered collection of items with stable identity. All
// structural mutations renumber positions to a dense 1..N permutation
// and report the change through onChange (the owning draft's dirty
// mark). A List is not safe for concurrent use; each draft has exactly
// one writer.
type List[P Payload[P]] struct {
	items      []Item[P]
	newDefault func() P
	onChange   func()
	rnd        *rand.Rand
}

func NewList[P Payload[P]](newDefault func() P, onChange func()) *List[P] {
	if onChange == nil {
		onChange = func() {}
	}
	return &List[P]{
		newDefault: newDefault,
		onChange:   onChange,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedShuffle fixes the shuffle source, for tests.
func (l *List[P]) SeedShuffle(seed int64) { l.rnd = rand.New(rand.NewSource(seed)) }

func (l *List[P]) Len() int { return len(l.items) }

// Items returns a snapshot of the current order.
func (l *List[P]) Items() []Item[P] {
	out := make([]Item[P], len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[P]) Get(id ItemID) (Item[P], bool) {
	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	var zero Item[P]
	return zero, false
}

func (l *List[P]) index(id ItemID) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add inserts a new item with a default payload, either at the end or
// immediately after afterID. An unknown afterID appends. Add never
// fails; required fields are padded with defaults.
func (l *List[P]) Add(afterID ItemID) ItemID {
	it := Item[P]{ID: newItemID(), Payload: l.newDefault()}
	at := len(l.items)
	if afterID != "" {
		if i := l.index(afterID); i >= 0 {
			at = i + 1
		}
	}
	l.items = append(l.items, Item[P]{})
	copy(l.items[at+1:], l.items[at:])
	l.items[at] = it
	l.Renumber()
	l.onChange()
	return it.ID
}

// Remove deletes an item. It fails with ErrMinimumItems when the
// collection would be left empty, leaving it unchanged.
func (l *List[P]) Remove(id ItemID) error {
	i := l.index(id)
	if i < 0 {
		return ErrItemNotFound
	}
	if len(l.items) <= 1 {
		return ErrMinimumItems
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.Renumber()
	l.onChange()
	return nil
}

// MoveUp swaps the item with its predecessor. At the top boundary it
// is a no-op, not an error. Reports whether the order changed.
func (l *List[P]) MoveUp(id ItemID) bool {
	i := l.index(id)
	if i <= 0 {
		return false
	}
	l.items[i-1], l.items[i] = l.items[i], l.items[i-1]
	l.Renumber()
	l.onChange()
	return true
}

func (l *List[P]) MoveDown(id ItemID) bool {
	i := l.index(id)
	if i < 0 || i >= len(l.items)-1 {
		return false
	}
	l.items[i], l.items[i+1] = l.items[i+1], l.items[i]
	l.Renumber()
	l.onChange()
	return true
}

// Duplicate deep-copies the payload into a fresh item inserted
// immediately after the source. Media refs are copied by handle.
func (l *List[P]) Duplicate(id ItemID) (ItemID, error) {
	i := l.index(id)
	if i < 0 {
		return "", ErrItemNotFound
	}
	dup := Item[P]{ID: newItemID(), Payload: l.items[i].Payload.Clone()}
	l.items = append(l.items, Item[P]{})
	copy(l.items[i+2:], l.items[i+1:])
	l.items[i+1] = dup
	l.Renumber()
	l.onChange()
	return dup.ID, nil
}

// Update applies fn to the payload of one item.
func (l *List[P]) Update(id ItemID, fn func(*P)) error {
	i := l.index(id)
	if i < 0 {
		return ErrItemNotFound
	}
	fn(&l.items[i].Payload)
	l.onChange()
	return nil
}

// BulkApply runs fn over each selected payload and returns how many
// selections were found and modified. Unknown IDs are skipped.
func (l *List[P]) BulkApply(ids []ItemID, fn func(*P)) int {
	applied := 0
	for _, id := range ids {
		if i := l.index(id); i >= 0 {
			fn(&l.items[i].Payload)
			applied++
		}
	}
	if applied > 0 {
		l.onChange()
	}
	return applied
}

// BulkDelete removes each selected item, re-checking the minimum-items
// guard against the live count at every step. A selection that would
// empty the list stops short; blocked reports how many removals were
// refused.
func (l *List[P]) BulkDelete(ids []ItemID) (removed, blocked int) {
	for _, id := range ids {
		switch err := l.Remove(id); {
		case err == nil:
			removed++
		case errors.Is(err, ErrMinimumItems):
			blocked++
		}
	}
	return removed, blocked
}

// BulkDuplicate duplicates each selected item in selection order, each
// copy landing immediately after its source.
func (l *List[P]) BulkDuplicate(ids []ItemID) int {
	n := 0
	for _, id := range ids {
		if _, err := l.Duplicate(id); err == nil {
			n++
		}
	}
	return n
}

// Renumber recomputes every position as the 1-based index in the
// current order. Idempotent.
func (l *List[P]) Renumber() {
	for i := range l.items {
		l.items[i].Position = i + 1
	}
}

// Shuffle applies a uniform Fisher-Yates permutation over the whole
// sequence and renumbers. Lists shorter than two items are left alone.
func (l *List[P]) Shuffle() bool {
	if len(l.items) < 2 {
		return false
	}
	for i := len(l.items) - 1; i > 0; i-- {
		j := l.rnd.Intn(i + 1)
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.Renumber()
	l.onChange()
	return true
}
