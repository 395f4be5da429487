package highlight

import (
	"maps"
	"slices"
)

// Tracker remembers the last buffer snapshot and which line indices are
// dirty, i.e. painted with colours that were not classified for their
// current text.
type Tracker struct {
	prev  []string
	dirty map[int]struct{}
}

// NewTracker starts tracking from snapshot with every line dirty.
func NewTracker(snapshot []string) *Tracker {
	t := &Tracker{
		prev:  slices.Clone(snapshot),
		dirty: make(map[int]struct{}, len(snapshot)),
	}
	for i := range snapshot {
		t.dirty[i] = struct{}{}
	}
	return t
}

// Update compares next with the previous snapshot index by index up to the
// longer length and returns the indices that differ, ascending. Changed
// indices that exist in next become dirty; dirty indices past the end of
// next are dropped. next becomes the new snapshot.
func (t *Tracker) Update(next []string) []int {
	n := max(len(t.prev), len(next))
	var changed []int
	for i := 0; i < n; i++ {
		if i >= len(t.prev) || i >= len(next) || t.prev[i] != next[i] {
			changed = append(changed, i)
		}
	}

	for _, i := range changed {
		if i < len(next) {
			t.dirty[i] = struct{}{}
		}
	}
	for i := range t.dirty {
		if i >= len(next) {
			delete(t.dirty, i)
		}
	}

	t.prev = slices.Clone(next)
	return changed
}

// Clean removes i from the dirty set.
func (t *Tracker) Clean(i int) {
	delete(t.dirty, i)
}

// IsDirty reports whether line i is dirty.
func (t *Tracker) IsDirty(i int) bool {
	_, ok := t.dirty[i]
	return ok
}

// Dirty returns the dirty indices in ascending order.
func (t *Tracker) Dirty() []int {
	return slices.Sorted(maps.Keys(t.dirty))
}

// Len returns the number of dirty lines.
func (t *Tracker) Len() int {
	return len(t.dirty)
}
