package highlight

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fiveLines() []string {
	return []string{"let a = 1", "let b = 2", "print(a)", "", "x"}
}

func cleanAll(tr *Tracker) {
	for _, i := range tr.Dirty() {
		tr.Clean(i)
	}
}

func TestTracker_StartsAllDirty(t *testing.T) {
	tr := NewTracker(fiveLines())
	require.Equal(t, []int{0, 1, 2, 3, 4}, tr.Dirty())
}

func TestTracker_EditOneLine(t *testing.T) {
	tr := NewTracker(fiveLines())
	cleanAll(tr)

	next := fiveLines()
	next[2] = "print(b)"

	require.Equal(t, []int{2}, tr.Update(next))
	require.Equal(t, []int{2}, tr.Dirty())
	require.False(t, tr.IsDirty(1))
}

func TestTracker_InsertShiftsFollowingLines(t *testing.T) {
	tr := NewTracker(fiveLines())
	cleanAll(tr)

	next := []string{"let a = 1", "let b = 2", "new", "print(a)", "", "x"}

	require.Equal(t, []int{2, 3, 4, 5}, tr.Update(next))
	require.Equal(t, []int{2, 3, 4, 5}, tr.Dirty())
}

func TestTracker_ShrinkPrunesDirty(t *testing.T) {
	tr := NewTracker(fiveLines())
	cleanAll(tr)

	next := fiveLines()
	next[4] = "y"
	tr.Update(next)
	require.Equal(t, []int{4}, tr.Dirty())

	changed := tr.Update(next[:3])
	require.Equal(t, []int{3, 4}, changed)
	require.Empty(t, tr.Dirty(), "indices past the end are not dirty")
	require.Zero(t, tr.Len())
}

func TestTracker_NoChange(t *testing.T) {
	tr := NewTracker(fiveLines())
	cleanAll(tr)

	require.Empty(t, tr.Update(fiveLines()))
	require.Empty(t, tr.Dirty())
}

func TestTracker_SnapshotIsCopied(t *testing.T) {
	lines := fiveLines()
	tr := NewTracker(lines)
	cleanAll(tr)

	lines[0] = "mutated"
	require.Empty(t, tr.Update(fiveLines()))
}
