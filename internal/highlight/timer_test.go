package highlight

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestTimer_RescheduleSupersedesEarlierArming(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(clock)
	fired := 0
	action := func() tea.Cmd { fired++; return nil }

	timer.Reschedule(100*time.Millisecond, action)
	clock.now = 50 * time.Millisecond
	timer.Reschedule(100*time.Millisecond, action)
	require.Len(t, clock.scheduled, 2)

	first, second := clock.scheduled[0].msg, clock.scheduled[1].msg

	_, handled := timer.Handle(first)
	require.True(t, handled)
	require.Zero(t, fired, "stale firing is ignored")

	_, handled = timer.Handle(second)
	require.True(t, handled)
	require.Equal(t, 1, fired)
	require.False(t, timer.Armed())
}

func TestTimer_Cancel(t *testing.T) {
	clock := &fakeClock{}
	timer := NewTimer(clock)
	fired := false

	timer.Reschedule(time.Millisecond, func() tea.Cmd { fired = true; return nil })
	require.True(t, timer.Armed())
	timer.Cancel()

	timer.Handle(clock.scheduled[0].msg)
	require.False(t, fired)
}

func TestTimer_IgnoresOtherTimers(t *testing.T) {
	clock := &fakeClock{}
	a, b := NewTimer(clock), NewTimer(clock)

	a.Reschedule(time.Millisecond, func() tea.Cmd { return nil })
	_, handled := b.Handle(clock.scheduled[0].msg)
	require.False(t, handled)

	_, handled = b.Handle("not a timer")
	require.False(t, handled)
}
