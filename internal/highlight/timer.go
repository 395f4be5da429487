package highlight

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Clock turns a delay into a command that delivers msg once the delay has
// elapsed.
type Clock interface {
	After(d time.Duration, msg tea.Msg) tea.Cmd
}

// TickClock is the production Clock backed by tea.Tick.
type TickClock struct{}

// After implements Clock.
func (TickClock) After(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

// TimerMsg is delivered when a Timer's delay elapses. Messages from a
// cancelled or rescheduled arming are ignored by Handle.
type TimerMsg struct {
	timer *Timer
	tag   int
}

// Timer is a cancellable, reschedulable one-shot timer living on the Bubble
// Tea loop. Each Reschedule supersedes the previous arming.
type Timer struct {
	tag    int
	clock  Clock
	action func() tea.Cmd
}

// NewTimer returns a disarmed timer.
func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = TickClock{}
	}
	return &Timer{clock: clock}
}

// Reschedule cancels any pending arming and arranges for action to run after d.
func (t *Timer) Reschedule(d time.Duration, action func() tea.Cmd) tea.Cmd {
	t.tag++
	t.action = action
	return t.clock.After(d, TimerMsg{timer: t, tag: t.tag})
}

// Cancel disarms the timer.
func (t *Timer) Cancel() {
	t.tag++
	t.action = nil
}

// Armed reports whether an action is waiting to run.
func (t *Timer) Armed() bool {
	return t.action != nil
}

// Handle runs the action when msg is this timer's current firing. handled is
// true for any message addressed to this timer, stale or not.
func (t *Timer) Handle(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	tm, ok := msg.(TimerMsg)
	if !ok || tm.timer != t {
		return nil, false
	}
	if tm.tag != t.tag || t.action == nil {
		return nil, true
	}
	action := t.action
	t.action = nil
	return action(), true
}
