package highlight

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type gateState int

const (
	gateOpen gateState = iota
	gateCooling
)

func (s gateState) String() string {
	if s == gateCooling {
		return "cooling"
	}
	return "open"
}

// Gate spaces out outbound calls. The first request in a burst is dispatched
// immediately and starts a cool-down; requests arriving while cooling are
// folded into a single pending request that is dispatched when the
// cool-down ends, which starts the next cool-down.
//
// The gate treats requests opaquely: merge decides how a newer request is
// folded into the pending one. A nil merge keeps only the newest.
type Gate[T any] struct {
	state    gateState
	pending  *T
	timer    *Timer
	delay    func() time.Duration
	dispatch func(T) tea.Cmd
	merge    func(older, newer T) T
}

// NewGate builds an open gate. delay is consulted each time a cool-down
// starts so setting changes apply to the next cool-down.
func NewGate[T any](clock Clock, delay func() time.Duration, dispatch func(T) tea.Cmd, merge func(older, newer T) T) *Gate[T] {
	if merge == nil {
		merge = func(_, newer T) T { return newer }
	}
	return &Gate[T]{
		timer:    NewTimer(clock),
		delay:    delay,
		dispatch: dispatch,
		merge:    merge,
	}
}

// Submit dispatches req now when the gate is open, otherwise parks it.
func (g *Gate[T]) Submit(req T) tea.Cmd {
	if g.state == gateOpen {
		return g.fire(req)
	}
	if g.pending != nil {
		merged := g.merge(*g.pending, req)
		g.pending = &merged
	} else {
		g.pending = &req
	}
	return nil
}

// Update advances the gate when msg is its cool-down firing.
func (g *Gate[T]) Update(msg tea.Msg) (tea.Cmd, bool) {
	return g.timer.Handle(msg)
}

// Cooling reports whether the gate is inside a cool-down.
func (g *Gate[T]) Cooling() bool {
	return g.state == gateCooling
}

// Pending returns the parked request, if any.
func (g *Gate[T]) Pending() (T, bool) {
	if g.pending == nil {
		var zero T
		return zero, false
	}
	return *g.pending, true
}

// Dispose cancels the cool-down and drops the parked request.
func (g *Gate[T]) Dispose() {
	g.timer.Cancel()
	g.pending = nil
	g.state = gateOpen
}

// fire is the OPEN -> COOLING transition, also taken COOLING -> COOLING when
// a cool-down ends with a request parked.
func (g *Gate[T]) fire(req T) tea.Cmd {
	g.state = gateCooling
	return tea.Batch(
		g.dispatch(req),
		g.timer.Reschedule(g.delay(), g.cooled),
	)
}

// cooled ends a cool-down: COOLING -> OPEN when nothing is parked.
func (g *Gate[T]) cooled() tea.Cmd {
	if g.pending == nil {
		g.state = gateOpen
		return nil
	}
	req := *g.pending
	g.pending = nil
	return g.fire(req)
}
