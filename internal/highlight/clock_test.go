package highlight

import (
	"context"
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// fakeClock records scheduled messages against a virtual "now" so tests can
// step through time deterministically.
type fakeClock struct {
	now       time.Duration
	scheduled []scheduledMsg
}

type scheduledMsg struct {
	at  time.Duration
	seq int
	msg tea.Msg
}

func (c *fakeClock) After(d time.Duration, msg tea.Msg) tea.Cmd {
	c.scheduled = append(c.scheduled, scheduledMsg{at: c.now + d, seq: len(c.scheduled), msg: msg})
	return nil
}

// popDue removes and returns the earliest message due at or before until.
func (c *fakeClock) popDue(until time.Duration) (scheduledMsg, bool) {
	best := -1
	for i, s := range c.scheduled {
		if s.at > until {
			continue
		}
		if best < 0 || s.at < c.scheduled[best].at || (s.at == c.scheduled[best].at && s.seq < c.scheduled[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return scheduledMsg{}, false
	}
	s := c.scheduled[best]
	c.scheduled = slices.Delete(c.scheduled, best, best+1)
	return s, true
}

type classifyCall struct {
	at    time.Duration
	model string
	lines [][]string
	full  bool
}

// fakeClassifier paints every token White unless told otherwise.
type fakeClassifier struct {
	clock *fakeClock
	calls []classifyCall
	err   error
	// short drops the last colour of every line.
	short bool
}

func (f *fakeClassifier) Classify(ctx context.Context, model string, lines [][]string) ([][]Color, error) {
	f.calls = append(f.calls, classifyCall{at: f.clock.now, model: model, lines: lines, full: IsFullPass(ctx)})
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]Color, len(lines))
	for i, toks := range lines {
		n := len(toks)
		if f.short && n > 0 {
			n--
		}
		out[i] = make([]Color, n)
		for j := range out[i] {
			out[i][j] = White
		}
	}
	return out, nil
}

// harness drives a Highlighter on virtual time. Classifier calls happen when
// their command runs; the responses are held until deliver is called.
type harness struct {
	t        *testing.T
	clock    *fakeClock
	cls      *fakeClassifier
	h        *Highlighter
	inflight []ClassifiedMsg
}

func newHarness(t *testing.T, text string, s Settings) *harness {
	t.Helper()
	clock := &fakeClock{}
	cls := &fakeClassifier{clock: clock}
	hs := &harness{
		t:     t,
		clock: clock,
		cls:   cls,
		h:     New(cls, s, text, WithClock(clock)),
	}
	t.Cleanup(hs.h.Dispose)
	return hs
}

func (hs *harness) run(cmd tea.Cmd) {
	hs.t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			hs.run(c)
		}
	case ClassifiedMsg:
		hs.inflight = append(hs.inflight, msg)
	default:
		hs.t.Fatalf("unexpected message %T", msg)
	}
}

// advance moves virtual time forward by d, firing due timers in order.
func (hs *harness) advance(d time.Duration) {
	hs.t.Helper()
	until := hs.clock.now + d
	for {
		s, ok := hs.clock.popDue(until)
		if !ok {
			break
		}
		hs.clock.now = s.at
		hs.run(hs.h.Update(s.msg))
	}
	hs.clock.now = until
}

// deliver hands every in-flight response to the highlighter.
func (hs *harness) deliver() {
	hs.t.Helper()
	msgs := hs.inflight
	hs.inflight = nil
	for _, msg := range msgs {
		hs.run(hs.h.Update(msg))
	}
}
