package highlight

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/tokenize"
)

// Classifier labels every token of every line. The result must have one
// entry per input line and one colour per token.
type Classifier interface {
	Classify(ctx context.Context, model string, lines [][]string) ([][]Color, error)
}

// Settings are the scheduling knobs, read on every decision.
type Settings struct {
	ShortDelay     time.Duration
	LongDelay      time.Duration
	RateLimitDelay time.Duration
	Model          string
}

// ClassifiedMsg carries a classifier response back to the loop.
type ClassifiedMsg struct {
	owner  *Highlighter
	Batch  Batch
	Colors [][]Color
	Err    error
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithClock replaces the tea.Tick clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(h *Highlighter) { h.clock = c }
}

// Highlighter owns the colour model of one buffer.
type Highlighter struct {
	ctx        context.Context
	cancel     context.CancelFunc
	classifier Classifier
	settings   Settings
	clock      Clock

	lines   []string
	colors  [][]ColoredToken
	tracker *Tracker

	gate  *Gate[Batch]
	short *Timer
	long  *Timer

	partialSinceFull bool
	disposed         bool
}

// New creates a highlighter for text. Every line starts dirty and painted
// Pending; call Init to request the first full pass.
func New(classifier Classifier, settings Settings, text string, opts ...Option) *Highlighter {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Highlighter{
		ctx:        ctx,
		cancel:     cancel,
		classifier: classifier,
		settings:   settings,
		clock:      TickClock{},
	}
	for _, opt := range opts {
		opt(h)
	}

	h.lines = splitLines(text)
	h.colors = make([][]ColoredToken, len(h.lines))
	for i, line := range h.lines {
		h.colors[i] = Recolor(nil, tokenize.Tokenize(line))
	}
	h.tracker = NewTracker(h.lines)
	h.short = NewTimer(h.clock)
	h.long = NewTimer(h.clock)
	h.gate = NewGate(h.clock, h.rateLimit, h.dispatch, Batch.Merge)
	return h
}

// Init starts the initial full pass.
func (h *Highlighter) Init() tea.Cmd {
	return h.ForceFull()
}

// SetText replaces the buffer. Changed lines are repainted optimistically,
// marked dirty, and both debounce timers restart.
func (h *Highlighter) SetText(text string) tea.Cmd {
	if h.disposed {
		return nil
	}
	next := splitLines(text)
	changed := h.tracker.Update(next)
	if len(changed) == 0 {
		return nil
	}

	prev := h.colors
	colors := make([][]ColoredToken, len(next))
	copy(colors, prev)
	for _, i := range changed {
		if i >= len(next) {
			continue
		}
		var old []ColoredToken
		if i < len(prev) {
			old = prev[i]
		}
		colors[i] = Recolor(old, tokenize.Tokenize(next[i]))
	}
	h.lines = next
	h.colors = colors

	log.Debug(log.CatHighlight, "buffer changed", "changed", len(changed), "dirty", h.tracker.Len(), "lines", len(next))

	return tea.Batch(
		h.short.Reschedule(h.settings.ShortDelay, h.partialPass),
		h.long.Reschedule(h.settings.LongDelay, h.longPass),
	)
}

// ForceFull classifies the whole buffer now, regardless of dirtiness.
func (h *Highlighter) ForceFull() tea.Cmd {
	if h.disposed {
		return nil
	}
	return h.fullPass()
}

// SetSettings swaps the scheduling settings. Changing the model forces a
// full pass.
func (h *Highlighter) SetSettings(s Settings) tea.Cmd {
	modelChanged := s.Model != h.settings.Model
	h.settings = s
	if modelChanged {
		log.Info(log.CatHighlight, "highlight model changed", "model", s.Model)
		return h.ForceFull()
	}
	return nil
}

// Settings returns the current settings.
func (h *Highlighter) Settings() Settings {
	return h.settings
}

// Update handles timer firings and classifier responses addressed to this
// highlighter. Other messages are ignored.
func (h *Highlighter) Update(msg tea.Msg) tea.Cmd {
	if h.disposed {
		return nil
	}
	switch msg := msg.(type) {
	case TimerMsg:
		for _, handle := range []func(tea.Msg) (tea.Cmd, bool){h.short.Handle, h.long.Handle, h.gate.Update} {
			if cmd, ok := handle(msg); ok {
				return cmd
			}
		}
	case ClassifiedMsg:
		if msg.owner == h {
			h.merge(msg)
		}
	}
	return nil
}

// Dispose cancels timers, the parked request and any call in flight.
func (h *Highlighter) Dispose() {
	if h.disposed {
		return
	}
	h.disposed = true
	h.short.Cancel()
	h.long.Cancel()
	h.gate.Dispose()
	h.cancel()
}

// Lines returns the current buffer lines. Callers must not modify it.
func (h *Highlighter) Lines() []string {
	return h.lines
}

// Colors returns the colour model, one entry per line. Callers must not
// modify it.
func (h *Highlighter) Colors() [][]ColoredToken {
	return h.colors
}

// Dirty returns the dirty line indices, ascending.
func (h *Highlighter) Dirty() []int {
	return h.tracker.Dirty()
}

// IsDirty reports whether line i awaits classification.
func (h *Highlighter) IsDirty(i int) bool {
	return h.tracker.IsDirty(i)
}

// Busy reports whether a classification cool-down is active.
func (h *Highlighter) Busy() bool {
	return h.gate.Cooling()
}

func (h *Highlighter) rateLimit() time.Duration {
	return h.settings.RateLimitDelay
}

// partialPass runs when the short timer fires.
func (h *Highlighter) partialPass() tea.Cmd {
	dirty := h.tracker.Dirty()
	if len(dirty) == 0 {
		return nil
	}
	b := Batch{Model: h.settings.Model, Lines: make([]LineRequest, 0, len(dirty))}
	for _, i := range dirty {
		b.Lines = append(b.Lines, LineRequest{Index: i, Text: h.lines[i]})
	}
	h.partialSinceFull = true
	log.Debug(log.CatHighlight, "partial pass", "lines", len(b.Lines))
	return h.gate.Submit(b)
}

// longPass runs when the long timer fires.
func (h *Highlighter) longPass() tea.Cmd {
	if !h.partialSinceFull {
		return nil
	}
	return h.fullPass()
}

func (h *Highlighter) fullPass() tea.Cmd {
	b := Batch{Model: h.settings.Model, Full: true, Lines: make([]LineRequest, len(h.lines))}
	for i, line := range h.lines {
		b.Lines[i] = LineRequest{Index: i, Text: line}
	}
	h.partialSinceFull = false
	log.Debug(log.CatHighlight, "full pass", "lines", len(b.Lines))
	return h.gate.Submit(b)
}

// dispatch turns a batch into a classifier call. Blank lines are not sent;
// a batch of only blank lines completes without calling the classifier.
func (h *Highlighter) dispatch(b Batch) tea.Cmd {
	var tokenized [][]string
	for _, lr := range b.Lines {
		if !tokenize.IsBlank(lr.Text) {
			tokenized = append(tokenized, tokenize.Tokenize(lr.Text))
		}
	}

	ctx, classifier := h.ctx, h.classifier
	if b.Full {
		ctx = WithFullPass(ctx)
	}
	return func() tea.Msg {
		msg := ClassifiedMsg{owner: h, Batch: b}
		if len(tokenized) > 0 {
			msg.Colors, msg.Err = classifier.Classify(ctx, b.Model, tokenized)
		}
		return msg
	}
}

// merge applies a response. A line is updated only if its live text equals
// the text that was sent and the colour count matches its token count;
// otherwise it keeps its paint and stays dirty for a later pass.
func (h *Highlighter) merge(msg ClassifiedMsg) {
	if msg.Err != nil {
		log.Warn(log.CatHighlight, "classification failed, lines stay dirty",
			"lines", len(msg.Batch.Lines), "error", msg.Err)
		return
	}

	applied, stale := 0, 0
	k := 0
	for _, lr := range msg.Batch.Lines {
		blank := tokenize.IsBlank(lr.Text)
		var colors []Color
		if !blank {
			if k < len(msg.Colors) {
				colors = msg.Colors[k]
			}
			k++
		}

		if lr.Index >= len(h.lines) || h.lines[lr.Index] != lr.Text {
			stale++
			continue
		}
		if blank {
			h.colors[lr.Index] = nil
			h.tracker.Clean(lr.Index)
			applied++
			continue
		}
		painted, ok := Paint(tokenize.Tokenize(lr.Text), colors)
		if !ok {
			stale++
			continue
		}
		h.colors[lr.Index] = painted
		h.tracker.Clean(lr.Index)
		applied++
	}

	log.Debug(log.CatHighlight, "merged classification",
		"applied", applied, "discarded", stale, "dirty", h.tracker.Len())
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}
