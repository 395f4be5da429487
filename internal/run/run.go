// Package run drives a single compile-and-execute cycle at a time and
// reports its progress as terminal lines.
package run

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/stupidea/internal/history"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/sandbox"
	"github.com/zjrosen/stupidea/internal/tracing"
)

// Terminal messages.
const (
	MsgWelcome   = "Welcome to StupiD IDEA Terminal!"
	MsgCompiling = ">>> Compiling your StupiD code..."
	MsgCompiled  = ">>> Compilation successful. Running code..."
	MsgFinished  = ">>> Execution finished."
	MsgStopped   = ">>> Execution stopped by user."
	MsgFailed    = ">>> Compilation Failed: "
)

// State is the run lifecycle.
type State int

const (
	Idle State = iota
	Compiling
	Running
)

func (s State) String() string {
	switch s {
	case Compiling:
		return "compiling"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// Compiler turns source into a script.
type Compiler interface {
	Compile(ctx context.Context, model, source string) (string, error)
}

// Executor runs a script.
type Executor interface {
	Run(ctx context.Context, script string) sandbox.Result
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, r history.Run) (history.Run, error)
}

// Output receives terminal lines.
type Output interface {
	Append(lines ...string)
	// AppendScript shows the compiled script when echoing is enabled.
	AppendScript(script string)
}

type compiledMsg struct {
	gen    int
	script string
	err    error
}

type executedMsg struct {
	gen    int
	result sandbox.Result
}

// RecordedMsg reports that a finished run was written to history.
type RecordedMsg struct {
	Run history.Run
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder stores every finished run.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithEcho shows compiled scripts before running them.
func WithEcho(echo bool) Option {
	return func(c *Controller) { c.echo = echo }
}

// WithTracer sets the tracer for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// Controller is the single-flight run state machine:
// Idle -> Compiling -> Running -> Idle, with Stop returning to Idle from
// either busy state.
type Controller struct {
	compiler Compiler
	executor Executor
	recorder Recorder
	out      Output
	tracer   trace.Tracer
	echo     bool

	state  State
	last   history.Status
	gen    int
	cancel context.CancelFunc
	span   trace.Span
	cur    history.Run
}

// New creates an idle controller.
func New(compiler Compiler, executor Executor, out Output, opts ...Option) *Controller {
	c := &Controller{
		compiler: compiler,
		executor: executor,
		out:      out,
		tracer:   noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// LastStatus returns how the most recent run ended, or "" before any run.
func (c *Controller) LastStatus() history.Status {
	return c.last
}

// Busy reports whether a run is in progress.
func (c *Controller) Busy() bool {
	return c.state != Idle
}

// Start compiles and runs source with model. It is ignored while a run is
// in progress.
func (c *Controller) Start(source, model string) tea.Cmd {
	if c.state != Idle {
		log.Debug(log.CatRun, "run ignored, already busy", "state", c.state)
		return nil
	}

	c.gen++
	c.state = Compiling
	ctx, cancel := context.WithCancel(context.Background())
	ctx, c.span = c.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(attribute.String(tracing.AttrModel, model)))
	c.cancel = cancel
	c.cur = history.Run{StartedAt: time.Now(), Model: model, Source: source}
	c.out.Append(MsgCompiling)
	log.Info(log.CatRun, "compiling", "model", model, "bytes", len(source))

	gen, compiler := c.gen, c.compiler
	return func() tea.Msg {
		script, err := compiler.Compile(ctx, model, source)
		return compiledMsg{gen: gen, script: script, err: err}
	}
}

// Stop abandons the current run. Late results of the abandoned run are
// dropped.
func (c *Controller) Stop() tea.Cmd {
	if c.state == Idle {
		return nil
	}
	log.Info(log.CatRun, "stopped by user", "state", c.state)
	c.out.Append(MsgStopped)
	return c.finish(history.StatusStopped, "")
}

// Update handles run progress messages.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case compiledMsg:
		if msg.gen != c.gen || c.state != Compiling {
			return nil
		}
		return c.compiled(msg)
	case executedMsg:
		if msg.gen != c.gen || c.state != Running {
			return nil
		}
		return c.executed(msg)
	}
	return nil
}

func (c *Controller) compiled(msg compiledMsg) tea.Cmd {
	if msg.err != nil {
		log.Warn(log.CatRun, "compilation failed", "error", msg.err)
		c.out.Append(MsgFailed + msg.err.Error())
		return c.finish(history.StatusCompileFailed, msg.err.Error())
	}

	c.state = Running
	c.cur.Script = msg.script
	c.out.Append(MsgCompiled)
	if c.echo {
		c.out.AppendScript(msg.script)
	}

	ctx := trace.ContextWithSpan(context.Background(), c.span)
	ctx, cancel := context.WithCancel(ctx)
	prev := c.cancel
	c.cancel = func() { cancel(); prev() }

	gen, executor, script := c.gen, c.executor, msg.script
	return func() tea.Msg {
		return executedMsg{gen: gen, result: executor.Run(ctx, script)}
	}
}

func (c *Controller) executed(msg executedMsg) tea.Cmd {
	c.cur.Output = msg.result.Lines
	c.out.Append(msg.result.Lines...)
	c.out.Append(MsgFinished)

	if msg.result.Err != nil {
		errText := sandbox.RuntimePrefix + msg.result.Err.Error()
		if n := len(msg.result.Lines); n > 0 {
			errText = msg.result.Lines[n-1]
		}
		return c.finish(history.StatusRuntimeError, errText)
	}
	return c.finish(history.StatusOK, "")
}

// finish returns to Idle and records the run.
func (c *Controller) finish(status history.Status, errText string) tea.Cmd {
	c.gen++
	c.state = Idle
	c.last = status
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	r := c.cur
	r.Status = status
	r.Error = errText
	r.Duration = time.Since(r.StartedAt)
	c.cur = history.Run{}

	if c.span != nil {
		c.span.SetAttributes(attribute.String(tracing.AttrRunStatus, string(status)))
		if errText != "" {
			tracing.RecordError(c.span, errors.New(errText))
		}
		c.span.End()
		c.span = nil
	}
	log.Info(log.CatRun, "run finished", "status", status, "duration", r.Duration)

	if c.recorder == nil {
		return nil
	}
	recorder := c.recorder
	return func() tea.Msg {
		rec, err := recorder.Record(context.Background(), r)
		if err != nil {
			log.Warn(log.CatHistory, "recording run failed", "error", err)
		}
		return RecordedMsg{Run: rec, Err: err}
	}
}

// Drive runs cmd and feeds every resulting message back into the controller
// until it is idle. Used outside a Bubble Tea program.
func (c *Controller) Drive(cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(RecordedMsg); ok {
			return
		}
		cmd = c.Update(msg)
	}
}
