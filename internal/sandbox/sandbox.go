// Package sandbox executes compiled scripts in an isolated JavaScript
// runtime and captures their console output as terminal lines.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/tracing"
)

// ErrInterrupted is wrapped by Result.Err when a run was cut short by its
// timeout or by cancellation.
var ErrInterrupted = errors.New("execution interrupted")

// RuntimePrefix starts the line reported for an uncaught error.
const RuntimePrefix = "RUNTIME ERROR: "

// Result is the outcome of one script run.
type Result struct {
	// Lines holds console output in call order, ending with a RUNTIME ERROR
	// line when the script failed.
	Lines []string
	// Err is the runtime failure, if any.
	Err error
}

// Sandbox runs scripts. Every Run gets a fresh runtime.
type Sandbox struct {
	timeout time.Duration
	tracer  trace.Tracer
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithTimeout interrupts scripts running longer than d. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) { s.timeout = d }
}

// WithTracer sets the tracer for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Sandbox) { s.tracer = t }
}

// New creates a sandbox.
func New(opts ...Option) *Sandbox {
	s := &Sandbox{tracer: noop.NewTracerProvider().Tracer("")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes script and returns what it printed. The script body runs as
// a function so a top-level return ends it cleanly. Run never panics.
func (s *Sandbox) Run(ctx context.Context, script string) (res Result) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanSandbox)
	defer span.End()

	vm := goja.New()
	out := &console{vm: vm}
	out.install()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
			res.Lines = append(out.lines, RuntimePrefix+res.Err.Error())
			log.Error(log.CatSandbox, "script panicked", "panic", r)
		}
		span.SetAttributes(attribute.Int(tracing.AttrOutputLines, len(res.Lines)))
		tracing.RecordError(span, res.Err)
	}()

	done := make(chan struct{})
	defer close(done)
	go s.watch(ctx, vm, done)

	_, err := vm.RunString("(function() {\n" + script + "\n})()")
	res.Lines = out.lines
	if err != nil {
		res.Err = runtimeError(err)
		res.Lines = append(res.Lines, RuntimePrefix+message(err))
		log.Debug(log.CatSandbox, "script failed", "error", res.Err)
	}
	return res
}

// watch interrupts vm when ctx ends or the timeout elapses, whichever is
// first, unless done closes before.
func (s *Sandbox) watch(ctx context.Context, vm *goja.Runtime, done <-chan struct{}) {
	var expired <-chan time.Time
	if s.timeout > 0 {
		t := time.NewTimer(s.timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-ctx.Done():
		vm.Interrupt(fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx)))
	case <-expired:
		vm.Interrupt(fmt.Errorf("%w: timed out after %s", ErrInterrupted, s.timeout))
	case <-done:
	}
}

func runtimeError(err error) error {
	var intr *goja.InterruptedError
	if errors.As(err, &intr) {
		if cause, ok := intr.Value().(error); ok {
			return cause
		}
		return fmt.Errorf("%w: %v", ErrInterrupted, intr.Value())
	}
	return err
}

// message mirrors what a script would see as e.message, falling back to the
// thrown value itself.
func message(err error) string {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if obj, ok := exc.Value().(*goja.Object); ok {
			if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
				return m.String()
			}
		}
		return exc.Value().String()
	}
	return runtimeError(err).Error()
}

// console captures console.* calls.
type console struct {
	vm        *goja.Runtime
	lines     []string
	stringify goja.Callable
}

func (c *console) install() {
	if json := c.vm.Get("JSON"); json != nil {
		c.stringify, _ = goja.AssertFunction(json.ToObject(c.vm).Get("stringify"))
	}

	obj := c.vm.NewObject()
	for name, prefix := range map[string]string{
		"log":   "",
		"info":  "",
		"debug": "",
		"warn":  "WARN: ",
		"error": "ERROR: ",
	} {
		_ = obj.Set(name, c.printer(prefix))
	}
	_ = c.vm.Set("console", obj)
}

func (c *console) printer(prefix string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = c.format(arg)
		}
		c.lines = append(c.lines, prefix+strings.Join(parts, " "))
		return goja.Undefined()
	}
}

// format renders objects through JSON.stringify and everything else with
// String().
func (c *console) format(v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok && c.stringify != nil {
		if _, isFunc := goja.AssertFunction(obj); !isFunc {
			if s, err := c.stringify(goja.Undefined(), obj); err == nil && !goja.IsUndefined(s) {
				return s.String()
			}
		}
	}
	if goja.IsNull(v) {
		return "null"
	}
	return v.String()
}
