package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/stupidea/internal/cachemanager"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/tracing"
)

type compileInput struct {
	model  string
	source string
}

// Compiler turns StupiD source into JavaScript with the model.
type Compiler struct {
	gen     Generator
	timeout time.Duration
	tracer  trace.Tracer
	cached  *cachemanager.ReadThrough[string, string, compileInput]
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithCompileTimeout bounds each compilation. Zero means no limit.
func WithCompileTimeout(d time.Duration) CompilerOption {
	return func(c *Compiler) { c.timeout = d }
}

// WithCompileTracer sets the tracer for compilation spans.
func WithCompileTracer(t trace.Tracer) CompilerOption {
	return func(c *Compiler) { c.tracer = t }
}

// WithScriptCache serves repeated compilations of identical source from
// cache for ttl.
func WithScriptCache(cache cachemanager.CacheManager[string, string], ttl time.Duration) CompilerOption {
	return func(c *Compiler) {
		c.cached = cachemanager.NewReadThrough(cache, c.generate, ttl, false)
	}
}

// NewCompiler creates a compiler backed by gen.
func NewCompiler(gen Generator, opts ...CompilerOption) *Compiler {
	c := &Compiler{gen: gen, tracer: noop.NewTracerProvider().Tracer("")}
	c.cached = cachemanager.NewReadThrough[string, string, compileInput](nil, c.generate, 0, true)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile returns the script for source with code fences removed.
func (c *Compiler) Compile(ctx context.Context, model, source string) (string, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanCompile, trace.WithAttributes(
		attribute.String(tracing.AttrModel, model),
		attribute.Int(tracing.AttrSourceBytes, len(source)),
	))
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	script, err := c.cached.Get(ctx, model+"\x00"+source, compileInput{model: model, source: source})
	if err != nil {
		tracing.RecordError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.Int(tracing.AttrScriptBytes, len(script)))
	return script, nil
}

func (c *Compiler) generate(ctx context.Context, in compileInput) (string, error) {
	log.Debug(log.CatGateway, "compiling", "model", in.model, "bytes", len(in.source))

	text, err := c.gen.Generate(ctx, Request{
		Model:  in.model,
		System: compileSystem,
		Prompt: compilePrompt(in.source),
	})
	if err != nil {
		return "", fmt.Errorf("compile: %w", err)
	}
	script := StripFences(text)
	if script == "" {
		return "", fmt.Errorf("compile: %w", ErrEmptyResponse)
	}
	return script, nil
}

// StripFences removes a leading markdown code fence line (```javascript,
// ```js or a bare ```) and a trailing ``` fence, then trims whitespace.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
