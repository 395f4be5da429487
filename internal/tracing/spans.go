package tracing

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanClassify = "gateway.classify"
	SpanCompile  = "gateway.compile"
	SpanGenerate = "gateway.generate"
	SpanSandbox  = "sandbox.run"
	SpanRun      = "run"
)

// Span attribute keys.
const (
	AttrModel        = "llm.model"
	AttrLines        = "highlight.lines"
	AttrCachedLines  = "highlight.cached_lines"
	AttrFallback     = "highlight.fallback"
	AttrFullPass     = "highlight.full_pass"
	AttrSourceBytes  = "compile.source_bytes"
	AttrScriptBytes  = "compile.script_bytes"
	AttrOutputLines  = "sandbox.output_lines"
	AttrRunID        = "run.id"
	AttrRunStatus    = "run.status"
	AttrErrorMessage = "error.message"
)

// RecordError marks span as failed with err. A nil err is a no-op.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
