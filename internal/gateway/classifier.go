package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/stupidea/internal/cachemanager"
	"github.com/zjrosen/stupidea/internal/highlight"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/tracing"
)

// LineKey identifies a tokenized line classified by a given model.
type LineKey string

func lineKey(model string, tokens []string) LineKey {
	return LineKey(model + "\x00" + strings.Join(tokens, "\x1f"))
}

// Classifier colours tokenized lines with the model. It satisfies
// highlight.Classifier.
type Classifier struct {
	gen    Generator
	cache  cachemanager.CacheManager[LineKey, []highlight.Color]
	ttl    time.Duration
	tracer trace.Tracer
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithLineCache remembers per-line colours for ttl. Only lines whose colour
// count matched their token count are stored.
func WithLineCache(cache cachemanager.CacheManager[LineKey, []highlight.Color], ttl time.Duration) ClassifierOption {
	return func(c *Classifier) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithClassifyTracer sets the tracer for classification spans.
func WithClassifyTracer(t trace.Tracer) ClassifierOption {
	return func(c *Classifier) { c.tracer = t }
}

// NewClassifier creates a classifier backed by gen.
func NewClassifier(gen Generator, opts ...ClassifierOption) *Classifier {
	c := &Classifier{gen: gen, tracer: noop.NewTracerProvider().Tracer("")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type classifyResponse struct {
	Lines []struct {
		Colors []string `json:"colors"`
	} `json:"lines"`
}

// Classify returns one colour sequence per input line. An input with no
// tokens at all makes no call. A response that cannot be decoded colours
// every token gray and is not cached; a generator error is returned as is.
// A full pass (highlight.IsFullPass) sends every line and only refreshes
// the cache.
func (c *Classifier) Classify(ctx context.Context, model string, lines [][]string) ([][]highlight.Color, error) {
	if allEmpty(lines) {
		return [][]highlight.Color{}, nil
	}

	ctx, span := c.tracer.Start(ctx, tracing.SpanClassify, trace.WithAttributes(
		attribute.String(tracing.AttrModel, model),
		attribute.Int(tracing.AttrLines, len(lines)),
	))
	defer span.End()

	out := make([][]highlight.Color, len(lines))
	todo := make([]int, 0, len(lines))
	full := highlight.IsFullPass(ctx)
	span.SetAttributes(attribute.Bool(tracing.AttrFullPass, full))
	if c.cache != nil && !full {
		keys := make([]LineKey, len(lines))
		for i, toks := range lines {
			keys[i] = lineKey(model, toks)
		}
		found, _ := c.cache.GetMultiple(ctx, keys)
		for i, k := range keys {
			if colors, ok := found[k]; ok {
				out[i] = colors
				continue
			}
			todo = append(todo, i)
		}
		span.SetAttributes(attribute.Int(tracing.AttrCachedLines, len(lines)-len(todo)))
	} else {
		for i := range lines {
			todo = append(todo, i)
		}
	}
	if len(todo) == 0 {
		return out, nil
	}

	missing := make([][]string, len(todo))
	for j, i := range todo {
		missing[j] = lines[i]
	}

	colors, fellBack, err := c.request(ctx, model, missing)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	store := c.cache != nil && !fellBack

	for j, i := range todo {
		if j >= len(colors) {
			break
		}
		out[i] = colors[j]
		if store && len(colors[j]) == len(lines[i]) {
			c.cache.Set(ctx, lineKey(model, lines[i]), colors[j], c.ttl)
		}
	}
	return out, nil
}

// request asks the model for colours. fellBack is true when the reply could
// not be decoded and every token was coloured gray instead.
func (c *Classifier) request(ctx context.Context, model string, lines [][]string) (colors [][]highlight.Color, fellBack bool, err error) {
	payload, err := json.Marshal(struct {
		TokenizedLines [][]string `json:"tokenizedLines"`
	}{lines})
	if err != nil {
		return nil, false, fmt.Errorf("encoding tokens: %w", err)
	}

	text, err := c.gen.Generate(ctx, Request{
		Model:      model,
		System:     classifySystem,
		Prompt:     "Input:\n" + string(payload),
		Schema:     classifySchema(),
		NoThinking: true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("classify: %w", err)
	}

	colors, err = decodeColors(text)
	if err != nil {
		log.Warn(log.CatGateway, "unparseable highlighting response, using gray",
			"model", model, "lines", len(lines), "error", err)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(tracing.AttrFallback, true))
		return grayFor(lines), true, nil
	}
	if len(colors) != len(lines) {
		log.Warn(log.CatGateway, "highlighting response line count mismatch",
			"model", model, "want", len(lines), "got", len(colors))
	}
	return colors, false, nil
}

func decodeColors(text string) ([][]highlight.Color, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var resp classifyResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, err
	}
	if resp.Lines == nil {
		return nil, fmt.Errorf("response has no lines")
	}
	out := make([][]highlight.Color, len(resp.Lines))
	for i, l := range resp.Lines {
		out[i] = make([]highlight.Color, len(l.Colors))
		for j, raw := range l.Colors {
			out[i][j] = highlight.ParseColor(raw)
		}
	}
	return out, nil
}

func grayFor(lines [][]string) [][]highlight.Color {
	out := make([][]highlight.Color, len(lines))
	for i, toks := range lines {
		out[i] = make([]highlight.Color, len(toks))
		for j := range toks {
			out[i][j] = highlight.Gray
		}
	}
	return out
}

func allEmpty(lines [][]string) bool {
	for _, l := range lines {
		if len(l) > 0 {
			return false
		}
	}
	return true
}
