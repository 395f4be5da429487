// Package gemini implements gateway.Generator on the Gemini API.
package gemini

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/genai"

	"github.com/zjrosen/stupidea/internal/gateway"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/tracing"
)

// Generator calls Gemini models.
type Generator struct {
	client *genai.Client
	tracer trace.Tracer
}

// New connects to the Gemini API with apiKey.
func New(ctx context.Context, apiKey string, tracer trace.Tracer) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Generator{client: client, tracer: tracer}, nil
}

// Generate implements gateway.Generator.
func (g *Generator) Generate(ctx context.Context, req gateway.Request) (string, error) {
	ctx, span := g.tracer.Start(ctx, tracing.SpanGenerate, trace.WithAttributes(
		attribute.String(tracing.AttrModel, req.Model),
	))
	defer span.End()

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), buildConfig(req))
	if err != nil {
		tracing.RecordError(span, err)
		log.Warn(log.CatGateway, "generate failed", "model", req.Model, "error", err)
		return "", err
	}
	text := resp.Text()
	if text == "" {
		tracing.RecordError(span, gateway.ErrEmptyResponse)
		return "", gateway.ErrEmptyResponse
	}
	return text, nil
}

func buildConfig(req gateway.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(req.Schema)
	}
	if req.NoThinking {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
	}
	return cfg
}

func toSchema(s *gateway.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toSchema(v)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case gateway.TypeObject:
		return genai.TypeObject
	case gateway.TypeArray:
		return genai.TypeArray
	case gateway.TypeString:
		return genai.TypeString
	default:
		return genai.TypeUnspecified
	}
}
