// Package gateway talks to the language model that colours and compiles
// StupiD code. The model itself sits behind Generator; this package owns the
// prompts, the response decoding and the caches in front of it.
package gateway

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("empty response from model")

// Type names used in Schema.
const (
	TypeObject = "object"
	TypeArray  = "array"
	TypeString = "string"
)

// Schema is the subset of JSON schema the generators understand.
type Schema struct {
	Type        string
	Description string
	Enum        []string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
}

// Request is one model call.
type Request struct {
	Model  string
	System string
	Prompt string
	// Schema, when set, asks for a JSON response matching it.
	Schema *Schema
	// NoThinking disables the model's reasoning budget.
	NoThinking bool
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// DefaultModel is used for both classification and compilation unless
// configured otherwise.
const DefaultModel = "gemini-2.5-flash"

// Models lists the model choices offered by the settings form.
func Models() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-2.5-flash-lite",
		"gemini-2.0-flash",
		"gemini-2.0-flash-lite",
		"gemma-3n-e2b-it",
		"gemma-3n-e4b-it",
		"gemma-3-1b-it",
		"gemma-3-4b-it",
		"gemma-3-12b-it",
		"gemma-3-27b-it",
	}
}

// KnownModel reports whether name is one of Models.
func KnownModel(name string) bool {
	for _, m := range Models() {
		if m == name {
			return true
		}
	}
	return false
}
