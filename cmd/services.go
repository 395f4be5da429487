package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/stupidea/internal/cachemanager"
	"github.com/zjrosen/stupidea/internal/config"
	"github.com/zjrosen/stupidea/internal/gateway"
	"github.com/zjrosen/stupidea/internal/gateway/gemini"
	"github.com/zjrosen/stupidea/internal/highlight"
	"github.com/zjrosen/stupidea/internal/history"
	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/sandbox"
	"github.com/zjrosen/stupidea/internal/tracing"
)

// services are the collaborators shared by the TUI and the headless
// subcommands.
type services struct {
	tracing    *tracing.Provider
	classifier *gateway.Classifier
	compiler   *gateway.Compiler
	sandbox    *sandbox.Sandbox
	history    *history.Store // nil when disabled or unavailable
}

func newServices(ctx context.Context, c config.Config, apiKey string) (*services, error) {
	tracingCfg := tracing.Config{
		Enabled:      c.Tracing.Enabled,
		Exporter:     c.Tracing.Exporter,
		FilePath:     c.Tracing.FilePath,
		OTLPEndpoint: c.Tracing.OTLPEndpoint,
		SampleRate:   c.Tracing.SampleRate,
	}
	if tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	tracer := provider.Tracer()

	gen, err := gemini.New(ctx, apiKey, tracer)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	classifierOpts := []gateway.ClassifierOption{gateway.WithClassifyTracer(tracer)}
	if c.Highlight.Cache.Enabled {
		cache := cachemanager.NewMemory[gateway.LineKey, []highlight.Color]("classify", c.Highlight.Cache.TTL, 0)
		classifierOpts = append(classifierOpts, gateway.WithLineCache(cache, c.Highlight.Cache.TTL))
	}

	compilerOpts := []gateway.CompilerOption{
		gateway.WithCompileTracer(tracer),
		gateway.WithCompileTimeout(c.Compile.Timeout),
	}
	if c.Compile.Cache.Enabled {
		cache := cachemanager.NewMemory[string, string]("compile", c.Compile.Cache.TTL, 0)
		compilerOpts = append(compilerOpts, gateway.WithScriptCache(cache, c.Compile.Cache.TTL))
	}

	svc := &services{
		tracing:    provider,
		classifier: gateway.NewClassifier(gen, classifierOpts...),
		compiler:   gateway.NewCompiler(gen, compilerOpts...),
		sandbox:    sandbox.New(sandbox.WithTimeout(c.Sandbox.Timeout), sandbox.WithTracer(tracer)),
	}

	if c.History.Enabled {
		store, err := history.Open(c.HistoryPath())
		if err != nil {
			// History is optional; runs still work without it.
			log.Warn(log.CatHistory, "run history disabled", "error", err)
		} else {
			svc.history = store
		}
	}
	return svc, nil
}

// Close flushes traces and closes the history store.
func (s *services) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tracing.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatConfig, "tracing shutdown failed", err)
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			log.ErrorErr(log.CatHistory, "closing history failed", err)
		}
	}
}
