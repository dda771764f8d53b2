package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/generator"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/store"
	"github.com/lectern/lectern/internal/tools"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	vs, err := store.New(store.Config{
		Path:       cfg.StorePath,
		Embedding:  store.NewEmbeddingFunc(embedder),
		MaxResults: cfg.MaxResults,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	a.Store = vs

	a.Sessions = session.New(cfg.MaxHistory, logger)

	registry, refs, err := provideTools(g, vs, logger)
	if err != nil {
		return nil, err
	}
	a.Registry = registry

	orchestrator, err := provideGenerator(g, cfg, registry, refs, logger)
	if err != nil {
		return nil, err
	}

	processor, err := course.NewProcessor(cfg.ChunkSize, cfg.ChunkOverlap, logger)
	if err != nil {
		return nil, fmt.Errorf("creating document processor: %w", err)
	}

	system, err := rag.New(rag.Config{
		Processor: processor,
		Store:     vs,
		Sessions:  a.Sessions,
		Generator: orchestrator,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating rag system: %w", err)
	}
	a.System = system

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default) and ollama providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	var g *genkit.Genkit

	switch provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		// Register embedder for retrieval
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider plugin.
// Each provider registers embedders differently:
//   - gemini: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default: // gemini
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideTools creates the retrieval tools, registers them with Genkit and
// the registry, and returns both the registry and the cached tool refs.
func provideTools(g *genkit.Genkit, vs *store.Store, logger log.Logger) (*tools.Registry, []ai.ToolRef, error) {
	registry := tools.NewRegistry(logger)

	searchTool, err := tools.NewSearch(vs, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating search tool: %w", err)
	}
	outlineTool, err := tools.NewOutline(vs, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating outline tool: %w", err)
	}

	for _, t := range []tools.Tool{searchTool, outlineTool} {
		if err := registry.Register(t); err != nil {
			return nil, nil, fmt.Errorf("registering tool: %w", err)
		}
	}

	refs := registry.Define(g)
	logger.Info("tools registered at construction", "count", len(refs))
	return registry, refs, nil
}

// provideGenerator creates the rate-limited model and the two-pass
// orchestrator on top of it.
func provideGenerator(g *genkit.Genkit, cfg *config.Config, registry *tools.Registry, refs []ai.ToolRef, logger log.Logger) (*generator.Orchestrator, error) {
	model, err := generator.NewGenkitModel(generator.GenkitModelConfig{
		Genkit:      g,
		ModelName:   cfg.FullModelName(),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model: %w", err)
	}

	orchestrator, err := generator.New(generator.Config{
		Model:    model,
		Executor: registry,
		ToolRefs: refs,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}
	return orchestrator, nil
}
