package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// Model is the slice of the LLM backend the orchestrator depends on.
// Interfaces are defined by the consumer; GenkitModel satisfies this, and
// tests substitute scripted fakes.
type Model interface {
	Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)
}

// GenkitModel adapts a Genkit instance to the Model interface, pinning the
// provider-qualified model name and rate limiting every call.
type GenkitModel struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	maxTokens   int
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// GenkitModelConfig contains the parameters for GenkitModel.
type GenkitModelConfig struct {
	Genkit      *genkit.Genkit
	ModelName   string // Provider-qualified, e.g. "googleai/gemini-2.5-flash"
	Temperature float32
	MaxTokens   int
	RateLimiter *rate.Limiter // Optional; nil uses the default limiter
	Logger      *slog.Logger
}

// NewGenkitModel creates a rate-limited Genkit-backed model.
func NewGenkitModel(cfg GenkitModelConfig) (*GenkitModel, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("model name is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Default: 10 requests/sec sustained, burst of 30.
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	return &GenkitModel{
		g:           cfg.Genkit,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		rateLimiter: rl,
		logger:      cfg.Logger,
	}, nil
}

// Generate waits for rate limiter clearance, then delegates to Genkit with
// the configured model name and generation parameters prepended. Caller
// options may extend but not precede them.
func (m *GenkitModel) Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	if err := m.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	base := []ai.GenerateOption{
		ai.WithModelName(m.modelName),
	}
	config := &ai.GenerationCommonConfig{
		Temperature: float64(m.temperature),
	}
	if m.maxTokens > 0 {
		config.MaxOutputTokens = m.maxTokens
	}
	base = append(base, ai.WithConfig(config))

	resp, err := genkit.Generate(ctx, m.g, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
