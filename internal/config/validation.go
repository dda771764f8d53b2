package config

import (
	"fmt"
	"os"
)

// Temperature and token limits accepted by the supported providers.
const (
	MinTemperature float32 = 0.0
	MaxTemperature float32 = 2.0
	MinMaxTokens           = 1
	MaxMaxTokens           = 65536
)

// Validate checks that the configuration is internally consistent.
// It does not verify provider credentials; see ValidateProvider.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (supported: gemini, ollama)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}

	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: %.2f (must be between %.1f and %.1f)",
			ErrInvalidTemperature, c.Temperature, MinTemperature, MaxTemperature)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: %d (must be between %d and %d)",
			ErrInvalidMaxTokens, c.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be non-negative and smaller than chunk size %d",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: %d must be positive", ErrInvalidMaxResults, c.MaxResults)
	}
	if c.MaxHistory < 0 {
		return fmt.Errorf("%w: %d must be non-negative", ErrInvalidMaxHistory, c.MaxHistory)
	}

	if c.Provider == ProviderOllama && c.OllamaHost == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidOllamaHost)
	}

	return nil
}

// ValidateProvider checks that credentials for the configured provider are
// present. Split from Validate so offline commands (version, config checks)
// can load configuration without an API key in the environment.
func (c *Config) ValidateProvider() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.Provider == ProviderGemini || c.Provider == "" {
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			return fmt.Errorf("%w: set GEMINI_API_KEY or GOOGLE_API_KEY", ErrMissingAPIKey)
		}
	}

	return nil
}
