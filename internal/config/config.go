// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, prefixed LECTERN_)
//  2. Config file (~/.lectern/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: provider, model selection, temperature, max tokens, embedder
//   - Ingestion: document directory, chunk size, chunk overlap
//   - Retrieval: max search results, conversation history depth
//   - Server: listen address, vector store path
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunking indicates the chunk size/overlap combination is invalid.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidMaxResults indicates the search result limit is out of range.
	ErrInvalidMaxResults = errors.New("invalid max results")

	// ErrInvalidMaxHistory indicates the conversation history depth is out of range.
	ErrInvalidMaxHistory = errors.New("invalid max history")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Default values applied when neither the environment nor the config file
// sets a key. Chunking and retrieval defaults match the sizes the ingestion
// pipeline was tuned with.
const (
	DefaultModelName     = "gemini-2.5-flash"
	DefaultEmbedderModel = "gemini-embedding-001"
	DefaultChunkSize     = 800
	DefaultChunkOverlap  = 100
	DefaultMaxResults    = 5
	DefaultMaxHistory    = 2
	DefaultAddr          = "127.0.0.1:8000"
	DefaultDocsDir       = "docs"
)

// Config stores application configuration.
// A single instance is loaded at startup and passed by reference to
// constructors; components never read viper directly.
type Config struct {
	// AI provider and model configuration
	Provider    string  `mapstructure:"provider"`   // "gemini" (default), "ollama"
	ModelName   string  `mapstructure:"model_name"` // Model identifier (e.g., "gemini-2.5-flash", "llama3.3")
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host"`

	// Embedding configuration
	EmbedderModel string `mapstructure:"embedder_model"`

	// Ingestion configuration
	DocsDir      string `mapstructure:"docs_dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`

	// Retrieval configuration
	MaxResults int `mapstructure:"max_results"`
	MaxHistory int `mapstructure:"max_history"`

	// Server configuration
	Addr      string `mapstructure:"addr"`
	StorePath string `mapstructure:"store_path"` // empty = in-memory vector store
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.lectern/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".lectern")

	// Ensure directory exists (0750: owner rwx, group rx)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (missing file is fine, defaults apply)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values with viper.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("temperature", 0.0)
	viper.SetDefault("max_tokens", 800)
	viper.SetDefault("ollama_host", "http://localhost:11434")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("docs_dir", DefaultDocsDir)
	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)
	viper.SetDefault("max_results", DefaultMaxResults)
	viper.SetDefault("max_history", DefaultMaxHistory)
	viper.SetDefault("addr", DefaultAddr)
	viper.SetDefault("store_path", "")
}

// bindEnvVariables binds LECTERN_* environment variables to config keys.
func bindEnvVariables() {
	viper.SetEnvPrefix("LECTERN")
	viper.AutomaticEnv()

	keys := []string{
		"provider",
		"model_name",
		"temperature",
		"max_tokens",
		"ollama_host",
		"embedder_model",
		"docs_dir",
		"chunk_size",
		"chunk_overlap",
		"max_results",
		"max_history",
		"addr",
		"store_path",
	}
	for _, key := range keys {
		mustBind(key)
	}
}

// mustBind binds a single environment variable and panics on failure.
// BindEnv only fails when called with zero arguments, so a panic here
// indicates a programming error, not a runtime condition.
func mustBind(key string) {
	if err := viper.BindEnv(key); err != nil {
		panic(fmt.Sprintf("binding env variable %q: %v", key, err))
	}
}

// FullModelName returns the provider-qualified model name used by Genkit
// (e.g. "googleai/gemini-2.5-flash", "ollama/llama3.3").
func (c *Config) FullModelName() string {
	switch c.Provider {
	case ProviderOllama:
		return "ollama/" + c.ModelName
	default:
		return "googleai/" + c.ModelName
	}
}
