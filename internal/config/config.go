// Package config loads and validates the engine configuration. The engine
// consumes this configuration; it never produces or mutates it.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Embedding provider and vector store backend identifiers. Backend selection
// is a closed set chosen at construction time, never runtime plugin loading.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	StoreSQLite = "sqlite"
	StoreFlat   = "flat"
	StoreMemory = "memory"
)

// Config holds every knob the indexing and retrieval engine consumes.
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// Discovery
	ProjectRoot      string   `mapstructure:"project_root"`
	IndexDir         string   `mapstructure:"index_dir"`
	IncludeGlobs     []string `mapstructure:"include_globs"`
	ExcludeGlobs     []string `mapstructure:"exclude_globs"`
	MaxFileSize      int64    `mapstructure:"max_file_size"`
	RespectGitignore bool     `mapstructure:"respect_gitignore"`

	// Chunking (token units)
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	// Retrieval
	MaxResults    int     `mapstructure:"max_results"`
	MinScore      float64 `mapstructure:"min_score"`
	ContextTokens int     `mapstructure:"context_tokens"`

	// Embedding
	EmbeddingProvider string `mapstructure:"embedding_provider"`
	EmbeddingModel    string `mapstructure:"embedding_model"`
	OllamaHost        string `mapstructure:"ollama_host"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`

	// Storage
	VectorStore string `mapstructure:"vector_store"`

	// Indexing
	Workers int `mapstructure:"workers"`
}

// setDefaults registers defaults so a missing config file still yields a
// working engine.
func setDefaults(v *viper.Viper) {
	v.SetDefault("enabled", true)
	v.SetDefault("project_root", ".")
	v.SetDefault("index_dir", ".raglite")
	v.SetDefault("include_globs", []string{"**/*"})
	v.SetDefault("exclude_globs", []string{
		"**/.git/**", "**/node_modules/**", "**/vendor/**", "**/.raglite/**",
	})
	v.SetDefault("max_file_size", int64(1<<20))
	v.SetDefault("respect_gitignore", true)
	v.SetDefault("chunk_size", 512)
	v.SetDefault("chunk_overlap", 64)
	v.SetDefault("max_results", 10)
	v.SetDefault("min_score", 0.2)
	v.SetDefault("context_tokens", 2000)
	v.SetDefault("embedding_provider", ProviderOllama)
	v.SetDefault("embedding_model", "nomic-embed-text")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("vector_store", StoreSQLite)
	v.SetDefault("workers", 0) // 0 = runtime.NumCPU()
}

// Load reads configuration from the given file (optional), environment
// variables prefixed RAGLITE_, and defaults, in flags > env > file > default
// precedence.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RAGLITE")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("raglite")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching disk.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderOllama, ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.EmbeddingProvider)
	}
	switch c.VectorStore {
	case StoreSQLite, StoreFlat, StoreMemory:
	default:
		return fmt.Errorf("unknown vector store backend %q", c.VectorStore)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score must be in [0,1], got %f", c.MinScore)
	}
	return nil
}

// StatePath returns the location of the persisted index state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.IndexDir, "state.json")
}
