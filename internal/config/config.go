// Package config loads gigdex configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultDataDir is the default directory name for gigdex data
	DefaultDataDir = ".gigdex"
	// DefaultConfigFile is the default config filename
	DefaultConfigFile = "config.yaml"
	// CacheFileName is the embedding cache filename inside the data dir
	CacheFileName = "cache.db"
)

// Config holds the application configuration
type Config struct {
	// DataDir is the directory where gigdex stores its corpus and cache
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`

	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding,omitempty"`
	Chunking  ChunkingConfig  `mapstructure:"chunking" yaml:"chunking,omitempty"`
	Ingest    IngestConfig    `mapstructure:"ingest" yaml:"ingest,omitempty"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server,omitempty"`
}

// EmbeddingConfig holds embedding provider settings
type EmbeddingConfig struct {
	// Provider is the embedding provider: "ollama" or "openai"
	Provider string `mapstructure:"provider" yaml:"provider,omitempty"`
	// Model is the embedding model name
	Model string `mapstructure:"model" yaml:"model,omitempty"`
	// URL is the provider base URL
	URL string `mapstructure:"url" yaml:"url,omitempty"`
	// Dimensions is the embedding vector dimensions
	Dimensions int `mapstructure:"dimensions" yaml:"dimensions,omitempty"`
	// OpenAIAPIKey is the API key for OpenAI (also OPENAI_API_KEY env)
	OpenAIAPIKey string `mapstructure:"openai_api_key" yaml:"openai_api_key,omitempty"`
	// CacheEnabled toggles the persistent embedding cache
	CacheEnabled bool `mapstructure:"cache_enabled" yaml:"cache_enabled,omitempty"`
}

// ChunkingConfig holds document splitting settings
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk size in characters
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size,omitempty"`
	// ChunkOverlap is the overlap between adjacent chunks in characters
	ChunkOverlap int `mapstructure:"chunk_overlap" yaml:"chunk_overlap,omitempty"`
}

// IngestConfig holds bulk ingestion settings
type IngestConfig struct {
	// Extensions are the file extensions picked up by directory ingestion
	Extensions []string `mapstructure:"extensions" yaml:"extensions,omitempty"`
	// IgnoreFile names an optional gitignore-style pattern file
	IgnoreFile string `mapstructure:"ignore_file" yaml:"ignore_file,omitempty"`
	// MaxFileSize is the maximum file size to ingest in bytes
	MaxFileSize int64 `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`
	// RelevantOnly skips files that do not look like concert documents
	RelevantOnly bool `mapstructure:"relevant_only" yaml:"relevant_only,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	// Host is the server bind address
	Host string `mapstructure:"host" yaml:"host,omitempty"`
	// Port is the server port
	Port int `mapstructure:"port" yaml:"port,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Embedding: EmbeddingConfig{
			Provider:     "ollama",
			Model:        "nomic-embed-text",
			URL:          "http://localhost:11434",
			Dimensions:   768,
			CacheEnabled: true,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Ingest: IngestConfig{
			Extensions:  []string{".txt", ".md"},
			IgnoreFile:  ".gigdexignore",
			MaxFileSize: 1024 * 1024, // 1MB
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// Load loads configuration from the config file in the data directory,
// with GIGDEX_* environment overrides on top of defaults.
func Load(baseDir string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(baseDir, DefaultDataDir))
	v.AddConfigPath(".")

	v.SetEnvPrefix("GIGDEX")
	v.AutomaticEnv()

	_ = v.BindEnv("data_dir", "GIGDEX_DATA_DIR")
	_ = v.BindEnv("embedding.provider", "GIGDEX_EMBEDDING_PROVIDER")
	_ = v.BindEnv("embedding.model", "GIGDEX_EMBEDDING_MODEL")
	_ = v.BindEnv("embedding.url", "GIGDEX_EMBEDDING_URL")
	_ = v.BindEnv("embedding.dimensions", "GIGDEX_EMBEDDING_DIMENSIONS")
	_ = v.BindEnv("embedding.openai_api_key", "GIGDEX_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("server.host", "GIGDEX_HOST")
	_ = v.BindEnv("server.port", "GIGDEX_PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(baseDir, cfg.DataDir)
	}

	return cfg, nil
}

// CachePath returns the embedding cache location.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, CacheFileName)
}

// EnsureDataDir creates the data directory if it doesn't exist
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

// WriteDefaultConfig writes the default config file to the data directory
// unless one already exists.
func (c *Config) WriteDefaultConfig() error {
	configPath := filepath.Join(c.DataDir, DefaultConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	v := viper.New()
	v.Set("embedding.provider", c.Embedding.Provider)
	v.Set("embedding.model", c.Embedding.Model)
	v.Set("embedding.url", c.Embedding.URL)
	v.Set("embedding.dimensions", c.Embedding.Dimensions)
	v.Set("embedding.cache_enabled", c.Embedding.CacheEnabled)
	v.Set("chunking.chunk_size", c.Chunking.ChunkSize)
	v.Set("chunking.chunk_overlap", c.Chunking.ChunkOverlap)
	v.Set("ingest.extensions", c.Ingest.Extensions)
	v.Set("ingest.ignore_file", c.Ingest.IgnoreFile)
	v.Set("ingest.max_file_size", c.Ingest.MaxFileSize)
	v.Set("server.host", c.Server.Host)
	v.Set("server.port", c.Server.Port)

	return v.WriteConfigAs(configPath)
}
