package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("Expected default provider ollama, got %s", cfg.Embedding.Provider)
	}
	if cfg.Chunking.ChunkSize != 500 {
		t.Errorf("Expected chunk size 500, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.ChunkOverlap != 50 {
		t.Errorf("Expected chunk overlap 50, got %d", cfg.Chunking.ChunkOverlap)
	}
	if !cfg.Embedding.CacheEnabled {
		t.Error("Expected cache enabled by default")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("Expected default model, got %s", cfg.Embedding.Model)
	}
	if cfg.DataDir != filepath.Join(dir, DefaultDataDir) {
		t.Errorf("Expected data dir under %s, got %s", dir, cfg.DataDir)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, DefaultDataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}

	body := []byte("embedding:\n  model: custom-model\n  dimensions: 384\nserver:\n  port: 9999\n")
	if err := os.WriteFile(filepath.Join(dataDir, "config.yaml"), body, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embedding.Model != "custom-model" {
		t.Errorf("Expected custom-model, got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("Expected 384 dimensions, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
	}
	// Values not in the file keep their defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected default host, got %s", cfg.Server.Host)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GIGDEX_EMBEDDING_MODEL", "env-model")
	t.Setenv("GIGDEX_PORT", "7777")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Embedding.Model != "env-model" {
		t.Errorf("Expected env-model, got %s", cfg.Embedding.Model)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Expected port 7777, got %d", cfg.Server.Port)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(dir, DefaultDataDir)

	if err := cfg.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}
	if err := cfg.WriteDefaultConfig(); err != nil {
		t.Fatalf("WriteDefaultConfig failed: %v", err)
	}

	configPath := filepath.Join(cfg.DataDir, DefaultConfigFile)
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Config file not written: %v", err)
	}

	// Loading the written file reproduces the defaults
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Embedding.Model != cfg.Embedding.Model {
		t.Errorf("Round-trip changed model: %s", loaded.Embedding.Model)
	}
	if loaded.Chunking.ChunkSize != cfg.Chunking.ChunkSize {
		t.Errorf("Round-trip changed chunk size: %d", loaded.Chunking.ChunkSize)
	}
}
