package embed

import (
	"fmt"
)

// Options selects and configures an embedding backend.
type Options struct {
	Provider   string // "ollama" or "openai"
	URL        string
	Model      string
	Dimensions int
	APIKey     string
}

// New builds a Provider from Options.
func New(opts Options) (Provider, error) {
	switch opts.Provider {
	case "", "ollama":
		cfg := DefaultOllamaConfig()
		if opts.URL != "" {
			cfg.URL = opts.URL
		}
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.Dimensions > 0 {
			cfg.Dimensions = opts.Dimensions
		}
		return NewOllamaProvider(cfg), nil
	case "openai":
		cfg := DefaultOpenAIConfig()
		if opts.URL != "" {
			cfg.BaseURL = opts.URL
		}
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.Dimensions > 0 {
			cfg.Dimensions = opts.Dimensions
		}
		if opts.APIKey != "" {
			cfg.APIKey = opts.APIKey
		}
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", opts.Provider)
	}
}
