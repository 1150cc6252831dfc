package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newOllamaTestServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req ollamaEmbedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			resp := ollamaEmbedResponse{Model: req.Model}
			for i := range req.Input {
				vec := make([]float32, dims)
				vec[i%dims] = 1.0
				resp.Embeddings = append(resp.Embeddings, vec)
			}
			json.NewEncoder(w).Encode(resp)
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/show":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOllamaEmbed(t *testing.T) {
	server := newOllamaTestServer(t, 4)
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{URL: server.URL, Dimensions: 4})

	vec, err := p.Embed(context.Background(), "tour dates for 2025")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("Expected 4 dimensions, got %d", len(vec))
	}
}

func TestOllamaEmbed_Empty(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{URL: "http://localhost:1"})

	_, err := p.Embed(context.Background(), "")
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestOllamaEmbedBatch(t *testing.T) {
	server := newOllamaTestServer(t, 4)
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{URL: server.URL, Dimensions: 4})

	texts := []string{"first chunk", "second chunk", "third chunk"}
	vecs, err := p.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("Expected %d embeddings, got %d", len(texts), len(vecs))
	}
	// The test server marks each vector by input position
	for i, vec := range vecs {
		if vec[i%4] != 1.0 {
			t.Errorf("Embedding %d not in input order", i)
		}
	}
}

func TestOllamaEmbedBatch_EmptyText(t *testing.T) {
	server := newOllamaTestServer(t, 4)
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{URL: server.URL, Dimensions: 4})

	_, err := p.EmbedBatch(context.Background(), []string{"ok", ""})
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestOllamaEmbed_DimensionMismatch(t *testing.T) {
	server := newOllamaTestServer(t, 4)
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{
		URL:           server.URL,
		Dimensions:    8,
		MaxRetries:    1,
		RetryInterval: time.Millisecond,
	})

	_, err := p.Embed(context.Background(), "some text")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestOllamaEmbed_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ollamaErrorResponse{Error: "model \"missing\" not found"})
	}))
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{
		URL:           server.URL,
		Model:         "missing",
		MaxRetries:    1,
		RetryInterval: time.Millisecond,
	})

	_, err := p.Embed(context.Background(), "some text")
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Provider != "ollama" {
		t.Errorf("Expected provider ollama, got %s", provErr.Provider)
	}
}

func TestOllamaPing(t *testing.T) {
	server := newOllamaTestServer(t, 4)
	defer server.Close()

	p := NewOllamaProvider(OllamaConfig{URL: server.URL})
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestOllamaPing_Unavailable(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{URL: "http://localhost:1", Timeout: time.Second})

	err := p.Ping(context.Background())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}
}

func TestNewFactory(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantErr  bool
		wantType string
	}{
		{"default is ollama", Options{}, false, "ollama"},
		{"explicit ollama", Options{Provider: "ollama", Model: "custom"}, false, "ollama"},
		{"openai", Options{Provider: "openai", APIKey: "sk-test"}, false, "openai"},
		{"unknown", Options{Provider: "faiss"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			switch tt.wantType {
			case "ollama":
				if _, ok := p.(*OllamaProvider); !ok {
					t.Errorf("Expected OllamaProvider, got %T", p)
				}
			case "openai":
				if _, ok := p.(*OpenAIProvider); !ok {
					t.Errorf("Expected OpenAIProvider, got %T", p)
				}
			}
		})
	}
}
