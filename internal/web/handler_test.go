package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gigdex/internal/corpus"
)

const testDims = 32

type letterEmbedder struct{}

func (e *letterEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, testDims)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			vec[int(word[0])%testDims]++
		}
		out[i] = vec
	}
	return out, nil
}

func (e *letterEmbedder) Model() string              { return "letters" }
func (e *letterEmbedder) Dimensions() int            { return testDims }
func (e *letterEmbedder) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T) (*Server, *corpus.Corpus) {
	t.Helper()
	c, err := corpus.Open(t.TempDir(), &letterEmbedder{}, corpus.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return NewServer(ServerConfig{Host: "localhost", Port: 0, Corpus: c}), c
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestCreateDocument(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/documents", map[string]string{
		"text": "The 2025 tour opens at the arena.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var doc corpus.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if doc.ID == "" {
		t.Error("Expected document ID in response")
	}
	if doc.Caption == "" {
		t.Error("Expected generated caption")
	}
}

func TestCreateDocument_EmptyText(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/documents", map[string]string{"text": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestCreateDocument_BadBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/documents", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	if _, err := c.Ingest(ctx, "alpha alpha alpha", "alpha doc"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Ingest(ctx, "beta beta beta", "beta doc"); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s, "GET", "/api/search?q=alpha&k=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Query   string                `json:"query"`
		Count   int                   `json:"count"`
		Results []corpus.SearchResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("Expected 1 result, got %d", resp.Count)
	}
	if resp.Results[0].Caption != "alpha doc" {
		t.Errorf("Expected alpha doc first, got %q", resp.Results[0].Caption)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestSearch_EmptyCorpus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/search?q=anything", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Count   int           `json:"count"`
		Results []interface{} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if resp.Count != 0 || resp.Results == nil {
		t.Errorf("Expected empty results array, got %s", rec.Body.String())
	}
}

func TestGetDocument(t *testing.T) {
	s, c := newTestServer(t)

	docID, err := c.Ingest(context.Background(), "gamma gamma", "gamma doc")
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s, "GET", "/api/documents/"+docID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var doc corpus.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if doc.ID != docID {
		t.Errorf("Expected document %s, got %s", docID, doc.ID)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/documents/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestGetDocumentChunks(t *testing.T) {
	s, c := newTestServer(t)

	docID, err := c.Ingest(context.Background(), "delta delta delta", "")
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s, "GET", "/api/documents/"+docID+"/chunks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		DocumentID string         `json:"document_id"`
		Count      int            `json:"count"`
		Chunks     []corpus.Chunk `json:"chunks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if resp.Count < 1 {
		t.Errorf("Expected at least 1 chunk, got %d", resp.Count)
	}

	rec = doJSON(t, s, "GET", "/api/documents/missing/chunks", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing document, got %d", rec.Code)
	}
}

func TestListDocuments(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	c.Ingest(ctx, "one one", "")
	c.Ingest(ctx, "two two", "")

	rec := doJSON(t, s, "GET", "/api/documents", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Count     int               `json:"count"`
		Documents []corpus.Document `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Expected 2 documents, got %d", resp.Count)
	}
}

func TestStatus(t *testing.T) {
	s, c := newTestServer(t)

	c.Ingest(context.Background(), "epsilon epsilon", "")

	rec := doJSON(t, s, "GET", "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var stats corpus.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if stats.Documents != 1 {
		t.Errorf("Expected 1 document, got %d", stats.Documents)
	}
	if stats.Dimensions != testDims {
		t.Errorf("Expected dimension %d, got %d", testDims, stats.Dimensions)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected health body: %s", rec.Body.String())
	}
}
