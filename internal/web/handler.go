package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gigdex/internal/corpus"
	"gigdex/internal/docproc"
	"gigdex/internal/version"
)

const defaultSearchLimit = 5

// Handler handles JSON API requests.
type Handler struct {
	corpus *corpus.Corpus
}

// NewHandler creates a new Handler.
func NewHandler(c *corpus.Corpus) *Handler {
	return &Handler{corpus: c}
}

// createDocumentRequest is the body for POST /api/documents.
type createDocumentRequest struct {
	Text    string `json:"text"`
	Caption string `json:"caption"`
}

// CreateDocument ingests a document and returns its ID.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		h.jsonError(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.Caption == "" {
		req.Caption = docproc.Caption(req.Text)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	docID, err := h.corpus.Ingest(ctx, req.Text, req.Caption)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	doc, err := h.corpus.GetDocument(docID)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

// Search runs a semantic search over the corpus.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.jsonError(w, "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	k := defaultSearchLimit
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		if parsed, err := strconv.Atoi(kStr); err == nil && parsed > 0 {
			k = parsed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	results, err := h.corpus.Search(ctx, query, k)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []corpus.SearchResult{}
	}

	h.jsonResponse(w, map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// ListDocuments returns all documents in ingestion order.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := h.corpus.ListDocuments()
	h.jsonResponse(w, map[string]interface{}{
		"count":     len(docs),
		"documents": docs,
	})
}

// GetDocument returns one document by ID.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.corpus.GetDocument(id)
	if err != nil {
		if errors.Is(err, corpus.ErrNotFound) {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, doc)
}

// GetDocumentChunks returns a document's chunks in position order.
func (h *Handler) GetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	chunks, err := h.corpus.ChunksOf(id)
	if err != nil {
		if errors.Is(err, corpus.ErrNotFound) {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, map[string]interface{}{
		"document_id": id,
		"count":       len(chunks),
		"chunks":      chunks,
	})
}

// Status reports corpus statistics.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.corpus.Stats())
}

// Health is a liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]string{
		"status":  "ok",
		"version": version.Short(),
	})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
