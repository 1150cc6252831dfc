package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"gigdex/internal/chunk"
	"gigdex/internal/embed"
)

const (
	vectorFileName = "vectors.gdx"
	metaFileName   = "metadata.json"
)

// ErrNotFound reports a document ID with no matching document.
var ErrNotFound = errors.New("document not found")

// SearchResult is one ranked chunk. Score is 1/(1+distance), so identical
// content scores 1.0 and the score falls toward zero with distance.
type SearchResult struct {
	ChunkID    int     `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Caption    string  `json:"caption"`
	Position   int     `json:"position"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Distance   float64 `json:"distance"`
}

// Stats summarizes corpus contents.
type Stats struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	Dimensions int `json:"dimensions"`
}

// Options configures a Corpus.
type Options struct {
	Splitter chunk.SplitterConfig
	Logger   *log.Logger
}

// Corpus owns the vector index and metadata store for one data directory.
// All operations go through a single RWMutex: searches run concurrently with
// each other and exclusively with ingestion.
type Corpus struct {
	mu       sync.RWMutex
	dir      string
	provider embed.Provider
	splitter *chunk.Splitter
	index    *FlatIndex
	meta     *metaStore
	logger   *log.Logger
}

// Open loads the corpus stored in dir, creating an empty one if the
// directory holds no data yet. The stored vector dimension must match the
// provider's.
func Open(dir string, provider embed.Provider, opts Options) (*Corpus, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Corpus{
		dir:      dir,
		provider: provider,
		splitter: chunk.NewSplitter(opts.Splitter),
		logger:   logger,
	}

	vectorPath := filepath.Join(dir, vectorFileName)
	metaPath := filepath.Join(dir, metaFileName)

	_, vectorErr := os.Stat(vectorPath)
	_, metaErr := os.Stat(metaPath)
	haveVectors := vectorErr == nil
	haveMeta := metaErr == nil

	switch {
	case haveVectors && haveMeta:
		index, err := ReadIndexFile(vectorPath)
		if err != nil {
			return nil, fmt.Errorf("load vector index: %w", err)
		}
		meta, err := readMetaFile(metaPath)
		if err != nil {
			return nil, fmt.Errorf("load metadata: %w", err)
		}
		if index.Len() != len(meta.chunks) {
			return nil, fmt.Errorf("index has %d vectors but metadata has %d chunks", index.Len(), len(meta.chunks))
		}
		if index.Dim() != provider.Dimensions() {
			return nil, fmt.Errorf("stored dimension %d does not match provider dimension %d", index.Dim(), provider.Dimensions())
		}
		c.index = index
		c.meta = meta
		logger.Debug("corpus loaded", "dir", dir, "documents", len(meta.docs), "chunks", len(meta.chunks))

	case !haveVectors && !haveMeta:
		index, err := NewFlatIndex(provider.Dimensions())
		if err != nil {
			return nil, err
		}
		c.index = index
		c.meta = newMetaStore()

	default:
		return nil, fmt.Errorf("corpus files out of sync in %s: vectors present=%t, metadata present=%t", dir, haveVectors, haveMeta)
	}

	return c, nil
}

// Close releases the corpus handle. Data is flushed on every mutation, so
// there is nothing left to write.
func (c *Corpus) Close() error {
	return nil
}

// Dir returns the corpus data directory.
func (c *Corpus) Dir() string {
	return c.dir
}

// Ingest chunks and embeds text, then commits the document to the index and
// metadata store together. Text that yields no chunks still records a
// document, just with an empty chunk list. An embedding failure leaves the
// corpus unchanged. Returns the new document's ID.
func (c *Corpus) Ingest(ctx context.Context, text, caption string) (string, error) {
	chunks := c.splitter.Split(text)

	// Embed before taking the lock; searches keep running meanwhile.
	var vectors [][]float32
	if len(chunks) > 0 {
		var err error
		vectors, err = c.provider.EmbedBatch(ctx, chunks)
		if err != nil {
			return "", fmt.Errorf("embed document: %w", err)
		}
		if len(vectors) != len(chunks) {
			return "", fmt.Errorf("embedded %d of %d chunks", len(vectors), len(chunks))
		}
	}

	docID := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()

	baseRow := c.index.Len()
	baseDoc := len(c.meta.docs)

	rollback := func() {
		c.index.Truncate(baseRow)
		c.meta.truncate(baseRow, baseDoc)
	}

	chunkIDs := make([]int, len(chunks))
	metaChunks := make([]Chunk, len(chunks))
	for i, vec := range vectors {
		row, err := c.index.Add(vec)
		if err != nil {
			rollback()
			return "", fmt.Errorf("index chunk %d: %w", i, err)
		}
		chunkIDs[i] = row
		metaChunks[i] = Chunk{
			ChunkID:    row,
			DocumentID: docID,
			Position:   i,
			Text:       chunks[i],
		}
	}

	doc := Document{
		ID:        docID,
		Caption:   caption,
		CreatedAt: time.Now().UTC(),
		ChunkIDs:  chunkIDs,
	}
	if err := c.meta.addDocument(doc, metaChunks); err != nil {
		rollback()
		return "", err
	}

	if err := c.flushLocked(); err != nil {
		rollback()
		return "", err
	}

	c.logger.Info("document ingested", "id", docID, "chunks", len(chunks))
	return docID, nil
}

// Search embeds the query and returns the k closest chunks with their
// document metadata, best first. An empty corpus yields no results.
func (c *Corpus) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if query == "" {
		return nil, embed.ErrEmptyText
	}

	vector, err := c.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	hits, err := c.index.Search(vector, k)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		ch, ok := c.meta.chunk(hit.Row)
		if !ok {
			return nil, fmt.Errorf("index row %d has no chunk metadata", hit.Row)
		}
		doc, ok := c.meta.document(ch.DocumentID)
		if !ok {
			return nil, fmt.Errorf("chunk %d references missing document %s", ch.ChunkID, ch.DocumentID)
		}
		d := float64(hit.Distance)
		results = append(results, SearchResult{
			ChunkID:    ch.ChunkID,
			DocumentID: doc.ID,
			Caption:    doc.Caption,
			Position:   ch.Position,
			Text:       ch.Text,
			Score:      1 / (1 + d),
			Distance:   d,
		})
	}
	return results, nil
}

// GetDocument returns the document with the given ID.
func (c *Corpus) GetDocument(id string) (Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.meta.document(id)
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// ListDocuments returns all documents in ingestion order.
func (c *Corpus) ListDocuments() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]Document, len(c.meta.docs))
	copy(docs, c.meta.docs)
	return docs
}

// ChunksOf returns a document's chunks in position order.
func (c *Corpus) ChunksOf(id string) ([]Chunk, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.meta.document(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	chunks := make([]Chunk, 0, len(doc.ChunkIDs))
	for _, chunkID := range doc.ChunkIDs {
		ch, ok := c.meta.chunk(chunkID)
		if !ok {
			return nil, fmt.Errorf("document %s references missing chunk %d", id, chunkID)
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

// Stats reports document count, chunk count, and vector dimension.
func (c *Corpus) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Documents:  len(c.meta.docs),
		Chunks:     len(c.meta.chunks),
		Dimensions: c.index.Dim(),
	}
}

// Reset discards all documents and vectors and persists the empty state.
func (c *Corpus) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index, err := NewFlatIndex(c.index.Dim())
	if err != nil {
		return err
	}

	oldIndex, oldMeta := c.index, c.meta
	c.index = index
	c.meta = newMetaStore()

	if err := c.flushLocked(); err != nil {
		c.index, c.meta = oldIndex, oldMeta
		return err
	}

	c.logger.Info("corpus reset", "dir", c.dir)
	return nil
}

// flushLocked writes both files. Each write is staged and renamed, so a
// crash leaves the previous version of a file intact. Caller holds the
// write lock.
func (c *Corpus) flushLocked() error {
	if err := c.index.WriteFile(filepath.Join(c.dir, vectorFileName)); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}
	if err := c.meta.writeFile(filepath.Join(c.dir, metaFileName)); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}
	return nil
}
