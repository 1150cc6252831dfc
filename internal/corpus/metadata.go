package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Document describes one ingested document.
type Document struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
	ChunkIDs  []int     `json:"chunk_ids"`
}

// Chunk is one passage of a document. ChunkID doubles as the row number of
// the chunk's vector in the index.
type Chunk struct {
	ChunkID    int    `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
}

// metaStore holds chunk and document metadata. Chunks live at their ChunkID
// in the slice; documents keep insertion order.
type metaStore struct {
	chunks []Chunk
	docs   []Document
	byID   map[string]int
}

// metaFile is the on-disk JSON shape.
type metaFile struct {
	Chunks    []Chunk    `json:"chunks"`
	Documents []Document `json:"documents"`
}

func newMetaStore() *metaStore {
	return &metaStore{byID: make(map[string]int)}
}

// addDocument appends a document and its chunks. Chunk IDs must continue the
// dense sequence; the caller assigns them from the index row counter.
func (m *metaStore) addDocument(doc Document, chunks []Chunk) error {
	if _, exists := m.byID[doc.ID]; exists {
		return fmt.Errorf("duplicate document id: %s", doc.ID)
	}
	for i, c := range chunks {
		if c.ChunkID != len(m.chunks)+i {
			return fmt.Errorf("chunk id %d breaks dense sequence at %d", c.ChunkID, len(m.chunks)+i)
		}
	}

	m.chunks = append(m.chunks, chunks...)
	m.byID[doc.ID] = len(m.docs)
	m.docs = append(m.docs, doc)
	return nil
}

// truncate reverts the store to n chunks and d documents.
func (m *metaStore) truncate(n, d int) {
	for _, doc := range m.docs[d:] {
		delete(m.byID, doc.ID)
	}
	m.chunks = m.chunks[:n]
	m.docs = m.docs[:d]
}

// chunk returns the chunk stored at id.
func (m *metaStore) chunk(id int) (Chunk, bool) {
	if id < 0 || id >= len(m.chunks) {
		return Chunk{}, false
	}
	return m.chunks[id], true
}

// document returns the document with the given id.
func (m *metaStore) document(id string) (Document, bool) {
	i, ok := m.byID[id]
	if !ok {
		return Document{}, false
	}
	return m.docs[i], true
}

// writeFile persists the store as JSON, staged to a temp file and renamed
// into place.
func (m *metaStore) writeFile(path string) error {
	out := metaFile{Chunks: m.chunks, Documents: m.docs}
	if out.Chunks == nil {
		out.Chunks = []Chunk{}
	}
	if out.Documents == nil {
		out.Documents = []Document{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".metadata-*")
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp metadata file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename metadata file: %w", err)
	}
	return nil
}

// readMetaFile loads and validates a metadata file: chunk IDs must be dense
// from zero, and chunk/document references must agree in both directions.
func readMetaFile(path string) (*metaStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var in metaFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	m := newMetaStore()
	m.chunks = in.Chunks
	m.docs = in.Documents
	for i, doc := range m.docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("document %d has empty id", i)
		}
		if _, dup := m.byID[doc.ID]; dup {
			return nil, fmt.Errorf("duplicate document id: %s", doc.ID)
		}
		m.byID[doc.ID] = i
	}

	for i, c := range m.chunks {
		if c.ChunkID != i {
			return nil, fmt.Errorf("chunk at position %d has id %d, ids must be dense", i, c.ChunkID)
		}
		if _, ok := m.byID[c.DocumentID]; !ok {
			return nil, fmt.Errorf("chunk %d references unknown document %s", i, c.DocumentID)
		}
	}

	for _, doc := range m.docs {
		for _, id := range doc.ChunkIDs {
			c, ok := m.chunk(id)
			if !ok {
				return nil, fmt.Errorf("document %s references missing chunk %d", doc.ID, id)
			}
			if c.DocumentID != doc.ID {
				return nil, fmt.Errorf("chunk %d belongs to %s, referenced by %s", id, c.DocumentID, doc.ID)
			}
		}
	}

	return m, nil
}
