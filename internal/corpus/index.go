// Package corpus implements the document store: a flat vector index plus
// chunk and document metadata, persisted together under one directory.
package corpus

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// indexMagic identifies the vector file format.
const indexMagic = uint32(0x58444756) // "VGDX" little-endian

// Hit is a single nearest-neighbor match: the row of the matched vector and
// its squared Euclidean distance to the query.
type Hit struct {
	Row      int
	Distance float32
}

// FlatIndex is an exact, append-only vector index. Vectors are L2-normalized
// at insert and stored row-major; a vector's row number never changes.
type FlatIndex struct {
	dim     int
	vectors []float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimension: %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dim returns the vector dimension.
func (ix *FlatIndex) Dim() int {
	return ix.dim
}

// Len returns the number of stored vectors.
func (ix *FlatIndex) Len() int {
	return len(ix.vectors) / ix.dim
}

// Add normalizes and appends a vector, returning its row number.
func (ix *FlatIndex) Add(vector []float32) (int, error) {
	if len(vector) != ix.dim {
		return 0, fmt.Errorf("vector dimension %d does not match index dimension %d", len(vector), ix.dim)
	}

	row := ix.Len()
	ix.vectors = append(ix.vectors, normalize(vector)...)
	return row, nil
}

// Truncate discards all vectors from row n onward.
func (ix *FlatIndex) Truncate(n int) {
	if n < 0 || n > ix.Len() {
		return
	}
	ix.vectors = ix.vectors[:n*ix.dim]
}

// Search returns the k nearest vectors to query by squared Euclidean
// distance, closest first. Equidistant vectors keep insertion order. An empty
// index or k <= 0 yields no hits.
func (ix *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.dim)
	}

	count := ix.Len()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	q := normalize(query)
	hits := make([]Hit, count)
	for row := 0; row < count; row++ {
		var dist float32
		base := row * ix.dim
		for i, qv := range q {
			d := ix.vectors[base+i] - qv
			dist += d * d
		}
		hits[row] = Hit{Row: row, Distance: dist}
	}

	// Stable sort keeps insertion order among equal distances.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	return hits[:k], nil
}

// normalize returns an L2-normalized copy of v. A zero vector is copied
// unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	inv := float32(1 / math.Sqrt(sum))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

// WriteFile persists the index: a header (magic, dimension, row count)
// followed by the vectors as little-endian float32 in insertion order. The
// file is staged to a temp file and renamed into place.
func (ix *FlatIndex) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vectors-*")
	if err != nil {
		return fmt.Errorf("create temp vector file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	header := []uint32{indexMagic, uint32(ix.dim), uint32(ix.Len())}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			tmp.Close()
			return fmt.Errorf("write vector header: %w", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, ix.vectors); err != nil {
		tmp.Close()
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush vectors: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp vector file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename vector file: %w", err)
	}
	return nil
}

// ReadIndexFile loads an index persisted by WriteFile and verifies the
// header against the file size.
func ReadIndexFile(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic, dim, count uint32
	for _, field := range []*uint32{&magic, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("read vector header: %w", err)
		}
	}

	if magic != indexMagic {
		return nil, fmt.Errorf("not a vector index file: %s", path)
	}
	if dim == 0 {
		return nil, fmt.Errorf("vector file has zero dimension: %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	wantSize := int64(12) + int64(dim)*int64(count)*4
	if info.Size() != wantSize {
		return nil, fmt.Errorf("vector file is %d bytes, header implies %d: %s", info.Size(), wantSize, path)
	}

	ix := &FlatIndex{
		dim:     int(dim),
		vectors: make([]float32, int(dim)*int(count)),
	}
	if err := binary.Read(r, binary.LittleEndian, ix.vectors); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	return ix, nil
}
