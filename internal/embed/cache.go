package embed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("embeddings")

// Cache is a persistent embedding cache backed by a bbolt file. Entries are
// keyed by sha256(model|text) so the same text embedded under a different
// model never collides.
type Cache struct {
	db *bolt.DB
}

// OpenCache opens (or creates) a cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives the cache key for a model and text pair.
func (c *Cache) Key(model, text string) []byte {
	h := sha256.Sum256([]byte(model + "|" + text))
	return h[:]
}

// Get retrieves a cached embedding. Returns nil and false on a miss.
func (c *Cache) Get(model, text string) ([]float32, bool) {
	var vector []float32
	_ = c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get(c.Key(model, text))
		if raw == nil {
			return nil
		}
		vector = bytesToVector(raw)
		return nil
	})
	return vector, vector != nil
}

// Put stores an embedding for a model and text pair.
func (c *Cache) Put(model, text string, vector []float32) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put(c.Key(model, text), vectorToBytes(vector))
	})
}

// Len returns the number of cached embeddings.
func (c *Cache) Len() int {
	var n int
	_ = c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(cacheBucket).Stats().KeyN
		return nil
	})
	return n
}

// Clear removes all cached embeddings.
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(cacheBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
}

// vectorToBytes encodes a vector as little-endian float32 bits.
func vectorToBytes(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// bytesToVector decodes a vector encoded by vectorToBytes.
func bytesToVector(raw []byte) []float32 {
	vector := make([]float32, len(raw)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vector
}
