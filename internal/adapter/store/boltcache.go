package store

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// CacheSchemaVersion is bumped whenever the cache encoding changes; caches
// written with another version are cleared on open.
const CacheSchemaVersion = 1

var (
	bucketEmbeddings = []byte("embeddings")
	bucketMeta       = []byte("meta")
	keySchemaVersion = []byte("schema_version")
)

// BoltCache persists embeddings across index rebuilds, keyed by model and
// section text. It only memoizes provider output; the index is still rebuilt
// in full.
type BoltCache struct {
	db *bbolt.DB
}

type storedVector struct {
	Model  string    `json:"m"`
	Vector []float32 `json:"v"`
}

func OpenBoltCache(path string) (*BoltCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}

		var version int
		if data := meta.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &version); err != nil {
				version = 0
			}
		}

		if version != CacheSchemaVersion && tx.Bucket(bucketEmbeddings) != nil {
			if err := tx.DeleteBucket(bucketEmbeddings); err != nil {
				return err
			}
		}
		if _, err := tx.CreateBucketIfNotExists(bucketEmbeddings); err != nil {
			return err
		}

		versionData, _ := json.Marshal(CacheSchemaVersion)
		return meta.Put(keySchemaVersion, versionData)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCache{db: db}, nil
}

func cacheKey(model, text string) []byte {
	hash := sha256.Sum256([]byte(model + "\x00" + text))
	return hash[:]
}

func (c *BoltCache) Get(model, text string) ([]float32, bool) {
	var vec []float32
	_ = c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(cacheKey(model, text))
		if data == nil {
			return nil
		}
		var stored storedVector
		if err := json.Unmarshal(data, &stored); err != nil || stored.Model != model {
			return nil // Skip corrupted entries
		}
		vec = stored.Vector
		return nil
	})
	return vec, vec != nil
}

func (c *BoltCache) Put(model, text string, vec []float32) error {
	data, err := json.Marshal(storedVector{Model: model, Vector: vec})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put(cacheKey(model, text), data)
	})
}

// Count returns the number of cached embeddings.
func (c *BoltCache) Count() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear drops every cached embedding.
func (c *BoltCache) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEmbeddings); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketEmbeddings)
		return err
	})
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}
