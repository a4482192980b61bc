// Package predcache keeps a small on-disk cache of predictions keyed by the
// blake3 hash of the photo bytes, so rescanning an identical photo skips the
// forward pass entirely.
package predcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/strumscan/scan-server/internal/classifier"
	"github.com/strumscan/scan-server/internal/utils/hashutil"
)

type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]classifier.Prediction
}

// Open loads the cache file at path, starting empty if it does not exist. A
// corrupt cache file is discarded rather than surfaced; the cache is an
// optimization, not a store of record.
func Open(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: map[string]classifier.Prediction{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}

		return nil, fmt.Errorf("failed to read prediction cache: %w", err)
	}

	if err := msgpack.Unmarshal(data, &c.entries); err != nil {
		c.entries = map[string]classifier.Prediction{}
	}

	return c, nil
}

// Key derives the cache key for a photo.
func Key(imageBytes []byte) string {
	return hashutil.Blake3Hash(imageBytes)
}

func (c *Cache) Get(key string) (classifier.Prediction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pred, ok := c.entries[key]
	return pred, ok
}

// Put stores a prediction and writes the cache through to disk.
func (c *Cache) Put(key string, pred classifier.Prediction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = pred
	return c.save()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) save() error {
	data, err := msgpack.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to encode prediction cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), os.ModePerm); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, c.path)
}
