// Package marketdata fetches live quotes and gold prices from Yahoo Finance
// and normalizes them with static configuration into company records the
// engines consume.
package marketdata

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-based key to JSON blob store with a TTL. Keys are hashed
// so tickers and URLs never leak into filenames.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, ttl time.Duration) *Cache {
	os.MkdirAll(dir, 0755)
	return &Cache{dir: dir, ttl: ttl}
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%x.json", md5.Sum([]byte(key))))
}

// Get unmarshals a fresh cache entry into out and reports whether it hit.
// Stale or unreadable entries count as misses.
func (c *Cache) Get(key string, out interface{}) bool {
	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > c.ttl {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Set stores v as JSON under key. Failures are swallowed; the cache is an
// optimization, not a source of truth.
func (c *Cache) Set(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	os.WriteFile(c.path(key), data, 0644)
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	return os.RemoveAll(c.dir)
}
