// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const cacheFileName = "metadata.json"

// CachedPaper records where a paper's PDF landed on disk.
type CachedPaper struct {
	LocalPath string `json:"local_path"`
	Title     string `json:"title"`
	PDFURL    string `json:"pdf_url"`
}

// Cache is the persisted paper-ID to local-file mapping, read before and
// written after every download decision. Single-process use only.
type Cache struct {
	Papers map[string]CachedPaper `json:"papers"`

	path string
}

// NewCache returns an empty cache that will persist under dir.
func NewCache(dir string) *Cache {
	return &Cache{
		Papers: map[string]CachedPaper{},
		path:   filepath.Join(dir, cacheFileName),
	}
}

// LoadCache reads the metadata cache from dir, initializing an empty one if
// the file does not exist yet.
func LoadCache(dir string) (*Cache, error) {
	c := NewCache(dir)

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata cache: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing metadata cache: %w", err)
	}
	if c.Papers == nil {
		c.Papers = map[string]CachedPaper{}
	}
	return c, nil
}

// Lookup returns the cached entry for paperID if its local file still exists.
func (c *Cache) Lookup(paperID string) (CachedPaper, bool) {
	entry, ok := c.Papers[paperID]
	if !ok {
		return CachedPaper{}, false
	}
	if _, err := os.Stat(entry.LocalPath); err != nil {
		return CachedPaper{}, false
	}
	return entry, true
}

// Record stores an entry and persists the cache immediately.
func (c *Cache) Record(paperID string, entry CachedPaper) error {
	c.Papers[paperID] = entry
	return c.Save()
}

// Save writes the cache back to disk.
func (c *Cache) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata cache: %w", err)
	}
	return nil
}
