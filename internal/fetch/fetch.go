// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads paper PDFs into a content-addressed cache directory
// and maintains the on-disk metadata cache that maps paper IDs to local files.
package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/research-companion/pkg/types"
)

// Fetcher downloads a URL into cacheDir and returns the local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, cacheDir string) (string, error)
}

// HTTPFetcher is the production Fetcher. The zero value uses
// http.DefaultClient and no User-Agent header.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// New returns an HTTPFetcher configured from cfg.
func New(cfg types.FetchConfig) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
	}
}

// Fetch downloads url into cacheDir under a name derived from the URL hash.
// The operation is idempotent: if the file already exists its path is
// returned without a network call. Downloads go to a temp file first and are
// renamed into place on success, so a partial download never poisons the
// cache.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, cacheDir string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("empty download URL")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	destPath := filepath.Join(cacheDir, CacheName(url))
	if _, err := os.Stat(destPath); err == nil {
		return destPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(cacheDir, ".fetch-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

// CacheName derives the cache file name for a URL: the first ten hex digits
// of its SHA-1, with a .pdf extension.
func CacheName(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:10] + ".pdf"
}
