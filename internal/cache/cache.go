package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spboyer/bulkgrade/internal/execution"
)

// Cache stores executor responses on disk so that regrading with a different
// parser or strategy does not recompile and rerun unchanged submissions.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// CacheKey generates a unique cache key for one submission run
// The key is based on:
// - submission file names and contents
// - executor settings (commands, preprocessing)
// - executor input files (instructor tests)
func CacheKey(submissionFiles []string, fp execution.Fingerprint) (string, error) {
	h := sha256.New()

	if err := hashFiles(h, submissionFiles); err != nil {
		return "", fmt.Errorf("hashing submission: %w", err)
	}

	// separates submission files from settings
	if err := writeString(h, "--"); err != nil {
		return "", err
	}
	if err := writeInt(h, len(fp.Settings)); err != nil {
		return "", err
	}
	for _, s := range fp.Settings {
		if err := writeString(h, s); err != nil {
			return "", err
		}
	}

	if err := hashFiles(h, fp.Files); err != nil {
		return "", fmt.Errorf("hashing executor inputs: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves a cached response if it exists
func (c *Cache) Get(key string) (*execution.Response, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		// Cache miss
		return nil, false
	}

	var resp execution.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		// Invalid cache entry, treat as miss
		return nil, false
	}

	return &resp, true
}

// Put stores a response in the cache. Timed-out runs are not stored.
func (c *Cache) Put(key string, resp *execution.Response) error {
	if c.dir == "" || resp == nil || resp.TimedOut {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Clear removes all cached results
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Safety check: only remove a directory that holds nothing but cache files
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	if len(entries) > 0 {
		for _, entry := range entries {
			if entry.IsDir() {
				return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
			}
			if filepath.Ext(entry.Name()) != ".json" {
				return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
			}
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Helper functions

func writeString(w io.Writer, s string) error {
	// Write string with null byte delimiter to prevent hash collisions
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int) error {
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}

// hashFiles hashes each file's base name and contents, in base-name order so
// the key does not depend on where the files were extracted.
func hashFiles(h io.Writer, files []string) error {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.Base(sorted[i]) < filepath.Base(sorted[j])
	})

	if err := writeInt(h, len(sorted)); err != nil {
		return err
	}
	for _, f := range sorted {
		if err := writeString(h, filepath.Base(f)); err != nil {
			return err
		}
		if err := hashFile(h, f); err != nil {
			// a missing file still changes the key through its name
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("hashing %s: %w", f, err)
		}
		if err := writeString(h, ""); err != nil {
			return err
		}
	}
	return nil
}

func hashFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	return nil
}
