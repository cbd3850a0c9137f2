package metadata

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// fileCache stores decoded TMDB payloads as JSON files, one per key.
type fileCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
	now func() time.Time
}

type cacheEntry struct {
	StoredAt time.Time       `json:"storedAt"`
	Payload  json.RawMessage `json:"payload"`
}

// newFileCache returns a cache rooted at dir. A zero ttl disables caching.
func newFileCache(fs afero.Fs, dir string, ttlHours int) *fileCache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &fileCache{
		fs:  fs,
		dir: dir,
		ttl: time.Duration(ttlHours) * time.Hour,
		now: time.Now,
	}
}

func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])
}

func (c *fileCache) enabled() bool {
	return c != nil && c.ttl > 0 && c.dir != ""
}

func (c *fileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// get decodes a fresh entry into v. Expired or unreadable entries are misses.
func (c *fileCache) get(key string, v any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}

	data, err := afero.ReadFile(c.fs, c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = c.fs.Remove(c.path(key))
		return false, nil
	}
	if c.now().Sub(entry.StoredAt) > c.ttl {
		return false, nil
	}
	if err := json.Unmarshal(entry.Payload, v); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

func (c *fileCache) set(key string, v any) error {
	if !c.enabled() {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data, err := json.Marshal(cacheEntry{StoredAt: c.now().UTC(), Payload: payload})
	if err != nil {
		return err
	}

	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	tmp := c.path(key) + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return c.fs.Rename(tmp, c.path(key))
}

func (c *fileCache) clear() error {
	if c == nil || c.dir == "" {
		return nil
	}
	if err := c.fs.RemoveAll(c.dir); err != nil {
		return err
	}
	return c.fs.MkdirAll(c.dir, 0o755)
}
