package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"optix/models"
)

// StorageKey names the persisted watchlist record on the local storage medium.
const StorageKey = "optix-watchlist"

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrCorruptState       = errors.New("persisted watchlist is corrupt")
)

// Persister loads and saves the full watchlist collection.
type Persister interface {
	Load() ([]models.WatchlistItem, error)
	Save(items []models.WatchlistItem) error
}

type envelope struct {
	Items []models.WatchlistItem `json:"items"`
}

// FilePersister stores the collection as {"items": [...]} in a single file.
type FilePersister struct {
	fs   afero.Fs
	path string
}

// NewFilePersister creates a persister writing <storageDir>/optix-watchlist.json on fs.
func NewFilePersister(fs afero.Fs, storageDir string) (*FilePersister, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if exists, _ := afero.DirExists(fs, storageDir); !exists {
		if err := fs.MkdirAll(storageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create watchlist dir: %w", err)
		}
	}

	return &FilePersister{
		fs:   fs,
		path: filepath.Join(storageDir, StorageKey+".json"),
	}, nil
}

// Path returns the file backing the persister.
func (p *FilePersister) Path() string {
	return p.path
}

// Load returns the persisted items. A missing or empty file yields no items and no error.
func (p *FilePersister) Load() ([]models.WatchlistItem, error) {
	data, err := afero.ReadFile(p.fs, p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var stored envelope
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return stored.Items, nil
}

// Save replaces the persisted record with items.
func (p *FilePersister) Save(items []models.WatchlistItem) error {
	if items == nil {
		items = []models.WatchlistItem{}
	}

	data, err := json.MarshalIndent(envelope{Items: items}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}

	tmp := p.path + ".tmp"
	file, err := p.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create watchlist temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		_ = p.fs.Remove(tmp)
		return fmt.Errorf("write watchlist: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = p.fs.Remove(tmp)
		return fmt.Errorf("sync watchlist: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = p.fs.Remove(tmp)
		return fmt.Errorf("close watchlist temp file: %w", err)
	}

	if err := p.fs.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace watchlist file: %w", err)
	}

	return nil
}

// MemoryPersister keeps the serialized record in memory.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryPersister returns a persister seeded with raw, which may be nil.
func NewMemoryPersister(raw []byte) *MemoryPersister {
	return &MemoryPersister{data: raw}
}

func (p *MemoryPersister) Load() ([]models.WatchlistItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.data) == 0 {
		return nil, nil
	}
	var stored envelope
	if err := json.Unmarshal(p.data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return stored.Items, nil
}

func (p *MemoryPersister) Save(items []models.WatchlistItem) error {
	if items == nil {
		items = []models.WatchlistItem{}
	}
	data, err := json.Marshal(envelope{Items: items})
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}

	p.mu.Lock()
	p.data = data
	p.mu.Unlock()
	return nil
}

// Raw returns the last serialized record.
func (p *MemoryPersister) Raw() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.data...)
}
