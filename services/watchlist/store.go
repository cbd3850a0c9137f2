package watchlist

import (
	"log"
	"sync"
	"time"

	"optix/internal/notify"
	"optix/models"
	"optix/utils/similarity"
)

// Op identifies the mutation that produced a Change.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpClear   Op = "clear"
	OpReplace Op = "replace"
)

const searchThreshold = 0.8

// Change is published after every mutation that altered the collection.
type Change struct {
	Op    Op
	Items []models.WatchlistItem
}

// Store holds the device-local watchlist in insertion order. Every mutation is
// written through the Persister before the call returns; write failures are
// logged and never reach the caller.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	now       func() time.Time
	items     []models.WatchlistItem
	index     map[string]struct{}
	gen       uint64

	publishMu sync.Mutex
	changes   notify.Hub[Change]
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp addedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore rehydrates the collection from p. Missing or unreadable state
// starts an empty collection.
func NewStore(p Persister, opts ...Option) *Store {
	if p == nil {
		p = NewMemoryPersister(nil)
	}

	s := &Store{
		persister: p,
		now:       time.Now,
		index:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	stored, err := p.Load()
	if err != nil {
		log.Printf("[watchlist] discarding unreadable persisted state: %v", err)
		stored = nil
	}
	s.items, s.index = s.dedupe(stored)

	return s
}

// Add appends the draft unless an item with the same (id, mediaType) exists.
// It reports whether the collection changed.
func (s *Store) Add(draft models.WatchlistDraft) bool {
	draft.MediaType = models.ResolveMediaType(string(draft.MediaType))
	key := draft.Key()

	s.mu.Lock()
	if _, exists := s.index[key]; exists {
		s.mu.Unlock()
		return false
	}

	item := draft.Item(s.now().UTC())
	s.items = append(s.items, item)
	s.index[key] = struct{}{}

	s.commitLocked(OpAdd)
	return true
}

// Remove deletes the item matching the composite key. An empty media type means movie.
func (s *Store) Remove(id int64, mediaType models.MediaType) bool {
	key := models.WatchlistKey(id, mediaType)

	s.mu.Lock()
	if _, exists := s.index[key]; !exists {
		s.mu.Unlock()
		return false
	}

	for i, item := range s.items {
		if item.Key() == key {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			break
		}
	}
	delete(s.index, key)

	s.commitLocked(OpRemove)
	return true
}

// Contains reports membership of the composite key. An empty media type means movie.
func (s *Store) Contains(id int64, mediaType models.MediaType) bool {
	key := models.WatchlistKey(id, mediaType)

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[key]
	return ok
}

// Clear empties the collection. Callers confirm with the user first.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.index = make(map[string]struct{})
	s.commitLocked(OpClear)
}

// Replace overwrites the whole collection, keeping the first occurrence of
// each composite key. Used when a remote copy wins.
func (s *Store) Replace(items []models.WatchlistItem) {
	s.mu.Lock()
	s.items, s.index = s.dedupe(items)
	s.commitLocked(OpReplace)
}

// ReplaceIf overwrites the collection only when no mutation happened since
// gen was read from Generation. It reports whether the replace took place.
func (s *Store) ReplaceIf(gen uint64, items []models.WatchlistItem) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.items, s.index = s.dedupe(items)
	s.commitLocked(OpReplace)
	return true
}

// Generation returns a counter bumped by every mutation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []models.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Len returns the number of saved items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ByGenre returns the items tagged with genreID in insertion order.
func (s *Store) ByGenre(genreID int) []models.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]models.WatchlistItem, 0)
	for _, item := range s.items {
		if item.HasGenre(genreID) {
			matches = append(matches, cloneItem(item))
		}
	}
	return matches
}

// Search returns items whose title matches query, ignoring case, accents and
// single-character typos in longer queries.
func (s *Store) Search(query string) []models.WatchlistItem {
	if similarity.Normalize(query) == "" {
		return s.Items()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]models.WatchlistItem, 0)
	for _, item := range s.items {
		if similarity.Matches(item.Title, query, searchThreshold) {
			matches = append(matches, cloneItem(item))
		}
	}
	return matches
}

// Subscribe registers fn for every Change. fn receives its own snapshot and
// must not call back into the store.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// commitLocked persists the current state, releases the write lock and
// publishes the change. publishMu is taken before the write lock is released
// so changes are delivered in mutation order.
func (s *Store) commitLocked(op Op) {
	s.gen++
	snapshot := cloneItems(s.items)
	if err := s.persister.Save(snapshot); err != nil {
		log.Printf("[watchlist] failed to persist %s: %v", op, err)
	}

	s.publishMu.Lock()
	s.mu.Unlock()
	defer s.publishMu.Unlock()

	s.changes.Publish(Change{Op: op, Items: cloneItems(snapshot)})
}

func (s *Store) dedupe(items []models.WatchlistItem) ([]models.WatchlistItem, map[string]struct{}) {
	out := make([]models.WatchlistItem, 0, len(items))
	index := make(map[string]struct{}, len(items))
	for _, raw := range items {
		item := raw.Normalised()
		if item.AddedAt.IsZero() {
			item.AddedAt = s.now().UTC()
		}
		key := item.Key()
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = struct{}{}
		out = append(out, item)
	}
	return out, index
}

func cloneItems(items []models.WatchlistItem) []models.WatchlistItem {
	out := make([]models.WatchlistItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

func cloneItem(item models.WatchlistItem) models.WatchlistItem {
	if item.PosterPath != nil {
		poster := *item.PosterPath
		item.PosterPath = &poster
	}
	if item.GenreIDs != nil {
		item.GenreIDs = append([]int(nil), item.GenreIDs...)
	}
	return item
}
