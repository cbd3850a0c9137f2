// Package profiles is the remote per-user document store. Each document holds
// account metadata plus a watchlist array that sync pushes overwrite wholesale.
package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"optix/models"
)

var (
	ErrUserIDRequired  = errors.New("user id is required")
	ErrProfileNotFound = errors.New("profile not found")
)

// Store keeps profile documents in the profiles table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Create writes a full document for userID, replacing any previous one.
func (s *Store) Create(ctx context.Context, userID string, profile models.Profile) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	watchlist, err := encodeWatchlist(profile.Watchlist)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, email, display_name, created_at, watchlist, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   email = excluded.email,
		   display_name = excluded.display_name,
		   created_at = excluded.created_at,
		   watchlist = excluded.watchlist,
		   updated_at = excluded.updated_at`,
		userID, profile.Email, profile.DisplayName, profile.CreatedAt, watchlist, s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Get returns the document for userID.
func (s *Store) Get(ctx context.Context, userID string) (models.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Profile{}, ErrUserIDRequired
	}

	var (
		profile = models.Profile{UserID: userID}
		raw     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT email, display_name, created_at, watchlist FROM profiles WHERE user_id = ?`, userID,
	).Scan(&profile.Email, &profile.DisplayName, &profile.CreatedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("read profile: %w", err)
	}

	profile.Watchlist = decodeWatchlist(userID, raw)
	return profile, nil
}

// Watchlist returns the stored watchlist. A missing document yields an empty list.
func (s *Store) Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	profile, err := s.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return []models.WatchlistItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return profile.Watchlist, nil
}

// SetWatchlist overwrites the watchlist field, leaving the rest of the
// document untouched. The document is created when absent.
func (s *Store) SetWatchlist(ctx context.Context, userID string, items []models.WatchlistItem) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	watchlist, err := encodeWatchlist(items)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, watchlist, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   watchlist = excluded.watchlist,
		   updated_at = excluded.updated_at`,
		userID, watchlist, s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	return nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func encodeWatchlist(items []models.WatchlistItem) (string, error) {
	if items == nil {
		items = []models.WatchlistItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode watchlist: %w", err)
	}
	return string(data), nil
}

func decodeWatchlist(userID, raw string) []models.WatchlistItem {
	items := []models.WatchlistItem{}
	if strings.TrimSpace(raw) == "" {
		return items
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("[profiles] unreadable watchlist for %s, treating as empty: %v", userID, err)
		return []models.WatchlistItem{}
	}
	return items
}
