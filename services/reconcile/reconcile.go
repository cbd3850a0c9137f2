// Package reconcile moves the watchlist between the device and the signed-in
// user's remote profile document. The policy is last writer wins: the whole
// array is overwritten in either direction, with no merge.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"optix/models"
	"optix/services/watchlist"
)

var ErrNotSignedIn = errors.New("reconcile: no signed-in user")

// RemoteStore reads and overwrites the watchlist field of a profile document.
type RemoteStore interface {
	Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	SetWatchlist(ctx context.Context, userID string, items []models.WatchlistItem) error
}

// LocalStore is the device-local collection.
type LocalStore interface {
	Items() []models.WatchlistItem
	Generation() uint64
	ReplaceIf(gen uint64, items []models.WatchlistItem) bool
	Subscribe(fn func(watchlist.Change)) (unsubscribe func())
}

// Result describes the outcome of a reconciliation.
type Result struct {
	Direction string                 `json:"direction"`
	Items     []models.WatchlistItem `json:"items"`
}

const (
	DirectionPulled = "pulled"
	DirectionPushed = "pushed"
)

// Reconciler performs pull and push against a RemoteStore.
type Reconciler struct {
	remote  RemoteStore
	timeout time.Duration
}

// NewReconciler returns a Reconciler bounding each remote call by timeout.
// A zero timeout leaves calls bounded only by the caller's context.
func NewReconciler(remote RemoteStore, timeout time.Duration) *Reconciler {
	return &Reconciler{remote: remote, timeout: timeout}
}

// PullRemote fetches the remote collection. An absent document yields an
// empty collection.
func (r *Reconciler) PullRemote(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrNotSignedIn
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	items, err := r.remote.Watchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("pull watchlist: %w", err)
	}
	if items == nil {
		items = []models.WatchlistItem{}
	}
	return items, nil
}

// PushRemote overwrites the remote collection with items.
func (r *Reconciler) PushRemote(ctx context.Context, userID string, items []models.WatchlistItem) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrNotSignedIn
	}
	if items == nil {
		items = []models.WatchlistItem{}
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.remote.SetWatchlist(ctx, userID, items); err != nil {
		return fmt.Errorf("push watchlist: %w", err)
	}
	return nil
}

// Pull applies the remote collection to local. A non-empty remote replaces
// local wholesale; an empty remote is overwritten by the local collection.
func (r *Reconciler) Pull(ctx context.Context, userID string, local LocalStore) (Result, error) {
	return r.PullSince(ctx, userID, local, local.Generation())
}

// PullSince is Pull for a caller that observed local at generation gen. When
// local was edited after gen the edit is newer than the remote copy, so the
// remote is overwritten instead of replacing local.
func (r *Reconciler) PullSince(ctx context.Context, userID string, local LocalStore, gen uint64) (Result, error) {
	remote, err := r.PullRemote(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	if len(remote) > 0 {
		if local.ReplaceIf(gen, remote) {
			log.Printf("[sync] replaced local watchlist with %d remote items for %s", len(remote), userID)
			return Result{Direction: DirectionPulled, Items: local.Items()}, nil
		}
		log.Printf("[sync] local watchlist changed during pull for %s, pushing instead", userID)
		return r.Push(ctx, userID, local)
	}

	items := local.Items()
	if err := r.PushRemote(ctx, userID, items); err != nil {
		return Result{}, err
	}
	log.Printf("[sync] remote watchlist empty, pushed %d local items for %s", len(items), userID)
	return Result{Direction: DirectionPushed, Items: items}, nil
}

// Push overwrites the remote collection with the local one.
func (r *Reconciler) Push(ctx context.Context, userID string, local LocalStore) (Result, error) {
	items := local.Items()
	if err := r.PushRemote(ctx, userID, items); err != nil {
		return Result{}, err
	}
	return Result{Direction: DirectionPushed, Items: items}, nil
}

func (r *Reconciler) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
