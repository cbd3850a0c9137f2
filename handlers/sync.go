package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"optix/services/reconcile"
)

type reconciler interface {
	Pull(ctx context.Context, userID string, local reconcile.LocalStore) (reconcile.Result, error)
	Push(ctx context.Context, userID string, local reconcile.LocalStore) (reconcile.Result, error)
}

var _ reconciler = (*reconcile.Reconciler)(nil)

// SyncHandler exposes manual pull and push for the signed-in user.
type SyncHandler struct {
	Reconciler reconciler
	Local      reconcile.LocalStore
	Mirror     authStateReader
}

func NewSyncHandler(r reconciler, local reconcile.LocalStore, mirror authStateReader) *SyncHandler {
	return &SyncHandler{Reconciler: r, Local: local, Mirror: mirror}
}

func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.Reconciler.Pull)
}

func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.Reconciler.Push)
}

func (h *SyncHandler) run(w http.ResponseWriter, r *http.Request, op func(context.Context, string, reconcile.LocalStore) (reconcile.Result, error)) {
	state := h.Mirror.State()
	if !state.Authenticated() {
		writeJSONError(w, "sign in to sync your watchlist", http.StatusUnauthorized)
		return
	}

	result, err := op(r.Context(), state.UserID(), h.Local)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotSignedIn) {
			writeJSONError(w, "sign in to sync your watchlist", http.StatusUnauthorized)
			return
		}
		log.Printf("[sync] %s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "sync failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
