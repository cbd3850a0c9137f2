package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"optix/models"
	"optix/services/genres"
	"optix/services/watchlist"
)

type watchlistStore interface {
	Add(draft models.WatchlistDraft) bool
	Remove(id int64, mediaType models.MediaType) bool
	Contains(id int64, mediaType models.MediaType) bool
	Clear()
	Items() []models.WatchlistItem
	ByGenre(genreID int) []models.WatchlistItem
	Search(query string) []models.WatchlistItem
}

var _ watchlistStore = (*watchlist.Store)(nil)

type WatchlistHandler struct {
	Store watchlistStore
}

func NewWatchlistHandler(store watchlistStore) *WatchlistHandler {
	return &WatchlistHandler{Store: store}
}

// List returns the saved items, optionally filtered by ?genre= and ?q=.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []models.WatchlistItem

	if raw := strings.TrimSpace(r.URL.Query().Get("genre")); raw != "" && raw != "all" {
		genreID, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid genre id", http.StatusBadRequest)
			return
		}
		items = h.Store.ByGenre(genreID)
	} else {
		items = h.Store.Items()
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		allowed := make(map[string]struct{}, len(items))
		for _, item := range items {
			allowed[item.Key()] = struct{}{}
		}
		filtered := make([]models.WatchlistItem, 0)
		for _, item := range h.Store.Search(q) {
			if _, ok := allowed[item.Key()]; ok {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	writeJSON(w, http.StatusOK, items)
}

// Genres lists the known genres present in the watchlist.
func (h *WatchlistHandler) Genres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, genres.Available(h.Store.Items()))
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var draft models.WatchlistDraft
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&draft); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if draft.ID <= 0 {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if _, ok := models.ParseMediaType(string(draft.MediaType)); !ok {
		http.Error(w, "invalid media type", http.StatusBadRequest)
		return
	}

	added := h.Store.Add(draft)
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"added": added,
		"key":   draft.Key(),
	})
}

// Contains reports whether {mediaType}/{id} is saved.
func (h *WatchlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	id, mediaType, ok := watchlistTarget(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inWatchlist": h.Store.Contains(id, mediaType)})
}

// Remove deletes one item. Removing an absent item is a no-op, not an error.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, mediaType, ok := watchlistTarget(w, r)
	if !ok {
		return
	}
	if !h.Store.Remove(id, mediaType) {
		log.Printf("[watchlist] remove %s/%d: not in watchlist", mediaType, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear empties the watchlist. Clients confirm with the user before calling.
func (h *WatchlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Store.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func watchlistTarget(w http.ResponseWriter, r *http.Request) (int64, models.MediaType, bool) {
	vars := mux.Vars(r)

	mediaType, ok := models.ParseMediaType(vars["mediaType"])
	if !ok {
		http.Error(w, "invalid media type", http.StatusBadRequest)
		return 0, "", false
	}

	id, err := strconv.ParseInt(strings.TrimSpace(vars["id"]), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, "", false
	}
	return id, mediaType, true
}
