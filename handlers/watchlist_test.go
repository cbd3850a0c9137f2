package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"optix/handlers"
	"optix/models"
	"optix/services/watchlist"
)

func newWatchlistHandler(t *testing.T) (*handlers.WatchlistHandler, *watchlist.Store) {
	t.Helper()
	store := watchlist.NewStore(watchlist.NewMemoryPersister(nil))
	return handlers.NewWatchlistHandler(store), store
}

func TestWatchlistAddAndList(t *testing.T) {
	h, _ := newWatchlistHandler(t)

	body := models.WatchlistDraft{
		ID:          550,
		MediaType:   models.MediaTypeMovie,
		Title:       "Fight Club",
		VoteAverage: 8.4,
		DateValue:   "1999-10-15",
		GenreIDs:    []int{18},
	}
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/watchlist", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Add(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Add(rec, httptest.NewRequest(http.MethodPost, "/api/watchlist", bytes.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected duplicate add to return 200, got %d", rec.Code)
	}

	recList := httptest.NewRecorder()
	h.List(recList, httptest.NewRequest(http.MethodGet, "/api/watchlist", nil))

	if recList.Code != http.StatusOK {
		t.Fatalf("expected list status 200, got %d", recList.Code)
	}

	var items []models.WatchlistItem
	if err := json.Unmarshal(recList.Body.Bytes(), &items); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "Fight Club" || items[0].MediaType != models.MediaTypeMovie || items[0].AddedAt.IsZero() {
		t.Fatalf("unexpected item returned: %+v", items[0])
	}
}

func TestWatchlistAddRejectsBadInput(t *testing.T) {
	h, _ := newWatchlistHandler(t)

	cases := map[string]string{
		"missing id":     `{"title":"x"}`,
		"bad media type": `{"id":1,"mediaType":"anime"}`,
		"unknown field":  `{"id":1,"rating":5}`,
		"not json":       `nope`,
	}
	for name, payload := range cases {
		rec := httptest.NewRecorder()
		h.Add(rec, httptest.NewRequest(http.MethodPost, "/api/watchlist", bytes.NewBufferString(payload)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", name, rec.Code)
		}
	}
}

func TestWatchlistContainsAndRemove(t *testing.T) {
	h, store := newWatchlistHandler(t)
	store.Add(models.WatchlistDraft{ID: 1399, MediaType: models.MediaTypeSeries, Title: "Game of Thrones"})

	req := httptest.NewRequest(http.MethodGet, "/api/watchlist/tv/1399", nil)
	req = mux.SetURLVars(req, map[string]string{"mediaType": "tv", "id": "1399"})
	rec := httptest.NewRecorder()
	h.Contains(rec, req)

	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode contains response: %v", err)
	}
	if !resp["inWatchlist"] {
		t.Fatalf("expected series 1399 to be in watchlist")
	}

	reqMovie := httptest.NewRequest(http.MethodGet, "/api/watchlist/movie/1399", nil)
	reqMovie = mux.SetURLVars(reqMovie, map[string]string{"mediaType": "movie", "id": "1399"})
	recMovie := httptest.NewRecorder()
	h.Contains(recMovie, reqMovie)
	if err := json.Unmarshal(recMovie.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode contains response: %v", err)
	}
	if resp["inWatchlist"] {
		t.Fatalf("movie 1399 must not match series 1399")
	}

	reqDelete := httptest.NewRequest(http.MethodDelete, "/api/watchlist/series/1399", nil)
	reqDelete = mux.SetURLVars(reqDelete, map[string]string{"mediaType": "series", "id": "1399"})
	recDelete := httptest.NewRecorder()
	h.Remove(recDelete, reqDelete)
	if recDelete.Code != http.StatusNoContent {
		t.Fatalf("expected delete status 204, got %d", recDelete.Code)
	}

	recAgain := httptest.NewRecorder()
	h.Remove(recAgain, reqDelete)
	if recAgain.Code != http.StatusNoContent {
		t.Fatalf("expected repeated delete to be a no-op 204, got %d", recAgain.Code)
	}

	reqBad := httptest.NewRequest(http.MethodDelete, "/api/watchlist/series/abc", nil)
	reqBad = mux.SetURLVars(reqBad, map[string]string{"mediaType": "series", "id": "abc"})
	recBad := httptest.NewRecorder()
	h.Remove(recBad, reqBad)
	if recBad.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad id, got %d", recBad.Code)
	}
}

func TestWatchlistFiltersAndGenres(t *testing.T) {
	h, store := newWatchlistHandler(t)
	store.Add(models.WatchlistDraft{ID: 1, Title: "Alien", GenreIDs: []int{27, 878}})
	store.Add(models.WatchlistDraft{ID: 2, Title: "Aliens", GenreIDs: []int{28, 878}})
	store.Add(models.WatchlistDraft{ID: 3, Title: "Heat", GenreIDs: []int{28, 80}})

	list := func(target string) []models.WatchlistItem {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", target, rec.Code)
		}
		var items []models.WatchlistItem
		if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
			t.Fatalf("failed to decode list: %v", err)
		}
		return items
	}

	if got := list("/api/watchlist?genre=28"); len(got) != 2 {
		t.Fatalf("expected 2 action titles, got %d", len(got))
	}
	if got := list("/api/watchlist?genre=28&q=alien"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only Aliens, got %+v", got)
	}
	if got := list("/api/watchlist?genre=all"); len(got) != 3 {
		t.Fatalf("expected all titles, got %d", len(got))
	}
	if got := list("/api/watchlist?genre=99"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-null list, got %+v", got)
	}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/watchlist?genre=action", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad genre, got %d", rec.Code)
	}

	recGenres := httptest.NewRecorder()
	h.Genres(recGenres, httptest.NewRequest(http.MethodGet, "/api/watchlist/genres", nil))
	var genres []models.Genre
	if err := json.Unmarshal(recGenres.Body.Bytes(), &genres); err != nil {
		t.Fatalf("failed to decode genres: %v", err)
	}
	if len(genres) != 4 || genres[0].Name != "Action" {
		t.Fatalf("unexpected genres: %+v", genres)
	}
}

func TestWatchlistClear(t *testing.T) {
	h, store := newWatchlistHandler(t)
	store.Add(models.WatchlistDraft{ID: 1, Title: "one"})
	store.Add(models.WatchlistDraft{ID: 2, Title: "two"})

	rec := httptest.NewRecorder()
	h.Clear(rec, httptest.NewRequest(http.MethodDelete, "/api/watchlist", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty watchlist, got %d items", store.Len())
	}
}

func TestWatchlistRemoveAbsentItemIsNoop(t *testing.T) {
	h, store := newWatchlistHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/watchlist/movie/42", nil)
	req = mux.SetURLVars(req, map[string]string{"mediaType": "movie", "id": "42"})
	rec := httptest.NewRecorder()
	h.Remove(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for absent item, got %d", rec.Code)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d items", store.Len())
	}
}
