package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"optix/handlers"
	"optix/internal/notify"
	"optix/models"
	"optix/services/auth"
	"optix/services/metadata"
	"optix/services/reconcile"
	"optix/services/ui"
	"optix/services/watchlist"
)

type silentNotifier struct {
	hub notify.Hub[*models.AuthUser]
}

func (s *silentNotifier) Subscribe(fn auth.Listener) func() { return s.hub.Subscribe(fn) }

func newRouter(t *testing.T) (*mux.Router, *watchlist.Store) {
	t.Helper()
	store := watchlist.NewStore(nil)
	mirror := auth.NewMirror(&silentNotifier{})
	t.Cleanup(mirror.Close)

	r := mux.NewRouter()
	Register(r,
		handlers.NewWatchlistHandler(store),
		handlers.NewAuthHandler(nil, mirror),
		handlers.NewSyncHandler(reconcile.NewReconciler(nil, 0), store, mirror),
		handlers.NewUIHandler(&ui.State{}),
		handlers.NewMetadataHandler(metadata.NewService(metadata.Config{})),
		handlers.NewImageHandler(afero.NewMemMapFs(), "/cache", "http://127.0.0.1:1", nil),
	)
	return r, store
}

func TestRoutes(t *testing.T) {
	r, store := newRouter(t)

	cases := []struct {
		method string
		target string
		body   string
		status int
	}{
		{http.MethodPost, "/api/watchlist", `{"id":550,"mediaType":"movie","title":"Fight Club"}`, http.StatusCreated},
		{http.MethodGet, "/api/watchlist/movie/550", "", http.StatusOK},
		{http.MethodGet, "/api/watchlist/genres", "", http.StatusOK},
		{http.MethodDelete, "/api/watchlist/movie/550", "", http.StatusNoContent},
		{http.MethodGet, "/api/auth/me", "", http.StatusOK},
		{http.MethodPost, "/api/sync/pull", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/ui/sidebar", "", http.StatusOK},
		{http.MethodGet, "/api/movie/popular", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/images?path=poster.jpg", "", http.StatusBadRequest},
		{http.MethodGet, "/api/tv/1399/season/1", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/series/1399/credits", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/anime/popular", "", http.StatusBadRequest},
		{http.MethodOptions, "/api/watchlist", "", http.StatusOK},
	}

	for _, tc := range cases {
		var body *bytes.Buffer
		if tc.body != "" {
			body = bytes.NewBufferString(tc.body)
		} else {
			body = &bytes.Buffer{}
		}
		req := httptest.NewRequest(tc.method, tc.target, body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Fatalf("%s %s: expected status %d, got %d (%s)", tc.method, tc.target, tc.status, rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s %s: missing CORS header", tc.method, tc.target)
		}
	}

	if store.Len() != 0 {
		t.Fatalf("expected store to be empty after delete, got %d", store.Len())
	}
}

func TestRegisterOAuthMountsOutsideAPI(t *testing.T) {
	r, _ := newRouter(t)
	var seen string
	RegisterOAuth(r, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen = req.URL.Path
		w.WriteHeader(http.StatusFound)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=x", nil))
	if rec.Code != http.StatusFound || seen != "/auth/google/callback" {
		t.Fatalf("expected oauth routes to receive the callback, got %d %q", rec.Code, seen)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("api auth routes must be unaffected, got %d", rec.Code)
	}
}
