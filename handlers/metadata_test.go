package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"optix/handlers"
	"optix/models"
	"optix/services/metadata"
)

func newMetadataHandler(t *testing.T, apiKey string, fn http.HandlerFunc) *handlers.MetadataHandler {
	t.Helper()
	srv := httptest.NewServer(fn)
	t.Cleanup(srv.Close)
	return handlers.NewMetadataHandler(metadata.NewService(metadata.Config{
		APIKey:  apiKey,
		BaseURL: srv.URL + "/3",
	}))
}

func TestMetadataDetailsRoutesByMediaType(t *testing.T) {
	h := newMetadataHandler(t, "k", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/tv/1399":
			w.Write([]byte(`{"id":1399,"name":"Game of Thrones","number_of_seasons":8}`))
		case "/3/movie/550":
			w.Write([]byte(`{"id":550,"title":"Fight Club","runtime":139}`))
		default:
			http.NotFound(w, r)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/series/1399", nil)
	req = mux.SetURLVars(req, map[string]string{"mediaType": "series", "id": "1399"})
	rec := httptest.NewRecorder()
	h.Details(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var series models.SeriesDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("failed to decode series: %v", err)
	}
	if series.NumberOfSeasons != 8 {
		t.Fatalf("unexpected series details %+v", series)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/movie/550", nil)
	req = mux.SetURLVars(req, map[string]string{"mediaType": "movie", "id": "550"})
	rec = httptest.NewRecorder()
	h.Details(rec, req)
	var movie models.MovieDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &movie); err != nil {
		t.Fatalf("failed to decode movie: %v", err)
	}
	if movie.Runtime != 139 {
		t.Fatalf("unexpected movie details %+v", movie)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/movie/7", nil)
	req = mux.SetURLVars(req, map[string]string{"mediaType": "movie", "id": "7"})
	rec = httptest.NewRecorder()
	h.Details(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/anime/7", nil)
	req = mux.SetURLVars(req, map[string]string{"mediaType": "anime", "id": "7"})
	rec = httptest.NewRecorder()
	h.Details(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestMetadataNotConfigured(t *testing.T) {
	h := newMetadataHandler(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream request %s", r.URL.Path)
	})

	rec := httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest(http.MethodGet, "/api/discover/home", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestMetadataTrailer(t *testing.T) {
	h := newMetadataHandler(t, "k", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/videos") {
			w.Write([]byte(`{"id":550,"results":[{"key":"SUXWAEX2jlg","site":"YouTube","type":"Trailer","official":true}]}`))
			return
		}
		http.NotFound(w, r)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/movie/550/trailer", nil)
	req = mux.SetURLVars(req, map[string]string{"mediaType": "movie", "id": "550"})
	rec := httptest.NewRecorder()
	h.Trailer(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode trailer: %v", err)
	}
	if body["embedUrl"] != "https://www.youtube.com/embed/SUXWAEX2jlg" {
		t.Fatalf("unexpected embed url %v", body["embedUrl"])
	}
}

func TestMetadataSearchPassesQuery(t *testing.T) {
	var gotQuery, gotPath string
	h := newMetadataHandler(t, "k", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"page":2,"results":[{"id":1,"title":"Alien"}]}`))
	})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=alien&type=movie&page=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotPath != "/3/search/movie" || gotQuery != "alien" {
		t.Fatalf("unexpected upstream request %s query=%q", gotPath, gotQuery)
	}

	rec = httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=alien&type=anime", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestMetadataClearCache(t *testing.T) {
	h := newMetadataHandler(t, "k", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	rec := httptest.NewRecorder()
	h.ClearCache(rec, httptest.NewRequest(http.MethodDelete, "/api/metadata/cache", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
}
