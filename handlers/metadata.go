package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"optix/models"
	metadatapkg "optix/services/metadata"
)

type metadataService interface {
	Home(ctx context.Context) (models.HomeRows, error)
	Trending(ctx context.Context, mediaType models.MediaType, window string) (models.Page[models.Media], error)
	Popular(ctx context.Context, mediaType models.MediaType, page int) (models.Page[models.Media], error)
	TopRated(ctx context.Context, mediaType models.MediaType, page int) (models.Page[models.Media], error)
	NowPlaying(ctx context.Context, page int) (models.Page[models.Media], error)
	Upcoming(ctx context.Context, page int) (models.Page[models.Media], error)
	AiringToday(ctx context.Context, page int) (models.Page[models.Media], error)
	Search(ctx context.Context, mediaType models.MediaType, query string, page int) (models.Page[models.Media], error)
	MovieDetails(ctx context.Context, id int64) (models.MovieDetails, error)
	SeriesDetails(ctx context.Context, id int64) (models.SeriesDetails, error)
	Credits(ctx context.Context, mediaType models.MediaType, id int64) (models.Credits, error)
	Videos(ctx context.Context, mediaType models.MediaType, id int64) (models.Videos, error)
	Trailer(ctx context.Context, mediaType models.MediaType, id int64) (models.Video, bool, error)
	Similar(ctx context.Context, mediaType models.MediaType, id int64, page int) (models.Page[models.Media], error)
	Recommendations(ctx context.Context, mediaType models.MediaType, id int64, page int) (models.Page[models.Media], error)
	Images(ctx context.Context, mediaType models.MediaType, id int64) (models.Images, error)
	Genres(ctx context.Context, mediaType models.MediaType) (models.GenreList, error)
	DiscoverByGenre(ctx context.Context, mediaType models.MediaType, genreID, page int) (models.Page[models.Media], error)
	SeasonDetails(ctx context.Context, seriesID int64, season int) (models.SeasonDetails, error)
	Person(ctx context.Context, id int64) (models.PersonDetails, error)
	PersonMovieCredits(ctx context.Context, id int64) (models.PersonMovieCredits, error)
	ClearCache() error
}

var _ metadataService = (*metadatapkg.Service)(nil)

type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(s metadataService) *MetadataHandler {
	return &MetadataHandler{Service: s}
}

func (h *MetadataHandler) Home(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Home(r.Context())
	respond(w, r, rows, err)
}

// Trending serves /trending/{mediaType}?window=day|week.
func (h *MetadataHandler) Trending(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	page, err := h.Service.Trending(r.Context(), mediaType, strings.TrimSpace(r.URL.Query().Get("window")))
	respond(w, r, page, err)
}

func (h *MetadataHandler) Popular(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	page, err := h.Service.Popular(r.Context(), mediaType, pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	page, err := h.Service.TopRated(r.Context(), mediaType, pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.NowPlaying(r.Context(), pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.Upcoming(r.Context(), pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) AiringToday(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.AiringToday(r.Context(), pageQuery(r))
	respond(w, r, page, err)
}

// Search serves /search?q=&type=movie|series&page=.
func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	mediaType, ok := models.ParseMediaType(r.URL.Query().Get("type"))
	if !ok {
		http.Error(w, "invalid media type", http.StatusBadRequest)
		return
	}
	page, err := h.Service.Search(r.Context(), mediaType, query, pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) Details(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	if mediaType == models.MediaTypeSeries {
		details, err := h.Service.SeriesDetails(r.Context(), id)
		respond(w, r, details, err)
		return
	}
	details, err := h.Service.MovieDetails(r.Context(), id)
	respond(w, r, details, err)
}

func (h *MetadataHandler) Credits(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	credits, err := h.Service.Credits(r.Context(), mediaType, id)
	respond(w, r, credits, err)
}

func (h *MetadataHandler) Videos(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	videos, err := h.Service.Videos(r.Context(), mediaType, id)
	respond(w, r, videos, err)
}

// Trailer returns the preferred trailer with its YouTube URLs.
func (h *MetadataHandler) Trailer(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	video, found, err := h.Service.Trailer(r.Context(), mediaType, id)
	if err != nil {
		respond(w, r, nil, err)
		return
	}
	if !found {
		http.Error(w, "no trailer available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"video":        video,
		"url":          metadatapkg.YouTubeURL(video.Key),
		"embedUrl":     metadatapkg.YouTubeEmbedURL(video.Key),
		"thumbnailUrl": metadatapkg.YouTubeThumbnailURL(video.Key),
	})
}

func (h *MetadataHandler) Similar(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	page, err := h.Service.Similar(r.Context(), mediaType, id, pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	page, err := h.Service.Recommendations(r.Context(), mediaType, id, pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) Images(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	images, err := h.Service.Images(r.Context(), mediaType, id)
	respond(w, r, images, err)
}

func (h *MetadataHandler) Genres(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return
	}
	genres, err := h.Service.Genres(r.Context(), mediaType)
	respond(w, r, genres, err)
}

// DiscoverByGenre serves /genres/{mediaType}/{id}.
func (h *MetadataHandler) DiscoverByGenre(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := mediaTarget(w, r)
	if !ok {
		return
	}
	page, err := h.Service.DiscoverByGenre(r.Context(), mediaType, int(id), pageQuery(r))
	respond(w, r, page, err)
}

func (h *MetadataHandler) Season(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	season, err := strconv.Atoi(mux.Vars(r)["season"])
	if err != nil || season < 0 {
		http.Error(w, "invalid season number", http.StatusBadRequest)
		return
	}
	details, err := h.Service.SeasonDetails(r.Context(), id, season)
	respond(w, r, details, err)
}

func (h *MetadataHandler) Person(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	person, err := h.Service.Person(r.Context(), id)
	respond(w, r, person, err)
}

func (h *MetadataHandler) PersonCredits(w http.ResponseWriter, r *http.Request) {
	id, ok := idVar(w, r, "id")
	if !ok {
		return
	}
	credits, err := h.Service.PersonMovieCredits(r.Context(), id)
	respond(w, r, credits, err)
}

// ClearCache drops every cached catalog response.
func (h *MetadataHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ClearCache(); err != nil {
		log.Printf("[metadata] clear cache failed: %v", err)
		http.Error(w, "failed to clear cache", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}

	status := http.StatusBadGateway
	switch {
	case errors.Is(err, metadatapkg.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, metadatapkg.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, metadatapkg.ErrInvalidMediaType), errors.Is(err, metadatapkg.ErrInvalidWindow):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return
	default:
		log.Printf("[metadata] %s failed: %v", r.URL.Path, err)
	}
	http.Error(w, err.Error(), status)
}

func mediaTypeVar(w http.ResponseWriter, r *http.Request) (models.MediaType, bool) {
	raw := strings.TrimSpace(mux.Vars(r)["mediaType"])
	mediaType, ok := models.ParseMediaType(raw)
	if raw == "" || !ok {
		http.Error(w, "invalid media type", http.StatusBadRequest)
		return "", false
	}
	return mediaType, true
}

func mediaTarget(w http.ResponseWriter, r *http.Request) (models.MediaType, int64, bool) {
	mediaType, ok := mediaTypeVar(w, r)
	if !ok {
		return "", 0, false
	}
	id, ok := idVar(w, r, "id")
	return mediaType, id, ok
}

func idVar(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(mux.Vars(r)[name]), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func pageQuery(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
