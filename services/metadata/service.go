// Package metadata proxies catalog reads to TMDB with a file-backed cache.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"

	"optix/models"
)

var (
	ErrInvalidWindow    = errors.New("time window must be day or week")
	ErrInvalidMediaType = errors.New("media type must be movie or series")
)

// Config wires a Service.
type Config struct {
	APIKey            string
	Language          string
	BaseURL           string
	RequestsPerSecond float64
	CacheDir          string
	CacheTTLHours     int
	Fs                afero.Fs
	HTTPClient        *http.Client
}

// Service answers catalog reads. Responses are cached under <cacheDir>/metadata.
type Service struct {
	tmdb  *tmdbClient
	cache *fileCache
}

func NewService(cfg Config) *Service {
	var cacheDir string
	if strings.TrimSpace(cfg.CacheDir) != "" {
		cacheDir = filepath.Join(cfg.CacheDir, "metadata")
	}
	return &Service{
		tmdb:  newTMDBClient(cfg.APIKey, cfg.Language, cfg.BaseURL, cfg.RequestsPerSecond, cfg.HTTPClient),
		cache: newFileCache(cfg.Fs, cacheDir, cfg.CacheTTLHours),
	}
}

// Configured reports whether an API key is set.
func (s *Service) Configured() bool {
	return s.tmdb.isConfigured()
}

// ClearCache drops every cached response.
func (s *Service) ClearCache() error {
	return s.cache.clear()
}

// fetch reads endpoint through the cache.
func fetch[T any](ctx context.Context, s *Service, endpoint string, params url.Values) (T, error) {
	var out T
	key := cacheKey("tmdb", s.tmdb.language, endpoint, params.Encode())

	if ok, err := s.cache.get(key, &out); ok {
		return out, nil
	} else if err != nil {
		log.Printf("[metadata] cache read failed for %s: %v", endpoint, err)
	}

	if err := s.tmdb.get(ctx, endpoint, params, &out); err != nil {
		var zero T
		return zero, err
	}

	if err := s.cache.set(key, out); err != nil {
		log.Printf("[metadata] cache write failed for %s: %v", endpoint, err)
	}
	return out, nil
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func mediaPath(mediaType models.MediaType) (string, error) {
	switch mediaType {
	case models.MediaTypeMovie, models.MediaTypeSeries:
		return mediaType.TMDBPath(), nil
	default:
		return "", ErrInvalidMediaType
	}
}

type mediaPage = models.Page[models.Media]

// Trending returns trending titles for window "day" or "week" (default week).
func (s *Service) Trending(ctx context.Context, mediaType models.MediaType, window string) (mediaPage, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return mediaPage{}, err
	}
	switch window {
	case "":
		window = "week"
	case "day", "week":
	default:
		return mediaPage{}, ErrInvalidWindow
	}
	return fetch[mediaPage](ctx, s, fmt.Sprintf("trending/%s/%s", kind, window), nil)
}

func (s *Service) Popular(ctx context.Context, mediaType models.MediaType, page int) (mediaPage, error) {
	return s.list(ctx, mediaType, "popular", page)
}

func (s *Service) TopRated(ctx context.Context, mediaType models.MediaType, page int) (mediaPage, error) {
	return s.list(ctx, mediaType, "top_rated", page)
}

func (s *Service) NowPlaying(ctx context.Context, page int) (mediaPage, error) {
	return s.list(ctx, models.MediaTypeMovie, "now_playing", page)
}

func (s *Service) Upcoming(ctx context.Context, page int) (mediaPage, error) {
	return s.list(ctx, models.MediaTypeMovie, "upcoming", page)
}

func (s *Service) AiringToday(ctx context.Context, page int) (mediaPage, error) {
	return s.list(ctx, models.MediaTypeSeries, "airing_today", page)
}

func (s *Service) list(ctx context.Context, mediaType models.MediaType, name string, page int) (mediaPage, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return mediaPage{}, err
	}
	return fetch[mediaPage](ctx, s, kind+"/"+name, pageParams(page))
}

// Search queries titles of mediaType. A blank query returns an empty page
// without contacting TMDB.
func (s *Service) Search(ctx context.Context, mediaType models.MediaType, query string, page int) (mediaPage, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return mediaPage{}, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return mediaPage{Page: 1, Results: []models.Media{}}, nil
	}

	params := pageParams(page)
	params.Set("query", query)
	return fetch[mediaPage](ctx, s, "search/"+kind, params)
}

func (s *Service) MovieDetails(ctx context.Context, id int64) (models.MovieDetails, error) {
	return fetch[models.MovieDetails](ctx, s, fmt.Sprintf("movie/%d", id), nil)
}

func (s *Service) SeriesDetails(ctx context.Context, id int64) (models.SeriesDetails, error) {
	return fetch[models.SeriesDetails](ctx, s, fmt.Sprintf("tv/%d", id), nil)
}

func (s *Service) Credits(ctx context.Context, mediaType models.MediaType, id int64) (models.Credits, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return models.Credits{}, err
	}
	return fetch[models.Credits](ctx, s, fmt.Sprintf("%s/%d/credits", kind, id), nil)
}

func (s *Service) Videos(ctx context.Context, mediaType models.MediaType, id int64) (models.Videos, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return models.Videos{}, err
	}
	return fetch[models.Videos](ctx, s, fmt.Sprintf("%s/%d/videos", kind, id), nil)
}

// Trailer returns the preferred YouTube trailer for a title.
func (s *Service) Trailer(ctx context.Context, mediaType models.MediaType, id int64) (models.Video, bool, error) {
	videos, err := s.Videos(ctx, mediaType, id)
	if err != nil {
		return models.Video{}, false, err
	}
	video, ok := videos.Trailer()
	return video, ok, nil
}

func (s *Service) Similar(ctx context.Context, mediaType models.MediaType, id int64, page int) (mediaPage, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return mediaPage{}, err
	}
	return fetch[mediaPage](ctx, s, fmt.Sprintf("%s/%d/similar", kind, id), pageParams(page))
}

func (s *Service) Recommendations(ctx context.Context, mediaType models.MediaType, id int64, page int) (mediaPage, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return mediaPage{}, err
	}
	return fetch[mediaPage](ctx, s, fmt.Sprintf("%s/%d/recommendations", kind, id), pageParams(page))
}

// Images returns artwork limited to English and language-neutral images.
func (s *Service) Images(ctx context.Context, mediaType models.MediaType, id int64) (models.Images, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return models.Images{}, err
	}
	params := url.Values{"include_image_language": {"en,null"}}
	return fetch[models.Images](ctx, s, fmt.Sprintf("%s/%d/images", kind, id), params)
}

func (s *Service) Genres(ctx context.Context, mediaType models.MediaType) (models.GenreList, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return models.GenreList{}, err
	}
	return fetch[models.GenreList](ctx, s, "genre/"+kind+"/list", nil)
}

// DiscoverByGenre lists titles tagged with genreID by popularity.
func (s *Service) DiscoverByGenre(ctx context.Context, mediaType models.MediaType, genreID, page int) (mediaPage, error) {
	kind, err := mediaPath(mediaType)
	if err != nil {
		return mediaPage{}, err
	}
	params := pageParams(page)
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	return fetch[mediaPage](ctx, s, "discover/"+kind, params)
}

func (s *Service) SeasonDetails(ctx context.Context, seriesID int64, season int) (models.SeasonDetails, error) {
	return fetch[models.SeasonDetails](ctx, s, fmt.Sprintf("tv/%d/season/%d", seriesID, season), nil)
}

func (s *Service) Person(ctx context.Context, id int64) (models.PersonDetails, error) {
	return fetch[models.PersonDetails](ctx, s, fmt.Sprintf("person/%d", id), nil)
}

func (s *Service) PersonMovieCredits(ctx context.Context, id int64) (models.PersonMovieCredits, error) {
	return fetch[models.PersonMovieCredits](ctx, s, fmt.Sprintf("person/%d/movie_credits", id), nil)
}

// Home loads the landing page rows concurrently. A row that fails is logged
// and left empty.
func (s *Service) Home(ctx context.Context) (models.HomeRows, error) {
	if !s.Configured() {
		return models.HomeRows{}, ErrNotConfigured
	}

	rows := models.HomeRows{}
	load := func(name string, dst *[]models.Media, fn func() (mediaPage, error)) func() {
		return func() {
			page, err := fn()
			if err != nil {
				log.Printf("[metadata] home row %s failed: %v", name, err)
				*dst = []models.Media{}
				return
			}
			if page.Results == nil {
				page.Results = []models.Media{}
			}
			*dst = page.Results
		}
	}

	var wg conc.WaitGroup
	wg.Go(load("trendingMovies", &rows.TrendingMovies, func() (mediaPage, error) {
		return s.Trending(ctx, models.MediaTypeMovie, "week")
	}))
	wg.Go(load("popularMovies", &rows.PopularMovies, func() (mediaPage, error) {
		return s.Popular(ctx, models.MediaTypeMovie, 1)
	}))
	wg.Go(load("topRatedMovies", &rows.TopRatedMovies, func() (mediaPage, error) {
		return s.TopRated(ctx, models.MediaTypeMovie, 1)
	}))
	wg.Go(load("upcomingMovies", &rows.UpcomingMovies, func() (mediaPage, error) {
		return s.Upcoming(ctx, 1)
	}))
	wg.Go(load("trendingSeries", &rows.TrendingSeries, func() (mediaPage, error) {
		return s.Trending(ctx, models.MediaTypeSeries, "week")
	}))
	wg.Go(load("popularSeries", &rows.PopularSeries, func() (mediaPage, error) {
		return s.Popular(ctx, models.MediaTypeSeries, 1)
	}))
	wg.Wait()

	return rows, nil
}
