package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// MediaType discriminates catalog entries that share an id space only within their own type.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// ResolveMediaType maps raw input onto a concrete media type. Empty and unknown
// values resolve to movie; the TMDB spelling "tv" resolves to series.
func ResolveMediaType(raw string) MediaType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "series", "tv", "show":
		return MediaTypeSeries
	default:
		return MediaTypeMovie
	}
}

// ParseMediaType is the strict variant of ResolveMediaType used for request input.
func ParseMediaType(raw string) (MediaType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "movie":
		return MediaTypeMovie, true
	case "series", "tv":
		return MediaTypeSeries, true
	default:
		return "", false
	}
}

// TMDBPath returns the path segment TMDB uses for the media type.
func (m MediaType) TMDBPath() string {
	if m == MediaTypeSeries {
		return "tv"
	}
	return "movie"
}

// WatchlistItem represents a media entry saved by the user for later.
type WatchlistItem struct {
	ID          int64     `json:"id"`
	MediaType   MediaType `json:"mediaType"` // movie | series
	Title       string    `json:"title"`
	PosterPath  *string   `json:"posterPath"`
	VoteAverage float64   `json:"voteAverage"`
	DateValue   string    `json:"dateValue,omitempty"` // release or first-air date
	GenreIDs    []int     `json:"genreIds"`
	AddedAt     time.Time `json:"addedAt"`
}

// UnmarshalJSON tolerates a missing, empty or malformed addedAt, as well as
// epoch milliseconds, leaving AddedAt zero for the store to stamp. One bad
// timestamp never fails the whole record.
func (w *WatchlistItem) UnmarshalJSON(data []byte) error {
	type plain WatchlistItem
	var raw struct {
		plain
		AddedAt json.RawMessage `json:"addedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = WatchlistItem(raw.plain)
	w.AddedAt = parseAddedAt(raw.AddedAt)
	return nil
}

func parseAddedAt(raw json.RawMessage) time.Time {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text))
		if err != nil {
			return time.Time{}
		}
		return t
	}
	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil && millis > 0 {
		return time.UnixMilli(millis).UTC()
	}
	return time.Time{}
}

// WatchlistDraft captures the data required to add an item. AddedAt is owned by the store.
type WatchlistDraft struct {
	ID          int64     `json:"id"`
	MediaType   MediaType `json:"mediaType,omitempty"`
	Title       string    `json:"title"`
	PosterPath  *string   `json:"posterPath"`
	VoteAverage float64   `json:"voteAverage"`
	DateValue   string    `json:"dateValue,omitempty"`
	GenreIDs    []int     `json:"genreIds"`
}

// WatchlistKey returns the composite identity of a watchlist entry.
func WatchlistKey(id int64, mediaType MediaType) string {
	return string(ResolveMediaType(string(mediaType))) + ":" + strconv.FormatInt(id, 10)
}

// Key returns a stable identifier for the watchlist item combining media type and ID.
func (w WatchlistItem) Key() string {
	return WatchlistKey(w.ID, w.MediaType)
}

// Key returns a stable identifier for the draft combining media type and ID.
func (w WatchlistDraft) Key() string {
	return WatchlistKey(w.ID, w.MediaType)
}

// Year returns the four digit year of DateValue, or 0 when unknown.
func (w WatchlistItem) Year() int {
	if len(w.DateValue) < 4 {
		return 0
	}
	year, err := strconv.Atoi(w.DateValue[:4])
	if err != nil {
		return 0
	}
	return year
}

// HasGenre reports whether the item is tagged with the genre.
func (w WatchlistItem) HasGenre(genreID int) bool {
	for _, id := range w.GenreIDs {
		if id == genreID {
			return true
		}
	}
	return false
}

// Normalised returns a copy with a concrete media type, a rating clamped to
// [0, 10] and copied slices so callers cannot alias stored state.
func (w WatchlistItem) Normalised() WatchlistItem {
	w.MediaType = ResolveMediaType(string(w.MediaType))
	w.VoteAverage = clampRating(w.VoteAverage)
	w.Title = strings.TrimSpace(w.Title)
	if w.PosterPath != nil {
		poster := *w.PosterPath
		w.PosterPath = &poster
	}
	if w.GenreIDs != nil {
		w.GenreIDs = append([]int(nil), w.GenreIDs...)
	} else {
		w.GenreIDs = []int{}
	}
	if !w.AddedAt.IsZero() {
		w.AddedAt = w.AddedAt.UTC()
	}
	return w
}

// Item turns the draft into a stored item stamped with addedAt.
func (w WatchlistDraft) Item(addedAt time.Time) WatchlistItem {
	item := WatchlistItem{
		ID:          w.ID,
		MediaType:   w.MediaType,
		Title:       w.Title,
		PosterPath:  w.PosterPath,
		VoteAverage: w.VoteAverage,
		DateValue:   w.DateValue,
		GenreIDs:    w.GenreIDs,
		AddedAt:     addedAt,
	}
	return item.Normalised()
}

func clampRating(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}
