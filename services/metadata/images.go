package metadata

import (
	"fmt"
	"strings"
)

// TMDB image sizes used by the catalog views.
const (
	PosterSmall    = "w185"
	PosterMedium   = "w342"
	PosterLarge    = "w500"
	BackdropMedium = "w780"
	BackdropLarge  = "w1280"
	ProfileMedium  = "w185"
	LogoMedium     = "w300"
	SizeOriginal   = "original"
)

// PlaceholderImage is served for titles without artwork.
const PlaceholderImage = "/images/placeholder-movie.svg"

// ImageURL joins an image path onto base at size. A nil or empty path yields
// the placeholder.
func ImageURL(base string, path *string, size string) string {
	if path == nil || strings.TrimSpace(*path) == "" {
		return PlaceholderImage
	}
	if base == "" {
		base = tmdbImageBaseURL
	}
	if size == "" {
		size = PosterLarge
	}
	p := *path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(base, "/") + "/" + size + p
}

func YouTubeURL(key string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", key)
}

func YouTubeEmbedURL(key string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s", key)
}

func YouTubeThumbnailURL(key string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", key)
}
