// Package genres holds the static TMDB genre taxonomy referenced by watchlist items.
package genres

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"optix/models"
)

var names = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Sci-Fi",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",

	// series-only ids
	10759: "Action & Adventure",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}

// Name returns the display name for id.
func Name(id int) (string, bool) {
	name, ok := names[id]
	return name, ok
}

// Available returns the known genres present across items, ordered by name.
func Available(items []models.WatchlistItem) []models.Genre {
	seen := make(map[int]struct{})
	out := make([]models.Genre, 0)
	for _, item := range items {
		for _, id := range item.GenreIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			name, ok := names[id]
			if !ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, models.Genre{ID: id, Name: name})
		}
	}

	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}
