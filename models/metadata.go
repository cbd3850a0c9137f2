package models

// Media is a catalog list entry as returned by TMDB list and search endpoints.
// Movies carry Title/ReleaseDate, series carry Name/FirstAirDate.
type Media struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title,omitempty"`
	Name             string  `json:"name,omitempty"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	FirstAirDate     string  `json:"first_air_date,omitempty"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	MediaType        string  `json:"media_type,omitempty"`
	Adult            bool    `json:"adult,omitempty"`
}

// DisplayTitle returns the movie title or the series name.
func (m Media) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// DateValue returns the release date or the first-air date.
func (m Media) DateValue() string {
	if m.ReleaseDate != "" {
		return m.ReleaseDate
	}
	return m.FirstAirDate
}

// WatchlistDraft converts a catalog entry into a watchlist add candidate.
func (m Media) WatchlistDraft(mediaType MediaType) WatchlistDraft {
	return WatchlistDraft{
		ID:          m.ID,
		MediaType:   mediaType,
		Title:       m.DisplayTitle(),
		PosterPath:  m.PosterPath,
		VoteAverage: m.VoteAverage,
		DateValue:   m.DateValue(),
		GenreIDs:    m.GenreIDs,
	}
}

// Page is a paginated TMDB response.
type Page[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GenreList struct {
	Genres []Genre `json:"genres"`
}

type ProductionCompany struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// MovieDetails is the TMDB /movie/{id} payload.
type MovieDetails struct {
	Media
	Genres              []Genre             `json:"genres"`
	Runtime             int                 `json:"runtime"`
	Tagline             string              `json:"tagline"`
	Status              string              `json:"status"`
	Budget              int64               `json:"budget"`
	Revenue             int64               `json:"revenue"`
	Homepage            string              `json:"homepage"`
	IMDBID              string              `json:"imdb_id"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
}

type Creator struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ProfilePath *string `json:"profile_path"`
}

type SeasonSummary struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      string  `json:"air_date"`
}

// SeriesDetails is the TMDB /tv/{id} payload.
type SeriesDetails struct {
	Media
	Genres           []Genre         `json:"genres"`
	Tagline          string          `json:"tagline"`
	Status           string          `json:"status"`
	Homepage         string          `json:"homepage"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	EpisodeRunTime   []int           `json:"episode_run_time"`
	CreatedBy        []Creator       `json:"created_by"`
	Seasons          []SeasonSummary `json:"seasons"`
	LastAirDate      string          `json:"last_air_date"`
}

type Episode struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	EpisodeNumber int     `json:"episode_number"`
	SeasonNumber  int     `json:"season_number"`
	AirDate       string  `json:"air_date"`
	StillPath     *string `json:"still_path"`
	VoteAverage   float64 `json:"vote_average"`
	Runtime       int     `json:"runtime"`
}

type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	PosterPath   *string   `json:"poster_path"`
	SeasonNumber int       `json:"season_number"`
	AirDate      string    `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
}

type CastMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

type CrewMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Job         string  `json:"job"`
	Department  string  `json:"department"`
	ProfilePath *string `json:"profile_path"`
}

type Credits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type Videos struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// Trailer returns the first official YouTube trailer, falling back to any YouTube trailer.
func (v Videos) Trailer() (Video, bool) {
	var fallback *Video
	for i := range v.Results {
		video := v.Results[i]
		if video.Site != "YouTube" || video.Type != "Trailer" {
			continue
		}
		if video.Official {
			return video, true
		}
		if fallback == nil {
			fallback = &v.Results[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Video{}, false
}

type ImageInfo struct {
	FilePath    string  `json:"file_path"`
	AspectRatio float64 `json:"aspect_ratio"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	VoteAverage float64 `json:"vote_average"`
	ISO6391     *string `json:"iso_639_1"`
}

type Images struct {
	ID        int64       `json:"id"`
	Backdrops []ImageInfo `json:"backdrops"`
	Logos     []ImageInfo `json:"logos"`
	Posters   []ImageInfo `json:"posters"`
}

type PersonDetails struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Biography          string   `json:"biography"`
	Birthday           *string  `json:"birthday"`
	Deathday           *string  `json:"deathday"`
	PlaceOfBirth       *string  `json:"place_of_birth"`
	ProfilePath        *string  `json:"profile_path"`
	KnownForDepartment string   `json:"known_for_department"`
	AlsoKnownAs        []string `json:"also_known_as"`
	Popularity         float64  `json:"popularity"`
}

type PersonCastCredit struct {
	Media
	Character string `json:"character"`
	CreditID  string `json:"credit_id"`
}

type PersonCrewCredit struct {
	Media
	Job        string `json:"job"`
	Department string `json:"department"`
	CreditID   string `json:"credit_id"`
}

type PersonMovieCredits struct {
	ID   int64              `json:"id"`
	Cast []PersonCastCredit `json:"cast"`
	Crew []PersonCrewCredit `json:"crew"`
}

// HomeRows aggregates the discovery rows shown on the landing page.
type HomeRows struct {
	TrendingMovies []Media `json:"trendingMovies"`
	PopularMovies  []Media `json:"popularMovies"`
	TopRatedMovies []Media `json:"topRatedMovies"`
	UpcomingMovies []Media `json:"upcomingMovies"`
	TrendingSeries []Media `json:"trendingSeries"`
	PopularSeries  []Media `json:"popularSeries"`
}
