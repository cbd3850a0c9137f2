package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"optix/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	watchlistHandler *handlers.WatchlistHandler,
	authHandler *handlers.AuthHandler,
	syncHandler *handlers.SyncHandler,
	uiHandler *handlers.UIHandler,
	metadataHandler *handlers.MetadataHandler,
	imageHandler *handlers.ImageHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	// Catch-all so the CORS middleware runs for preflight requests.
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(handlers.Options)

	// Watchlist
	api.HandleFunc("/watchlist", watchlistHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/watchlist", watchlistHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/watchlist", watchlistHandler.Clear).Methods(http.MethodDelete)
	api.HandleFunc("/watchlist/genres", watchlistHandler.Genres).Methods(http.MethodGet)
	api.HandleFunc("/watchlist/{mediaType}/{id}", watchlistHandler.Contains).Methods(http.MethodGet)
	api.HandleFunc("/watchlist/{mediaType}/{id}", watchlistHandler.Remove).Methods(http.MethodDelete)

	// Auth
	api.HandleFunc("/auth/signin", authHandler.SignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", authHandler.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", authHandler.SignOut).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	api.HandleFunc("/auth/me", authHandler.UpdateMe).Methods(http.MethodPut)

	// Sync
	api.HandleFunc("/sync/pull", syncHandler.Pull).Methods(http.MethodPost)
	api.HandleFunc("/sync/push", syncHandler.Push).Methods(http.MethodPost)

	// UI flags
	api.HandleFunc("/ui", uiHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/ui/trailer", uiHandler.OpenTrailer).Methods(http.MethodPost)
	api.HandleFunc("/ui/trailer", uiHandler.CloseTrailer).Methods(http.MethodDelete)
	api.HandleFunc("/ui/sidebar", uiHandler.Sidebar).Methods(http.MethodPost)

	// Artwork proxy
	api.HandleFunc("/images", imageHandler.Proxy).Methods(http.MethodGet)

	// Catalog. Literal routes are registered before the {mediaType} patterns.
	api.HandleFunc("/discover/home", metadataHandler.Home).Methods(http.MethodGet)
	api.HandleFunc("/metadata/cache", metadataHandler.ClearCache).Methods(http.MethodDelete)
	api.HandleFunc("/search", metadataHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/trending/{mediaType}", metadataHandler.Trending).Methods(http.MethodGet)
	api.HandleFunc("/genres/{mediaType}", metadataHandler.Genres).Methods(http.MethodGet)
	api.HandleFunc("/genres/{mediaType}/{id:[0-9]+}", metadataHandler.DiscoverByGenre).Methods(http.MethodGet)
	api.HandleFunc("/person/{id:[0-9]+}", metadataHandler.Person).Methods(http.MethodGet)
	api.HandleFunc("/person/{id:[0-9]+}/credits", metadataHandler.PersonCredits).Methods(http.MethodGet)
	api.HandleFunc("/movie/now-playing", metadataHandler.NowPlaying).Methods(http.MethodGet)
	api.HandleFunc("/movie/upcoming", metadataHandler.Upcoming).Methods(http.MethodGet)
	api.HandleFunc("/tv/airing-today", metadataHandler.AiringToday).Methods(http.MethodGet)
	api.HandleFunc("/tv/{id:[0-9]+}/season/{season:[0-9]+}", metadataHandler.Season).Methods(http.MethodGet)

	api.HandleFunc("/{mediaType}/popular", metadataHandler.Popular).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/top-rated", metadataHandler.TopRated).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/{id:[0-9]+}", metadataHandler.Details).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/{id:[0-9]+}/credits", metadataHandler.Credits).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/{id:[0-9]+}/videos", metadataHandler.Videos).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/{id:[0-9]+}/trailer", metadataHandler.Trailer).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/{id:[0-9]+}/images", metadataHandler.Images).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/{id:[0-9]+}/similar", metadataHandler.Similar).Methods(http.MethodGet)
	api.HandleFunc("/{mediaType}/{id:[0-9]+}/recommendations", metadataHandler.Recommendations).Methods(http.MethodGet)
}

// RegisterOAuth mounts the federated sign-in routes under /auth/. They live
// outside /api because providers redirect the browser to them.
func RegisterOAuth(r *mux.Router, oauthRoutes http.Handler) {
	r.PathPrefix("/auth/").Handler(oauthRoutes)
}
