package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"optix/api"
	"optix/config"
	"optix/handlers"
	"optix/internal/database"
	"optix/services/accounts"
	"optix/services/auth"
	"optix/services/metadata"
	"optix/services/profiles"
	"optix/services/reconcile"
	"optix/services/ui"
	"optix/services/watchlist"
)

const remoteSyncTimeout = 10 * time.Second

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 optix starting...")

	configPath := os.Getenv("OPTIX_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	settings.ApplyEnv()

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if generated, err := cfgManager.EnsureSessionSecret(&settings); err != nil {
		log.Fatalf("failed to prepare session secret: %v", err)
	} else if generated {
		fmt.Println("🔑 Generated a new session signing secret")
	}

	if settings.Metadata.TMDBAPIKey == "" {
		fmt.Println("⚠️  No TMDB API key configured; catalog routes will return 503")
	}

	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	fs := afero.NewOsFs()
	storageDir := settings.Cache.Directory

	persister, err := watchlist.NewFilePersister(fs, storageDir)
	if err != nil {
		log.Fatalf("failed to initialise watchlist storage: %v", err)
	}
	store := watchlist.NewStore(persister)
	log.Printf("[watchlist] loaded %d items from %s", store.Len(), persister.Path())

	accountsSvc := accounts.NewService(db.Conn(), accounts.WithMinPasswordLength(settings.Auth.MinPasswordLength))
	profileStore := profiles.NewStore(db.Conn())

	provider, err := auth.NewLocalProvider(auth.Config{
		Accounts:            accountsSvc,
		Profiles:            profileStore,
		Fs:                  fs,
		StorageDir:          storageDir,
		SessionSecret:       settings.Auth.SessionSecret,
		SessionTTL:          time.Duration(settings.Auth.SessionTTLHours) * time.Hour,
		ProfileWriteTimeout: time.Duration(settings.Sync.ProfileWriteTimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to initialise identity provider: %v", err)
	}

	mirror := auth.NewMirror(provider)
	reconciler := reconcile.NewReconciler(profileStore, remoteSyncTimeout)

	// The worker subscribes before the provider starts so it sees a restored session.
	var autoSync *reconcile.AutoSync
	if settings.Sync.Mode == config.SyncModeOverwrite {
		autoSync = reconcile.NewAutoSync(reconciler, store, mirror)
		fmt.Println("🔄 Watchlist sync mode: overwrite")
	} else {
		fmt.Println("🔄 Watchlist sync mode: manual")
	}

	provider.Start(context.Background())

	metadataSvc := metadata.NewService(metadata.Config{
		APIKey:            settings.Metadata.TMDBAPIKey,
		Language:          settings.Metadata.Language,
		BaseURL:           settings.Metadata.BaseURL,
		RequestsPerSecond: settings.Metadata.RequestsPerSecond,
		CacheDir:          settings.Cache.Directory,
		CacheTTLHours:     settings.Cache.MetadataTTLHours,
		Fs:                fs,
	})

	r := mux.NewRouter()
	api.Register(r,
		handlers.NewWatchlistHandler(store),
		handlers.NewAuthHandler(provider, mirror),
		handlers.NewSyncHandler(reconciler, store, mirror),
		handlers.NewUIHandler(&ui.State{}),
		handlers.NewMetadataHandler(metadataSvc),
		handlers.NewImageHandler(fs, settings.Cache.Directory, settings.Metadata.ImageBaseURL, nil),
	)

	oauthCfg := auth.OAuthConfig{
		PublicURL:          settings.Auth.PublicURL,
		Secret:             settings.Auth.SessionSecret,
		GoogleClientID:     settings.Auth.GoogleClientID,
		GoogleClientSecret: settings.Auth.GoogleClientSecret,
	}
	if oauthCfg.Enabled() {
		oauth, err := auth.NewOAuth(oauthCfg, provider)
		if err != nil {
			log.Fatalf("failed to initialise google sign-in: %v", err)
		}
		api.RegisterOAuth(r, oauth.Handler())
		fmt.Println("🔐 Google sign-in enabled at /auth/google/login")
	}

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if autoSync != nil {
		log.Println("🧹 Stopping sync worker...")
		autoSync.Close()
	}
	mirror.Close()

	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
