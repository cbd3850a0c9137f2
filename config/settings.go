package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sethvargo/go-password/password"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Metadata MetadataSettings `json:"metadata"`
	Cache    CacheSettings    `json:"cache"`
	Database DatabaseSettings `json:"database"`
	Auth     AuthSettings     `json:"auth"`
	Sync     SyncSettings     `json:"sync"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type MetadataSettings struct {
	TMDBAPIKey        string  `json:"tmdbApiKey"`
	Language          string  `json:"language"`
	BaseURL           string  `json:"baseUrl"`
	ImageBaseURL      string  `json:"imageBaseUrl"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
}

type CacheSettings struct {
	Directory        string `json:"directory"`
	MetadataTTLHours int    `json:"metadataTtlHours"`
}

// DatabaseSettings points at the SQLite file holding accounts and remote profiles.
type DatabaseSettings struct {
	Path string `json:"path"`
}

type AuthSettings struct {
	SessionSecret     string `json:"sessionSecret"`
	SessionTTLHours   int    `json:"sessionTtlHours"`
	MinPasswordLength int    `json:"minPasswordLength"`
	// PublicURL is the externally reachable origin used for OAuth callbacks.
	PublicURL          string `json:"publicUrl"`
	GoogleClientID     string `json:"googleClientId"`
	GoogleClientSecret string `json:"googleClientSecret"`
}

// SyncMode selects how the local watchlist reconciles with the remote profile.
type SyncMode string

const (
	// SyncModeManual only reconciles on explicit pull/push requests.
	SyncModeManual SyncMode = "manual"
	// SyncModeOverwrite pulls on sign-in and pushes every local mutation while signed in.
	SyncModeOverwrite SyncMode = "overwrite"
)

type SyncSettings struct {
	Mode                       SyncMode `json:"mode"`
	ProfileWriteTimeoutSeconds int      `json:"profileWriteTimeoutSeconds"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7788},
		Metadata: MetadataSettings{
			TMDBAPIKey:        "",
			Language:          "en-US",
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			RequestsPerSecond: 40,
		},
		Cache:    CacheSettings{Directory: "cache", MetadataTTLHours: 24},
		Database: DatabaseSettings{Path: "cache/optix.db"},
		Auth:     AuthSettings{SessionSecret: "", SessionTTLHours: 24 * 30, MinPasswordLength: 6},
		Sync:     SyncSettings{Mode: SyncModeManual, ProfileWriteTimeoutSeconds: 5},
		Log: LogConfig{
			File:       "cache/logs/optix.log",
			MaxSize:    20,   // MB per file
			MaxBackups: 3,    // keep 3 old files
			MaxAge:     14,   // days
			Compress:   true, // gzip rotated files
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing. Fields
// absent from an older file keep their default values.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	s := DefaultSettings()
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	s.normalise()
	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

// EnsureSessionSecret generates and persists a signing secret when none is configured.
func (m *Manager) EnsureSessionSecret(s *Settings) (bool, error) {
	if strings.TrimSpace(s.Auth.SessionSecret) != "" {
		return false, nil
	}

	secret, err := password.Generate(48, 10, 0, false, true)
	if err != nil {
		return false, fmt.Errorf("generate session secret: %w", err)
	}
	s.Auth.SessionSecret = secret

	if err := m.Save(*s); err != nil {
		return false, fmt.Errorf("persist session secret: %w", err)
	}
	return true, nil
}

// ApplyEnv overrides settings from OPTIX_* environment variables.
func (s *Settings) ApplyEnv() {
	if key := strings.TrimSpace(os.Getenv("OPTIX_TMDB_API_KEY")); key != "" {
		s.Metadata.TMDBAPIKey = key
	}
	if id := strings.TrimSpace(os.Getenv("OPTIX_GOOGLE_CLIENT_ID")); id != "" {
		s.Auth.GoogleClientID = id
	}
	if secret := strings.TrimSpace(os.Getenv("OPTIX_GOOGLE_CLIENT_SECRET")); secret != "" {
		s.Auth.GoogleClientSecret = secret
	}
}

func (s *Settings) normalise() {
	defaults := DefaultSettings()

	s.Metadata.TMDBAPIKey = strings.TrimSpace(s.Metadata.TMDBAPIKey)
	if strings.TrimSpace(s.Metadata.BaseURL) == "" {
		s.Metadata.BaseURL = defaults.Metadata.BaseURL
	}
	if strings.TrimSpace(s.Metadata.ImageBaseURL) == "" {
		s.Metadata.ImageBaseURL = defaults.Metadata.ImageBaseURL
	}
	if s.Metadata.RequestsPerSecond <= 0 {
		s.Metadata.RequestsPerSecond = defaults.Metadata.RequestsPerSecond
	}
	if strings.TrimSpace(s.Cache.Directory) == "" {
		s.Cache.Directory = defaults.Cache.Directory
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = defaults.Database.Path
	}
	if s.Cache.MetadataTTLHours < 0 {
		s.Cache.MetadataTTLHours = 0
	}
	if s.Auth.MinPasswordLength < 6 {
		s.Auth.MinPasswordLength = 6
	}
	s.Auth.PublicURL = strings.TrimRight(strings.TrimSpace(s.Auth.PublicURL), "/")
	if s.Auth.SessionTTLHours <= 0 {
		s.Auth.SessionTTLHours = defaults.Auth.SessionTTLHours
	}

	switch SyncMode(strings.ToLower(strings.TrimSpace(string(s.Sync.Mode)))) {
	case SyncModeOverwrite:
		s.Sync.Mode = SyncModeOverwrite
	default:
		s.Sync.Mode = SyncModeManual
	}
	if s.Sync.ProfileWriteTimeoutSeconds <= 0 {
		s.Sync.ProfileWriteTimeoutSeconds = defaults.Sync.ProfileWriteTimeoutSeconds
	}
}
