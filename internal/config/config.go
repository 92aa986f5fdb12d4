// Package config loads settings from the environment, an optional .env file
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys. Each is read from the upper-case environment variable of the same name.
const (
	KeyClientID                = "client_id"
	KeyClientSecret            = "client_secret"
	KeyRedirectURI             = "redirect_uri"
	KeySourcePlaylistIDs       = "source_playlist_ids"
	KeyTargetPlaylistName      = "target_playlist_name"
	KeyTopPlaylistName         = "top_playlist_name"
	KeyBottomPlaylistName      = "bottom_playlist_name"
	KeyNewReleasesPlaylistName = "new_releases_playlist_name"
	KeyLastFMAPIKey            = "lastfm_api_key"
	KeyLastFMUsername          = "lastfm_username"
	KeyLogDir                  = "log_dir"
	KeyLogLevel                = "log_level"
	KeyRecentWindowDays        = "recent_window_days"
	KeyReleaseWindowHours      = "release_window_hours"
	KeyWorkers                 = "workers"
)

var defaults = map[string]any{
	KeyRedirectURI:             "http://127.0.0.1:8080/callback",
	KeyTargetPlaylistName:      "Recently Added",
	KeyTopPlaylistName:         "Most Played",
	KeyBottomPlaylistName:      "Least Played",
	KeyNewReleasesPlaylistName: "The News",
	KeyLogDir:                  "logs",
	KeyLogLevel:                "info",
	KeyRecentWindowDays:        30,
	KeyReleaseWindowHours:      24,
	KeyWorkers:                 5,
}

// ErrMissingValue is returned when a required setting is empty.
var ErrMissingValue = errors.New("missing required setting")

// Config holds every setting a command may need.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	SourcePlaylistIDs       []string
	TargetPlaylistName      string
	TopPlaylistName         string
	BottomPlaylistName      string
	NewReleasesPlaylistName string

	LastFMAPIKey   string
	LastFMUsername string

	LogDir             string
	LogLevel           string
	RecentWindowDays   int
	ReleaseWindowHours int
	Workers            int
}

// Load reads envFile into the process environment, without overriding
// variables already set, then resolves every key through v. A missing
// envFile is not an error.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		ClientID:                v.GetString(KeyClientID),
		ClientSecret:            v.GetString(KeyClientSecret),
		RedirectURI:             v.GetString(KeyRedirectURI),
		SourcePlaylistIDs:       ParsePlaylistIDs(v.GetString(KeySourcePlaylistIDs)),
		TargetPlaylistName:      v.GetString(KeyTargetPlaylistName),
		TopPlaylistName:         v.GetString(KeyTopPlaylistName),
		BottomPlaylistName:      v.GetString(KeyBottomPlaylistName),
		NewReleasesPlaylistName: v.GetString(KeyNewReleasesPlaylistName),
		LastFMAPIKey:            v.GetString(KeyLastFMAPIKey),
		LastFMUsername:          v.GetString(KeyLastFMUsername),
		LogDir:                  v.GetString(KeyLogDir),
		LogLevel:                v.GetString(KeyLogLevel),
		RecentWindowDays:        v.GetInt(KeyRecentWindowDays),
		ReleaseWindowHours:      v.GetInt(KeyReleaseWindowHours),
		Workers:                 v.GetInt(KeyWorkers),
	}

	if cfg.RecentWindowDays <= 0 || cfg.ReleaseWindowHours <= 0 || cfg.Workers <= 0 {
		return nil, errors.New("window sizes and worker count must be positive")
	}

	return cfg, nil
}

// ParsePlaylistIDs splits a comma-separated list, dropping blanks and
// surrounding spaces.
func ParsePlaylistIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// RequireSpotify checks the Spotify credentials.
func (c *Config) RequireSpotify() error {
	return require(map[string]string{
		"CLIENT_ID":     c.ClientID,
		"CLIENT_SECRET": c.ClientSecret,
	})
}

// RecentWindow is how far back the recently added playlist reaches.
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.RecentWindowDays) * 24 * time.Hour
}

// ReleaseWindow is how far back a release still counts as new.
func (c *Config) ReleaseWindow() time.Duration {
	return time.Duration(c.ReleaseWindowHours) * time.Hour
}

func require(values map[string]string) error {
	var missing []string
	for name, value := range values {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
}
