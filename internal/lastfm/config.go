// Package lastfm provides Last.fm API integration for reading a user's
// scrobble history.
package lastfm

import "errors"

var (
	// ErrMissingAPIKey is returned when LASTFM_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing LASTFM_API_KEY environment variable")

	// ErrMissingUsername is returned when LASTFM_USERNAME is not set.
	ErrMissingUsername = errors.New("missing LASTFM_USERNAME environment variable")
)

// Config holds Last.fm API configuration.
type Config struct {
	APIKey   string
	Username string
}

// Validate reports the first missing required value.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Username == "" {
		return ErrMissingUsername
	}
	return nil
}
