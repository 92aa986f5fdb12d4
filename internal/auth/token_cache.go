// Package auth provides Spotify OAuth2 authentication with token caching.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/oauth2"
)

const (
	configDirName = "spotify-smart-playlists"
	tokenFileName = "token.json"
)

// TokenCache stores the OAuth token on disk. Reads and writes hold a file
// lock next to the token so commands running at the same time do not
// interleave a refresh.
type TokenCache struct {
	path string
	mu   sync.Mutex // flock does not exclude goroutines sharing one handle
	lock *flock.Flock
}

// DefaultTokenCache returns a TokenCache using the default location:
// ~/.config/spotify-smart-playlists/token.json
func DefaultTokenCache() (*TokenCache, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting user config dir: %w", err)
	}

	return NewTokenCache(filepath.Join(configDir, configDirName, tokenFileName)), nil
}

// NewTokenCache creates a TokenCache with a custom path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the file path where tokens are stored.
func (c *TokenCache) Path() string {
	return c.path
}

// Load reads a cached token from disk.
// Returns (nil, nil) if no token has been saved.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	if _, err := os.Stat(filepath.Dir(c.path)); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking token file: %w", err)
	}
	defer c.lock.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}

	return &token, nil
}

// Save writes the token to disk, creating the parent directory if needed.
// The file is replaced atomically and is readable by the owner only.
func (c *TokenCache) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("cannot save nil token")
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("locking token file: %w", err)
	}
	defer c.lock.Unlock()

	tmp, err := os.CreateTemp(dir, tokenFileName+".*")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}

	return nil
}

// Delete removes the cached token file.
// Returns nil if the file does not exist.
func (c *TokenCache) Delete() error {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("locking token file: %w", err)
	}
	defer c.lock.Unlock()

	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
