// Package playlist writes computed track lists to named Spotify playlists.
package playlist

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/justestif/go-spotify-smart-playlists/internal/spotify"
)

// Catalog is the playlist side of the Spotify client.
type Catalog interface {
	Playlists(ctx context.Context) iter.Seq[spotify.Playlist]
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)
	ReplaceItems(ctx context.Context, playlistID string, uris []string) error
	AddItems(ctx context.Context, playlistID string, uris []string) error
}

// Target is a playlist resolved by name.
type Target struct {
	Name    string
	ID      string
	Created bool // Created by this resolution
}

// Settings used when a playlist has to be created.
type Settings struct {
	Description string
	Public      bool
}

// Materializer makes named playlists hold exactly a given list of tracks.
type Materializer struct {
	catalog Catalog
	logger  *log.Logger
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Materializer) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a new Materializer.
func New(catalog Catalog, opts ...Option) *Materializer {
	m := &Materializer{
		catalog: catalog,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Find returns the first playlist named exactly name. Duplicate names are
// not reported.
func (m *Materializer) Find(ctx context.Context, name string) (string, bool) {
	for p := range m.catalog.Playlists(ctx) {
		if p.Name == name {
			return p.ID, true
		}
	}
	return "", false
}

// Resolve finds the playlist named name, creating it with settings when the
// account has none. Nothing is cached between calls.
func (m *Materializer) Resolve(ctx context.Context, name string, settings Settings) (*Target, error) {
	if id, ok := m.Find(ctx, name); ok {
		return &Target{Name: name, ID: id}, nil
	}

	id, err := m.catalog.CreatePlaylist(ctx, name, settings.Description, settings.Public)
	if err != nil {
		return nil, fmt.Errorf("creating playlist %q: %w", name, err)
	}
	m.logger.Info("Created playlist", "name", name, "id", id)

	return &Target{Name: name, ID: id, Created: true}, nil
}

// Materialize overwrites the playlist named name with uris, in order.
// An existing playlist is cleared first, so an empty uris leaves it empty.
// A failed batch leaves the playlist partially written.
func (m *Materializer) Materialize(ctx context.Context, name string, uris []string, settings Settings) (*Target, error) {
	target, err := m.Resolve(ctx, name, settings)
	if err != nil {
		return nil, err
	}

	if !target.Created {
		if err := m.catalog.ReplaceItems(ctx, target.ID, nil); err != nil {
			return nil, fmt.Errorf("clearing playlist %q: %w", name, err)
		}
	}

	if err := m.Append(ctx, target.ID, uris); err != nil {
		return nil, fmt.Errorf("filling playlist %q: %w", name, err)
	}

	m.logger.Info("Playlist updated", "name", name, "tracks", len(uris))
	return target, nil
}

// Append adds uris to a playlist in batches of spotify.MaxItemsPerRequest,
// one call per batch, waiting for each before sending the next.
func (m *Materializer) Append(ctx context.Context, playlistID string, uris []string) error {
	for i, batch := range lo.Chunk(uris, spotify.MaxItemsPerRequest) {
		if err := m.catalog.AddItems(ctx, playlistID, batch); err != nil {
			return fmt.Errorf("batch %d: %w", i+1, err)
		}
		m.logger.Info("Added batch", "batch", i+1, "tracks", len(batch))
	}
	return nil
}
