package library

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-spotify-smart-playlists/internal/spotify"
)

// DefaultWorkers is the number of sources fetched in parallel.
const DefaultWorkers = 5

// LikedSongs labels the saved-tracks source.
const LikedSongs = "Liked Songs"

// Catalog is the read side of the Spotify client used to build a library.
type Catalog interface {
	SavedTracks(ctx context.Context) iter.Seq2[spotify.TrackItem, error]
	PlaylistTracks(ctx context.Context, playlistID string) iter.Seq2[spotify.TrackItem, error]
	PlaylistName(ctx context.Context, playlistID string) (string, error)
}

// SourceError records a source whose tracks are missing from the library,
// in whole or from the failed page on.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// BuildResult is the outcome of a library build.
type BuildResult struct {
	Library *Library
	Sources int           // Sources attempted
	Failed  []SourceError // Sources that failed; tracks read before the failure are kept
}

// Builder fetches several sources concurrently into one Library.
type Builder struct {
	catalog Catalog
	workers int
	logger  *log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers sets how many sources are fetched at once.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a new library builder.
func NewBuilder(catalog Catalog, opts ...Option) *Builder {
	b := &Builder{
		catalog: catalog,
		workers: DefaultWorkers,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// source is one collection feeding the library.
type source struct {
	label string
	open  func(ctx context.Context) (string, iter.Seq2[spotify.TrackItem, error], error)
}

// Build merges liked songs and every playlist in playlistIDs into a fresh
// Library. Sources run concurrently; a failing source is logged and recorded
// without affecting the others. Tracks it yielded before failing are kept.
func (b *Builder) Build(ctx context.Context, playlistIDs []string) *BuildResult {
	sources := []source{{
		label: LikedSongs,
		open: func(ctx context.Context) (string, iter.Seq2[spotify.TrackItem, error], error) {
			return LikedSongs, b.catalog.SavedTracks(ctx), nil
		},
	}}

	for _, id := range lo.Uniq(playlistIDs) {
		sources = append(sources, source{
			label: id,
			open: func(ctx context.Context) (string, iter.Seq2[spotify.TrackItem, error], error) {
				name, err := b.catalog.PlaylistName(ctx, id)
				if err != nil {
					return "", nil, err
				}
				return name, b.catalog.PlaylistTracks(ctx, id), nil
			},
		})
	}

	lib := New()
	result := &BuildResult{Library: lib, Sources: len(sources)}

	var (
		g      errgroup.Group
		failMu sync.Mutex
	)
	g.SetLimit(b.workers)

	for _, src := range sources {
		g.Go(func() error {
			if err := b.mergeSource(ctx, lib, src); err != nil {
				b.logger.Error("skipping source", "source", src.label, "err", err)
				failMu.Lock()
				result.Failed = append(result.Failed, SourceError{Source: src.label, Err: err})
				failMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors

	b.logger.Info("Library built", "tracks", lib.Len(), "sources", result.Sources, "failed", len(result.Failed))
	return result
}

// mergeSource fetches, normalizes and merges one source. Items read before
// a fetch error stay merged; the error is still returned.
func (b *Builder) mergeSource(ctx context.Context, lib *Library, src source) error {
	name, items, err := src.open(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("Fetching tracks", "source", name)

	seen, merged := 0, 0
	for item, err := range items {
		if err != nil {
			b.logger.Warn("Partial source", "source", name, "tracks", merged)
			return err
		}
		seen++
		rec := Normalize(item.Track, item.AddedAt)
		if rec == nil {
			continue
		}
		lib.Merge(*rec)
		merged++
	}

	b.logger.Info("Fetched tracks", "source", name, "tracks", merged, "skipped", seen-merged)
	return nil
}
