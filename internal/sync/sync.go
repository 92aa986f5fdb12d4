// Package sync runs the end-to-end playlist updates: it builds the library,
// selects tracks and writes them to Spotify.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-smart-playlists/internal/library"
	"github.com/justestif/go-spotify-smart-playlists/internal/playcount"
	"github.com/justestif/go-spotify-smart-playlists/internal/playlist"
	"github.com/justestif/go-spotify-smart-playlists/internal/releases"
	"github.com/justestif/go-spotify-smart-playlists/internal/report"
	"github.com/justestif/go-spotify-smart-playlists/internal/selection"
)

// NewReleasesDescription is set on a newly created new-releases playlist.
const NewReleasesDescription = "New releases from artists I follow"

// ErrNoMatcher is returned by playcount updates when no Last.fm matcher
// was configured.
var ErrNoMatcher = errors.New("playcount matcher not configured")

// Catalog is everything the updates need from Spotify.
type Catalog interface {
	library.Catalog
	playlist.Catalog
	releases.Catalog
}

// Service runs playlist updates against one Spotify account.
type Service struct {
	builder   *library.Builder
	playlists *playlist.Materializer
	finder    *releases.Finder
	matcher   *playcount.Matcher
	logger    *log.Logger
	out       io.Writer
	now       func() time.Time
	workers   int
}

// Option configures a Service.
type Option func(*Service)

// WithMatcher enables the playcount playlists.
func WithMatcher(m *playcount.Matcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput sets where summary tables are written.
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.out = w
		}
	}
}

// WithClock sets the time source used for the selection windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWorkers sets how many sources are fetched in parallel.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a new sync service.
func New(catalog Catalog, opts ...Option) *Service {
	s := &Service{
		logger:  log.New(io.Discard),
		out:     io.Discard,
		now:     time.Now,
		workers: library.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.builder = library.NewBuilder(catalog, library.WithWorkers(s.workers), library.WithLogger(s.logger))
	s.playlists = playlist.New(catalog, playlist.WithLogger(s.logger))
	s.finder = releases.NewFinder(catalog, releases.WithLogger(s.logger))
	return s
}

// smartPlaylist is how the library-derived playlists are created.
var smartPlaylist = playlist.Settings{Public: true}

// RecentResult is the outcome of UpdateRecentPlaylist.
type RecentResult struct {
	LibrarySize   int
	FailedSources []library.SourceError
	URIs          []string // Playlist contents, newest first
}

// UpdateRecentPlaylist rebuilds the playlist named name with every library
// track added within window, newest first.
func (s *Service) UpdateRecentPlaylist(ctx context.Context, sourceIDs []string, name string, window time.Duration) (*RecentResult, error) {
	built := s.builder.Build(ctx, sourceIDs)

	uris := selection.URIs(selection.Recent(built.Library.Records(), s.now(), window))
	s.logger.Info("Selected recent tracks", "count", len(uris), "window", window)

	if _, err := s.playlists.Materialize(ctx, name, uris, smartPlaylist); err != nil {
		return nil, err
	}

	return &RecentResult{
		LibrarySize:   built.Library.Len(),
		FailedSources: built.Failed,
		URIs:          uris,
	}, nil
}

// PlaycountResult is the outcome of UpdatePlaycountPlaylists.
type PlaycountResult struct {
	LibrarySize   int
	FailedSources []library.SourceError
	Missing       int // Library tracks Last.fm has no count for
	Top           []playcount.MatchedTrack
	Bottom        []playcount.MatchedTrack
}

// UpdatePlaycountPlaylists rebuilds the most and least played playlists
// from Last.fm play counts joined onto the library.
func (s *Service) UpdatePlaycountPlaylists(ctx context.Context, sourceIDs []string, topName, bottomName string) (*PlaycountResult, error) {
	if s.matcher == nil {
		return nil, ErrNoMatcher
	}

	built := s.builder.Build(ctx, sourceIDs)

	table, err := s.matcher.BuildTable(ctx)
	if err != nil {
		return nil, err
	}

	matched, missing := playcount.Match(built.Library.Records(), table)
	s.logger.Info("Matched play counts", "tracks", len(matched), "missing", missing)

	top := selection.Top(matched, selection.DefaultExtremesSize)
	bottom := selection.Bottom(matched, selection.DefaultExtremesSize)

	fmt.Fprintln(s.out, report.Tracks(topName, top))
	fmt.Fprintln(s.out, report.Tracks(bottomName, bottom))

	if _, err := s.playlists.Materialize(ctx, topName, selection.MatchedURIs(top), smartPlaylist); err != nil {
		return nil, err
	}
	if _, err := s.playlists.Materialize(ctx, bottomName, selection.MatchedURIs(bottom), smartPlaylist); err != nil {
		return nil, err
	}

	return &PlaycountResult{
		LibrarySize:   built.Library.Len(),
		FailedSources: built.Failed,
		Missing:       missing,
		Top:           top,
		Bottom:        bottom,
	}, nil
}

// ReleasesResult is the outcome of UpdateNewReleases.
type ReleasesResult struct {
	PlaylistID string
	Known      int // Tracks excluded as already in the library
	Artists    int
	Releases   int
	Added      []string
}

// UpdateNewReleases appends tracks from releases within window that are in
// neither the library nor the playlist named name. The playlist is created
// private when missing and is never cleared.
func (s *Service) UpdateNewReleases(ctx context.Context, sourceIDs []string, name string, window time.Duration) (*ReleasesResult, error) {
	since := s.now().Add(-window)
	s.logger.Info("Looking for releases", "since", since.Format(time.DateTime))

	target, err := s.playlists.Resolve(ctx, name, playlist.Settings{
		Description: NewReleasesDescription,
		Public:      false,
	})
	if err != nil {
		return nil, err
	}

	// The target's own tracks count as known so reruns add nothing twice.
	known := s.builder.Build(ctx, slices.Concat(sourceIDs, []string{target.ID}))
	s.logger.Info("Tracks to exclude", "count", known.Library.Len())

	found, err := s.finder.Discover(ctx, since, known.Library.Contains)
	if err != nil {
		return nil, err
	}

	if len(found.URIs) == 0 {
		s.logger.Info("No new tracks found to add")
	} else if err := s.playlists.Append(ctx, target.ID, found.URIs); err != nil {
		return nil, fmt.Errorf("adding new releases: %w", err)
	}

	return &ReleasesResult{
		PlaylistID: target.ID,
		Known:      known.Library.Len(),
		Artists:    found.Artists,
		Releases:   found.Albums,
		Added:      found.URIs,
	}, nil
}
