// Package releases finds tracks from followed artists' recent releases that
// are not already in the user's library.
package releases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-smart-playlists/internal/spotify"
)

// DefaultWindow is how far back a release still counts as new.
const DefaultWindow = 24 * time.Hour

// ErrInvalidReleaseDate is returned for release dates in none of the
// catalog's precisions.
var ErrInvalidReleaseDate = errors.New("invalid release date")

// Release date layouts by precision.
var releaseDateLayouts = map[int]string{
	len("2006"):       "2006",
	len("2006-01"):    "2006-01",
	len("2006-01-02"): "2006-01-02",
}

// Catalog is the read side of the Spotify client used for discovery.
type Catalog interface {
	FollowedArtists(ctx context.Context) iter.Seq[spotify.Artist]
	ArtistAlbums(ctx context.Context, artistID string) iter.Seq[spotify.Album]
	AlbumTracks(ctx context.Context, albumID string) iter.Seq[spotify.Track]
}

// Result summarizes a discovery pass.
type Result struct {
	Artists int      // Followed artists checked
	Albums  int      // Distinct releases on or after the cutoff
	URIs    []string // New tracks in discovery order
}

// Finder discovers new tracks from followed artists.
type Finder struct {
	catalog Catalog
	logger  *log.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Finder) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFinder creates a new Finder.
func NewFinder(catalog Catalog, opts ...Option) *Finder {
	f := &Finder{
		catalog: catalog,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseReleaseDate parses a YYYY, YYYY-MM or YYYY-MM-DD release date as
// midnight in loc on the first day of the period it names.
func ParseReleaseDate(s string, loc *time.Location) (time.Time, error) {
	layout, ok := releaseDateLayouts[len(s)]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReleaseDate, s)
	}

	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReleaseDate, s)
	}
	return t, nil
}

// Discover checks every followed artist for albums and singles released on
// or after since and returns their tracks, skipping any URI for which known
// reports true. A release shared by several artists is expanded once.
// Release dates are read in since's location.
func (f *Finder) Discover(ctx context.Context, since time.Time, known func(uri string) bool) (*Result, error) {
	f.logger.Info("Fetching followed artists")

	var artists []spotify.Artist
	for a := range f.catalog.FollowedArtists(ctx) {
		artists = append(artists, a)
	}
	f.logger.Info("Found followed artists", "count", len(artists))

	result := &Result{Artists: len(artists)}
	processed := make(map[string]bool)
	queued := make(map[string]bool)

	for i, artist := range artists {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovering releases: %w", err)
		}

		f.logger.Infof("[%d/%d] Checking %s", i+1, len(artists), artist.Name)

		for album := range f.catalog.ArtistAlbums(ctx, artist.ID) {
			released, err := ParseReleaseDate(album.ReleaseDate, since.Location())
			if err != nil {
				f.logger.Warn("Skipping album", "album", album.Name, "err", err)
				continue
			}
			if released.Before(since) {
				continue
			}

			if processed[album.ID] {
				f.logger.Infof("  [SKIP] Already processed: %s", album.Name)
				continue
			}
			processed[album.ID] = true
			result.Albums++
			f.logger.Infof("  [+] Found: %s (%s)", album.Name, album.ReleaseDate)

			added := 0
			for track := range f.catalog.AlbumTracks(ctx, album.ID) {
				if track.URI == "" || known(track.URI) || queued[track.URI] {
					continue
				}
				queued[track.URI] = true
				result.URIs = append(result.URIs, track.URI)
				added++
			}
			if added > 0 {
				f.logger.Infof("    -> %d new track(s) to add", added)
			}
		}
	}

	f.logger.Info("Discovery finished", "releases", result.Albums, "new_tracks", len(result.URIs))
	return result, nil
}
