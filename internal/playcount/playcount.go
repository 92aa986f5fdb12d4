// Package playcount joins Last.fm scrobble counts onto a track library.
package playcount

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-smart-playlists/internal/lastfm"
	"github.com/justestif/go-spotify-smart-playlists/internal/library"
	"github.com/justestif/go-spotify-smart-playlists/internal/retry"
)

// Source is the Last.fm side of the matcher.
type Source interface {
	TopTracks(ctx context.Context, user string, page int) (*lastfm.TopTracksPage, error)
	TrackPlaycount(ctx context.Context, user, artist, track string) (int, error)
}

// Table maps fuzzy keys to play counts.
type Table map[string]int

// MatchedTrack is a library track with its play count attached.
type MatchedTrack struct {
	URI       string
	Name      string
	Artist    string
	Playcount int
}

// Matcher reads a user's scrobble history and joins it onto a library.
type Matcher struct {
	source Source
	user   string
	policy retry.Policy
	logger *log.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithRetryPolicy overrides the rate-limit backoff. The retry predicate is
// always lastfm.IsRateLimited.
func WithRetryPolicy(maxRetries int, initialDelay time.Duration) Option {
	return func(m *Matcher) {
		m.policy.MaxRetries = maxRetries
		m.policy.InitialDelay = initialDelay
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMatcher creates a matcher for the given Last.fm user.
func NewMatcher(source Source, user string, opts ...Option) *Matcher {
	m := &Matcher{
		source: source,
		user:   user,
		policy: retry.Policy{
			MaxRetries:   retry.DefaultMaxRetries,
			InitialDelay: retry.DefaultInitialDelay,
			Retryable:    lastfm.IsRateLimited,
		},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BuildTable reads the user's all-time top tracks to the last page and keys
// them by fuzzy key. Each page is retried on rate limiting.
//
// Duplicate keys keep the last value read. Pages arrive in descending
// playcount order, so a later duplicate never exceeds the earlier one.
func (m *Matcher) BuildTable(ctx context.Context) (Table, error) {
	table := make(Table)

	for page := 1; ; page++ {
		resp, err := retry.Do(ctx, m.policy, func(ctx context.Context) (*lastfm.TopTracksPage, error) {
			return m.source.TopTracks(ctx, m.user, page)
		})
		if err != nil {
			return nil, fmt.Errorf("building playcount table: %w", err)
		}

		for _, t := range resp.Tracks {
			table[library.FuzzyKey(t.Artist, t.Name)] = t.PlayCount
		}

		m.logger.Debug("Fetched top tracks page", "page", page, "total_pages", resp.TotalPages, "tracks", len(resp.Tracks))

		if len(resp.Tracks) == 0 || page >= resp.TotalPages {
			break
		}
	}

	m.logger.Info("Playcount table built", "entries", len(table))
	return table, nil
}

// TrackPlaycount looks up a single track. It is slower than BuildTable for a
// whole library. A track Last.fm does not know counts as 0.
func (m *Matcher) TrackPlaycount(ctx context.Context, artist, track string) (int, error) {
	count, err := retry.Do(ctx, m.policy, func(ctx context.Context) (int, error) {
		return m.source.TrackPlaycount(ctx, m.user, artist, track)
	})
	if errors.Is(err, lastfm.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("playcount for %s - %s: %w", artist, track, err)
	}
	return count, nil
}

// Match joins records against table by fuzzy key. Records absent from the
// table get playcount 0 and are counted in missing. The result is ordered by
// URI.
func Match(records []library.TrackRecord, table Table) (matched []MatchedTrack, missing int) {
	matched = make([]MatchedTrack, 0, len(records))
	for _, rec := range records {
		count, ok := table[rec.FuzzyKey]
		if !ok {
			missing++
		}
		matched = append(matched, MatchedTrack{
			URI:       rec.URI,
			Name:      rec.Name,
			Artist:    rec.Artist,
			Playcount: count,
		})
	}

	slices.SortFunc(matched, func(a, b MatchedTrack) int {
		return cmp.Compare(a.URI, b.URI)
	})
	return matched, missing
}
