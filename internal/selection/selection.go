// Package selection picks and orders the tracks each smart playlist holds.
package selection

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/samber/lo/mutable"

	"github.com/justestif/go-spotify-smart-playlists/internal/library"
	"github.com/justestif/go-spotify-smart-playlists/internal/playcount"
)

// Defaults for the smart playlists.
const (
	DefaultRecentWindow = 30 * 24 * time.Hour
	DefaultExtremesSize = 25
)

// Recent returns the records added strictly after now-window, newest first.
// Records without a date are excluded. Equal dates are ordered by URI, so
// the same library always yields the same sequence.
func Recent(records []library.TrackRecord, now time.Time, window time.Duration) []library.TrackRecord {
	cutoff := now.Add(-window)

	recent := lo.Filter(records, func(rec library.TrackRecord, _ int) bool {
		return rec.AddedAt != nil && rec.AddedAt.After(cutoff)
	})

	slices.SortFunc(recent, func(a, b library.TrackRecord) int {
		if c := b.AddedAt.Compare(*a.AddedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.URI, b.URI)
	})
	return recent
}

// Top returns up to n played tracks with the highest playcounts, highest
// first. Ties are ordered by URI.
func Top(matched []playcount.MatchedTrack, n int) []playcount.MatchedTrack {
	played := lo.Filter(matched, func(t playcount.MatchedTrack, _ int) bool {
		return t.Playcount > 0
	})

	slices.SortFunc(played, func(a, b playcount.MatchedTrack) int {
		if c := cmp.Compare(b.Playcount, a.Playcount); c != 0 {
			return c
		}
		return cmp.Compare(a.URI, b.URI)
	})
	return played[:min(n, len(played))]
}

// Bottom returns up to n played tracks with the lowest playcounts, lowest
// first. Tracks sharing a playcount are shuffled, so which members of the
// last group make the cut varies between calls while the playcounts
// returned do not.
func Bottom(matched []playcount.MatchedTrack, n int) []playcount.MatchedTrack {
	played := lo.Filter(matched, func(t playcount.MatchedTrack, _ int) bool {
		return t.Playcount > 0
	})

	groups := lo.GroupBy(played, func(t playcount.MatchedTrack) int {
		return t.Playcount
	})
	counts := lo.Keys(groups)
	slices.Sort(counts)

	var bottom []playcount.MatchedTrack
	for _, count := range counts {
		if len(bottom) >= n {
			break
		}
		group := groups[count]
		mutable.Shuffle(group)
		bottom = append(bottom, group...)
	}
	return bottom[:min(n, len(bottom))]
}

// URIs returns the URIs of records in order.
func URIs(records []library.TrackRecord) []string {
	return lo.Map(records, func(rec library.TrackRecord, _ int) string {
		return rec.URI
	})
}

// MatchedURIs returns the URIs of matched tracks in order.
func MatchedURIs(tracks []playcount.MatchedTrack) []string {
	return lo.Map(tracks, func(t playcount.MatchedTrack, _ int) string {
		return t.URI
	})
}
