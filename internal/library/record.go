// Package library builds a deduplicated view of a user's tracks from several
// overlapping Spotify collections.
package library

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/justestif/go-spotify-smart-playlists/internal/spotify"
)

// UnknownArtist is used when a track has no credited artists.
const UnknownArtist = "Unknown"

// keySeparator joins artist and title in a fuzzy key. It is chosen to be
// unlikely in real titles, not impossible.
const keySeparator = "|||"

// TrackRecord is the canonical form of a track seen in any source.
type TrackRecord struct {
	URI      string
	Name     string
	Artist   string     // First credited artist
	FuzzyKey string     // See FuzzyKey
	AddedAt  *time.Time // Earliest date any source recorded the track; nil if unknown
}

// FuzzyKey returns the case-folded "artist|||title" key used to join tracks
// against Last.fm, which shares no identifier with Spotify.
//
// Distinct recordings with the same artist and title text collide on the
// same key. That imprecision is accepted.
func FuzzyKey(artist, name string) string {
	return cases.Fold().String(artist) + keySeparator + cases.Fold().String(name)
}

// Normalize converts a raw catalog track into a TrackRecord.
// addedAt is the RFC 3339 provenance date reported by the source; an empty or
// malformed value leaves AddedAt nil. Returns nil when the track is nil or has
// no URI, which filters the item rather than failing.
func Normalize(track *spotify.Track, addedAt string) *TrackRecord {
	if track == nil || track.URI == "" {
		return nil
	}

	artist := UnknownArtist
	if len(track.Artists) > 0 {
		artist = track.Artists[0]
	}

	rec := &TrackRecord{
		URI:      track.URI,
		Name:     track.Name,
		Artist:   artist,
		FuzzyKey: FuzzyKey(artist, track.Name),
	}

	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(addedAt)); err == nil {
		rec.AddedAt = &t
	}

	return rec
}
