package spotify

import (
	"context"
	"iter"

	"github.com/zmb3/spotify/v2"
)

// SavedTracks streams the user's liked songs, 50 per request.
// A failed page ends the sequence with a non-nil error.
func (c *Client) SavedTracks(ctx context.Context) iter.Seq2[TrackItem, error] {
	return pages(ctx, c.logger, pager[*spotify.SavedTrackPage, TrackItem]{
		source: "liked songs",
		first: func(ctx context.Context) (*spotify.SavedTrackPage, error) {
			return c.api.CurrentUsersTracks(ctx, spotify.Limit(savedTracksPageSize))
		},
		next: func(ctx context.Context, page *spotify.SavedTrackPage) error {
			return c.api.NextPage(ctx, page)
		},
		items: savedTrackItems,
	})
}

// PlaylistTracks streams the tracks of a playlist, 100 per request.
// Slots whose track was removed from the catalog, podcast episodes and local
// files are skipped. A failed page ends the sequence with a non-nil error.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) iter.Seq2[TrackItem, error] {
	return pages(ctx, c.logger, pager[*spotify.PlaylistItemPage, TrackItem]{
		source: "playlist " + playlistID,
		first: func(ctx context.Context) (*spotify.PlaylistItemPage, error) {
			return c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(playlistTracksPageSize))
		},
		next: func(ctx context.Context, page *spotify.PlaylistItemPage) error {
			return c.api.NextPage(ctx, page)
		},
		items: playlistTrackItems,
	})
}

// AlbumTracks streams the tracks of an album.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) iter.Seq[Track] {
	return paginate(ctx, c.logger, pager[*spotify.SimpleTrackPage, Track]{
		source: "album " + albumID,
		first: func(ctx context.Context) (*spotify.SimpleTrackPage, error) {
			return c.api.GetAlbumTracks(ctx, spotify.ID(albumID), spotify.Limit(albumTracksPageSize))
		},
		next: func(ctx context.Context, page *spotify.SimpleTrackPage) error {
			return c.api.NextPage(ctx, page)
		},
		items: func(page *spotify.SimpleTrackPage) []Track {
			tracks := make([]Track, 0, len(page.Tracks))
			for i := range page.Tracks {
				tracks = append(tracks, *convertSimpleTrack(&page.Tracks[i]))
			}
			return tracks
		},
	})
}

func savedTrackItems(page *spotify.SavedTrackPage) []TrackItem {
	items := make([]TrackItem, 0, len(page.Tracks))
	for i := range page.Tracks {
		saved := &page.Tracks[i]
		items = append(items, TrackItem{
			Track:   convertSimpleTrack(&saved.SimpleTrack),
			AddedAt: saved.AddedAt,
		})
	}
	return items
}

func playlistTrackItems(page *spotify.PlaylistItemPage) []TrackItem {
	items := make([]TrackItem, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track.Track == nil {
			continue // Deleted track or episode
		}
		if item.IsLocal || item.Track.Track.ID == "" {
			continue // Local file, not addable through the Web API
		}
		items = append(items, TrackItem{
			Track:   convertSimpleTrack(&item.Track.Track.SimpleTrack),
			AddedAt: item.AddedAt,
		})
	}
	return items
}

// convertSimpleTrack converts a Spotify SimpleTrack to a Track.
func convertSimpleTrack(t *spotify.SimpleTrack) *Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return &Track{
		ID:      t.ID.String(),
		URI:     string(t.URI),
		Name:    t.Name,
		Artists: artists,
	}
}
