package spotify

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// MaxItemsPerRequest is the Web API cap on items added in one call.
const MaxItemsPerRequest = 100

// ErrTooManyItems is returned when a single add call exceeds MaxItemsPerRequest.
var ErrTooManyItems = errors.New("too many items for one request")

// Playlists streams the current user's playlists.
func (c *Client) Playlists(ctx context.Context) iter.Seq[Playlist] {
	return paginate(ctx, c.logger, pager[*spotify.SimplePlaylistPage, Playlist]{
		source: "user playlists",
		first: func(ctx context.Context) (*spotify.SimplePlaylistPage, error) {
			return c.api.CurrentUsersPlaylists(ctx, spotify.Limit(playlistsPageSize))
		},
		next: func(ctx context.Context, page *spotify.SimplePlaylistPage) error {
			return c.api.NextPage(ctx, page)
		},
		items: func(page *spotify.SimplePlaylistPage) []Playlist {
			playlists := make([]Playlist, len(page.Playlists))
			for i, p := range page.Playlists {
				playlists[i] = Playlist{ID: p.ID.String(), Name: p.Name}
			}
			return playlists
		},
	})
}

// PlaylistName returns the display name of a playlist.
func (c *Client) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	playlist, err := c.api.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("name"))
	if err != nil {
		return "", fmt.Errorf("getting playlist %s: %w", playlistID, err)
	}
	return playlist.Name, nil
}

// CreatePlaylist creates a new playlist for the current user.
// Returns the playlist ID.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return "", err
	}

	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return "", fmt.Errorf("creating playlist: %w", err)
	}

	return playlist.ID.String(), nil
}

// ReplaceItems replaces the whole contents of a playlist. An empty uris
// slice clears it.
func (c *Client) ReplaceItems(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) > MaxItemsPerRequest {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(uris), MaxItemsPerRequest)
	}

	if err := c.api.ReplacePlaylistTracks(ctx, spotify.ID(playlistID), trackIDs(uris)...); err != nil {
		return fmt.Errorf("replacing playlist items: %w", err)
	}
	return nil
}

// AddItems appends tracks to a playlist in a single request.
// Callers batch; more than MaxItemsPerRequest items is rejected.
func (c *Client) AddItems(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxItemsPerRequest {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(uris), MaxItemsPerRequest)
	}

	if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), trackIDs(uris)...); err != nil {
		return fmt.Errorf("adding playlist items: %w", err)
	}
	return nil
}

// trackIDs converts spotify:track:<id> URIs to bare IDs.
func trackIDs(uris []string) []spotify.ID {
	ids := make([]spotify.ID, len(uris))
	for i, uri := range uris {
		ids[i] = spotify.ID(uri[strings.LastIndex(uri, ":")+1:])
	}
	return ids
}
