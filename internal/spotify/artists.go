package spotify

import (
	"context"
	"iter"

	"github.com/zmb3/spotify/v2"
)

// FollowedArtists streams the artists the user follows.
func (c *Client) FollowedArtists(ctx context.Context) iter.Seq[Artist] {
	return paginate(ctx, c.logger, pager[*spotify.FullArtistCursorPage, Artist]{
		source: "followed artists",
		first: func(ctx context.Context) (*spotify.FullArtistCursorPage, error) {
			return c.api.CurrentUsersFollowedArtists(ctx, spotify.Limit(followedArtistsLimit))
		},
		next: func(ctx context.Context, page *spotify.FullArtistCursorPage) error {
			// Cursor pages carry no offset, so NextPage cannot walk them.
			if page.Next == "" || page.Cursor.After == "" {
				return spotify.ErrNoMorePages
			}
			next, err := c.api.CurrentUsersFollowedArtists(ctx,
				spotify.Limit(followedArtistsLimit), spotify.After(page.Cursor.After))
			if err != nil {
				return err
			}
			*page = *next
			return nil
		},
		items: func(page *spotify.FullArtistCursorPage) []Artist {
			artists := make([]Artist, len(page.Artists))
			for i, a := range page.Artists {
				artists[i] = Artist{ID: a.ID.String(), Name: a.Name}
			}
			return artists
		},
	})
}

// ArtistAlbums streams an artist's albums and singles.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string) iter.Seq[Album] {
	types := []spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle}

	return paginate(ctx, c.logger, pager[*spotify.SimpleAlbumPage, Album]{
		source: "albums of " + artistID,
		first: func(ctx context.Context) (*spotify.SimpleAlbumPage, error) {
			return c.api.GetArtistAlbums(ctx, spotify.ID(artistID), types, spotify.Limit(artistAlbumsPageSize))
		},
		next: func(ctx context.Context, page *spotify.SimpleAlbumPage) error {
			return c.api.NextPage(ctx, page)
		},
		items: func(page *spotify.SimpleAlbumPage) []Album {
			albums := make([]Album, len(page.Albums))
			for i, a := range page.Albums {
				albums[i] = Album{ID: a.ID.String(), Name: a.Name, ReleaseDate: a.ReleaseDate}
			}
			return albums
		},
	})
}
