package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-smart-playlists/internal/config"
	"github.com/justestif/go-spotify-smart-playlists/internal/lastfm"
	"github.com/justestif/go-spotify-smart-playlists/internal/logging"
	"github.com/justestif/go-spotify-smart-playlists/internal/playcount"
	"github.com/justestif/go-spotify-smart-playlists/internal/sync"
)

func (a *app) recentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "Rebuild the recently added playlist",
		Long: `Collects liked songs and every playlist in SOURCE_PLAYLIST_IDS, keeps
the tracks first added within RECENT_WINDOW_DAYS and overwrites
TARGET_PLAYLIST_NAME with them, newest first.`,
		Args: cobra.NoArgs,
		RunE: a.logged("smart_playlists_recent", "Recently Added Playlist Update",
			func(ctx context.Context, cfg *config.Config, run *logging.Run) error {
				client, err := spotifyClient(ctx, cfg, run)
				if err != nil {
					return err
				}

				svc := sync.New(client, sync.WithLogger(run.Logger), sync.WithWorkers(cfg.Workers))
				result, err := svc.UpdateRecentPlaylist(ctx, cfg.SourcePlaylistIDs, cfg.TargetPlaylistName, cfg.RecentWindow())
				if err != nil {
					return err
				}

				run.Logger.Info("Updated playlist", "name", cfg.TargetPlaylistName,
					"tracks", len(result.URIs), "library", result.LibrarySize, "failed_sources", len(result.FailedSources))
				return nil
			}),
	}
}

func (a *app) playcountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playcount",
		Short: "Rebuild the most and least played playlists from Last.fm",
		Long: `Joins the library against the LASTFM_USERNAME scrobble history and
overwrites TOP_PLAYLIST_NAME and BOTTOM_PLAYLIST_NAME with the 25 most and
least played tracks. Tracks never scrobbled are left out of both.`,
		Args: cobra.NoArgs,
		RunE: a.logged("smart_playlists_playcount", "Playcount Playlists Update",
			func(ctx context.Context, cfg *config.Config, run *logging.Run) error {
				lfm := &lastfm.Config{APIKey: cfg.LastFMAPIKey, Username: cfg.LastFMUsername}
				if err := lfm.Validate(); err != nil {
					return err
				}

				client, err := spotifyClient(ctx, cfg, run)
				if err != nil {
					return err
				}

				matcher := playcount.NewMatcher(lastfm.NewClient(lfm), lfm.Username, playcount.WithLogger(run.Logger))
				svc := sync.New(client,
					sync.WithLogger(run.Logger),
					sync.WithWorkers(cfg.Workers),
					sync.WithMatcher(matcher),
					sync.WithOutput(os.Stdout),
				)

				result, err := svc.UpdatePlaycountPlaylists(ctx, cfg.SourcePlaylistIDs, cfg.TopPlaylistName, cfg.BottomPlaylistName)
				if err != nil {
					return err
				}

				run.Logger.Info("Updated playcount playlists",
					"top", len(result.Top), "bottom", len(result.Bottom), "missing", result.Missing)
				return nil
			}),
	}
}

func (a *app) releasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "releases",
		Short: "Add new releases from followed artists",
		Long: `Checks every followed artist for albums and singles released within
RELEASE_WINDOW_HOURS and appends their tracks to NEW_RELEASES_PLAYLIST_NAME,
skipping tracks already in liked songs, the source playlists or the
playlist itself.`,
		Args: cobra.NoArgs,
		RunE: a.logged("spotify_releases", "Spotify New Releases Tracker",
			func(ctx context.Context, cfg *config.Config, run *logging.Run) error {
				client, err := spotifyClient(ctx, cfg, run)
				if err != nil {
					return err
				}

				svc := sync.New(client, sync.WithLogger(run.Logger), sync.WithWorkers(cfg.Workers))
				result, err := svc.UpdateNewReleases(ctx, cfg.SourcePlaylistIDs, cfg.NewReleasesPlaylistName, cfg.ReleaseWindow())
				if err != nil {
					return err
				}

				run.Logger.Infof("Summary: Found %d new release(s), added %d track(s)", result.Releases, len(result.Added))
				return nil
			}),
	}
}
