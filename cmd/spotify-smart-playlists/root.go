package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justestif/go-spotify-smart-playlists/internal/auth"
	"github.com/justestif/go-spotify-smart-playlists/internal/config"
	"github.com/justestif/go-spotify-smart-playlists/internal/logging"
	"github.com/justestif/go-spotify-smart-playlists/internal/spotify"
)

// Version is set at build time.
var Version = "dev"

// app carries state shared by every command.
type app struct {
	v       *viper.Viper
	envFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "spotify-smart-playlists",
		Short: "Keep generated Spotify playlists up to date",
		Long: `spotify-smart-playlists rebuilds playlists from your Spotify library:

  recent     tracks added in the last 30 days, newest first
  playcount  your 25 most and least played tracks according to Last.fm
  releases   new tracks from artists you follow that are not in your library

Settings come from the environment or a .env file.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "file of KEY=value settings loaded before the environment is read")
	flags.String("log-dir", "logs", "directory for run log files")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("workers", 5, "sources fetched in parallel")
	_ = a.v.BindPFlag(config.KeyLogDir, flags.Lookup("log-dir"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyWorkers, flags.Lookup("workers"))

	root.AddCommand(
		a.recentCmd(),
		a.playcountCmd(),
		a.releasesCmd(),
		a.logoutCmd(),
	)
	return root
}

// runFunc is the body of a logged command.
type runFunc func(ctx context.Context, cfg *config.Config, run *logging.Run) error

// logged loads settings, opens the run log under prefix and runs fn,
// logging its outcome and elapsed time.
func (a *app) logged(prefix, title string, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(a.v, a.envFile)
		if err != nil {
			return err
		}

		run, err := logging.Open(logging.Options{
			Dir:    cfg.LogDir,
			Prefix: prefix,
			Level:  cfg.LogLevel,
		})
		if err != nil {
			return err
		}
		defer run.Close()

		banner := strings.Repeat("=", 60)
		run.Logger.Info(banner)
		run.Logger.Info("Starting " + title)
		run.Logger.Info(banner)
		run.Logger.Debug("Run started", "id", run.ID, "log", run.Path)

		if err := fn(cmd.Context(), cfg, run); err != nil {
			run.Logger.Error("Run failed", "err", err, "elapsed", run.Elapsed(time.Now()))
			return err
		}

		run.Logger.Info("Completed successfully", "elapsed", run.Elapsed(time.Now()))
		return nil
	}
}

// authenticator builds the OAuth helper from cfg.
func authenticator(cfg *config.Config, run *logging.Run) (*auth.Authenticator, error) {
	if err := cfg.RequireSpotify(); err != nil {
		return nil, err
	}
	return auth.New(auth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
	}, auth.WithLogger(run.Logger))
}

// spotifyClient authenticates and wraps the Web API client.
func spotifyClient(ctx context.Context, cfg *config.Config, run *logging.Run) (*spotify.Client, error) {
	authn, err := authenticator(cfg, run)
	if err != nil {
		return nil, err
	}

	run.Logger.Info("Initializing Spotify client")
	api, err := authn.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticating with Spotify: %w", err)
	}
	return spotify.New(api, spotify.WithLogger(run.Logger)), nil
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached Spotify token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.envFile)
			if err != nil {
				return err
			}
			if err := cfg.RequireSpotify(); err != nil {
				return err
			}

			authn, err := auth.New(auth.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				RedirectURI:  cfg.RedirectURI,
			})
			if err != nil {
				return err
			}
			if err := authn.Logout(); err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, "Logged out.")
			return nil
		},
	}
}
