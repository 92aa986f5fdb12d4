package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	// DefaultRedirectURI uses explicit IPv4 loopback as required by Spotify for local development.
	// See: https://developer.spotify.com/documentation/web-api/concepts/redirect-uri
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"
	callbackTimeout    = 2 * time.Minute
)

var (
	// ErrMissingCredentials is returned when the client ID or secret is empty.
	ErrMissingCredentials = errors.New("missing CLIENT_ID or CLIENT_SECRET")

	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Scopes covers new-release discovery and smart playlist upkeep.
var Scopes = []string{
	spotifyauth.ScopeUserFollowRead,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Config holds the Spotify application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string // Defaults to DefaultRedirectURI
}

// Authenticator handles Spotify OAuth2 authentication.
type Authenticator struct {
	auth     *spotifyauth.Authenticator
	cache    *TokenCache
	redirect *url.URL
	logger   *log.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger used for prompts and warnings.
func WithLogger(l *log.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTokenCache overrides the default token location.
func WithTokenCache(c *TokenCache) Option {
	return func(a *Authenticator) {
		a.cache = c
	}
}

// New creates an Authenticator for cfg.
// Returns ErrMissingCredentials if the client ID or secret is empty.
func New(cfg Config, opts ...Option) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}

	redirect, err := url.Parse(cfg.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", cfg.RedirectURI)
	}

	a := &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithRedirectURL(cfg.RedirectURI),
			spotifyauth.WithScopes(Scopes...),
		),
		redirect: redirect,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.cache == nil {
		cache, err := DefaultTokenCache()
		if err != nil {
			return nil, fmt.Errorf("creating token cache: %w", err)
		}
		a.cache = cache
	}

	return a, nil
}

// Authenticate returns an authenticated Spotify client.
// A cached token is used when it still works; otherwise the full OAuth flow
// runs.
func (a *Authenticator) Authenticate(ctx context.Context) (*spotify.Client, error) {
	token, err := a.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("loading cached token: %w", err)
	}

	if token != nil {
		// oauth2 refreshes an expired access token on first use.
		client := spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true))

		if _, err := client.CurrentUser(ctx); err == nil {
			newToken, tokenErr := client.Token()
			if tokenErr == nil && newToken.AccessToken != token.AccessToken {
				if err := a.cache.Save(newToken); err != nil {
					a.logger.Warn("Failed to cache refreshed token", "err", err)
				}
			}
			return client, nil
		}

		a.logger.Info("Cached token invalid, starting new authentication")
	}

	return a.runOAuthFlow(ctx)
}

// runOAuthFlow performs the full OAuth authorization code flow.
func (a *Authenticator) runOAuthFlow(ctx context.Context) (*spotify.Client, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	server := &http.Server{
		Addr:              a.redirect.Host,
		Handler:           a.callbackRouter(state, tokenCh, errCh),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	a.logger.Info("To authenticate, open this URL in your browser", "url", a.auth.AuthURL(state))
	a.logger.Info("Waiting for authentication")

	var token *oauth2.Token
	select {
	case token = <-tokenCh:
	case err := <-errCh:
		_ = server.Shutdown(ctx)
		return nil, err
	case <-time.After(callbackTimeout):
		_ = server.Shutdown(ctx)
		return nil, ErrAuthTimeout
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	// Auth succeeded even if the token cannot be stored.
	if err := a.cache.Save(token); err != nil {
		a.logger.Warn("Failed to cache token", "err", err)
	}

	return spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true)), nil
}

// callbackRouter serves the OAuth redirect path.
func (a *Authenticator) callbackRouter(state string, tokenCh chan<- *oauth2.Token, errCh chan<- error) http.Handler {
	path := a.redirect.Path
	if path == "" {
		path = "/"
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get(path, func(w http.ResponseWriter, r *http.Request) {
		a.handleCallback(w, r, state, tokenCh, errCh)
	})
	return router
}

// handleCallback processes the OAuth callback from Spotify.
func (a *Authenticator) handleCallback(w http.ResponseWriter, r *http.Request, expectedState string, tokenCh chan<- *oauth2.Token, errCh chan<- error) {
	if r.URL.Query().Get("state") != expectedState {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		sendErr(errCh, ErrStateMismatch)
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, "Authentication failed: "+errMsg, http.StatusBadRequest)
		sendErr(errCh, fmt.Errorf("spotify auth error: %s", errMsg))
		return
	}

	token, err := a.auth.Token(r.Context(), expectedState, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		sendErr(errCh, fmt.Errorf("exchanging code for token: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body>
<h1>Authentication Successful!</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`)

	select {
	case tokenCh <- token:
	default:
	}
}

// sendErr reports err without blocking when one is already pending.
func sendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Logout removes the cached token.
func (a *Authenticator) Logout() error {
	return a.cache.Delete()
}
