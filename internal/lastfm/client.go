package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	baseURL   = "https://ws.audioscrobbler.com/2.0/"
	userAgent = "spotify-smart-playlists/1.0"

	// TopTracksPageSize is the largest page user.getTopTracks serves.
	TopTracksPageSize = 1000

	// Last.fm asks clients to stay under five requests per second.
	requestsPerSecond = 5
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when Last.fm reports error 29.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrNotFound is returned when Last.fm does not know the requested track or user.
	ErrNotFound = errors.New("not found")
)

// IsRateLimited reports whether err is a Last.fm rate-limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Client is a Last.fm API client with client-side request pacing.
// It does not retry; callers wrap calls with a retry policy.
type Client struct {
	apiKey  string
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a new Last.fm API client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return newClient(cfg.APIKey, baseURL, rate.NewLimiter(rate.Limit(requestsPerSecond), 1))
}

func newClient(apiKey, base string, limiter *rate.Limiter) *Client {
	return &Client{
		apiKey: apiKey,
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(10*time.Second).
			SetHeader("User-Agent", userAgent),
		limiter: limiter,
	}
}

// TopTracks fetches one page of a user's all-time top tracks, ranked by
// descending playcount. Pages are 1-based.
func (c *Client) TopTracks(ctx context.Context, user string, page int) (*TopTracksPage, error) {
	params := url.Values{
		"method": {"user.getTopTracks"},
		"user":   {user},
		"period": {"overall"},
		"limit":  {strconv.Itoa(TopTracksPageSize)},
		"page":   {strconv.Itoa(page)},
	}

	body, err := c.do(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks page %d: %w", page, err)
	}

	var resp topTracksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing top tracks response: %w", err)
	}

	result := &TopTracksPage{
		Page:       resp.TopTracks.Attr.Page,
		TotalPages: resp.TopTracks.Attr.TotalPages,
		Tracks:     make([]TopTrack, len(resp.TopTracks.Track)),
	}
	for i, t := range resp.TopTracks.Track {
		result.Tracks[i] = TopTrack{
			Name:      t.Name,
			Artist:    t.Artist.Name,
			PlayCount: t.PlayCount,
		}
	}

	return result, nil
}

// TrackPlaycount returns how many times user has scrobbled a single track.
// A track the user never played returns 0.
func (c *Client) TrackPlaycount(ctx context.Context, user, artist, track string) (int, error) {
	params := url.Values{
		"method":      {"track.getInfo"},
		"artist":      {artist},
		"track":       {track},
		"username":    {user},
		"autocorrect": {"1"},
	}

	body, err := c.do(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("fetching track info: %w", err)
	}

	// userplaycount is a string in practice; gjson accepts either form.
	return int(gjson.GetBytes(body, "track.userplaycount").Int()), nil
}

// do performs a single paced GET request and maps Last.fm error envelopes
// to sentinel errors.
func (c *Client) do(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get("/")
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	body := resp.Body()

	if code := gjson.GetBytes(body, "error"); code.Exists() && code.Int() != 0 {
		message := gjson.GetBytes(body, "message").String()
		switch code.Int() {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeInvalidParams:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, message)
		default:
			return nil, fmt.Errorf("API error %d: %s", code.Int(), message)
		}
	}

	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	return body, nil
}
