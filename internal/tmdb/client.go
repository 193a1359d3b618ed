package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"

	"github.com/vmunix/trackarr/internal/metadata"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	defaultLanguage     = "en-US"
)

// ErrNotFound is returned when the resource doesn't exist in TMDB.
// It matches metadata.ErrNotFound.
var ErrNotFound = fmt.Errorf("tmdb: %w", metadata.ErrNotFound)

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "TMDB API error: " + e.Status
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client is a TMDB API client.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
	attempts     uint
	retryDelay   time.Duration
	log          zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithImageBaseURL sets the prefix joined to poster paths.
func WithImageBaseURL(url string) Option {
	return func(c *Client) {
		c.imageBaseURL = url
	}
}

// WithLanguage sets the response language, e.g. "en-US".
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetries sets how many times a rate-limited or failed request is retried.
func WithRetries(n uint) Option {
	return func(c *Client) {
		c.attempts = n + 1
	}
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log.With().Str("component", "tmdb").Logger()
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		language:     defaultLanguage,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		attempts:   4,
		retryDelay: 500 * time.Millisecond,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetMovie fetches movie metadata by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	var movie Movie
	if err := c.get(ctx, fmt.Sprintf("/3/movie/%d", tmdbID), &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetTV fetches show metadata, including the season list, by TMDB ID.
func (c *Client) GetTV(ctx context.Context, tmdbID int64) (*TV, error) {
	var tv TV
	if err := c.get(ctx, fmt.Sprintf("/3/tv/%d", tmdbID), &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

// GetSeason fetches one season of a show with its episodes.
func (c *Client) GetSeason(ctx context.Context, tvID int64, season int) (*Season, error) {
	var s Season
	if err := c.get(ctx, fmt.Sprintf("/3/tv/%d/season/%d", tvID, season), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ImageURL returns the full image URL for a poster path, or "" if path is empty.
func (c *Client) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageBaseURL + path
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	if c.language != "" {
		q.Set("language", c.language)
	}
	endpoint := c.baseURL + path + "?" + q.Encode()

	return retry.Do(
		func() error { return c.do(ctx, endpoint, out) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug().Uint("attempt", n+1).Str("path", path).Err(err).Msg("retrying TMDB request")
		}),
	)
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryable reports whether err is a rate limit, a server error or a
// transport failure. Not-found, client errors and cancellation are final.
func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
