package opensky

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"

	"github.com/skycarbon/skycarbon/internal/logging"
	"github.com/skycarbon/skycarbon/types"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 16 << 20

// Errors returned by the client.
var (
	// ErrUnauthorized is returned for 401/403 responses. It is not retried.
	ErrUnauthorized = errors.New("opensky: credentials rejected")

	// ErrUnexpectedStatus is returned for non-retryable or exhausted non-2xx responses.
	ErrUnexpectedStatus = errors.New("opensky: unexpected status")
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(logger types.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client fetches state vectors from the OpenSky REST API.
//
// Thread Safety:
//   - Safe for concurrent use by all lanes
//   - OpenSky quotas are per account, so each username gets its own rate
//     limiter; one account's retries never spend another account's tokens
type Client struct {
	cfg      Config
	http     *http.Client
	limiters *xsync.Map[string, *rate.Limiter]
	logger   types.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

var _ types.StateFetcher = (*Client)(nil)

// NewClient creates a client.
//
// Parameters:
//   - cfg: Endpoint, timeouts, rate limit and retry policy
//   - opts: Optional HTTP client and logger
//
// Returns:
//   - *Client: Ready client
//   - error: ErrInvalidConfig for a malformed configuration
//
// Example:
//
//	client, err := opensky.NewClient(opensky.DefaultConfig(), opensky.WithLogger(logger))
//	resp, err := client.FetchStates(ctx, creds, box)
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiters: xsync.NewMap[string, *rate.Limiter](),
		logger:   logging.NewNop(),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchStates returns the current state vectors inside box.
//
// Returns:
//   - *types.StatesResponse: Sample; States is nil when the feed has no aircraft
//   - error: ErrMissingCredentials, ErrUnauthorized, ErrUnexpectedStatus,
//     transport or decode errors
func (c *Client) FetchStates(ctx context.Context, creds types.Credentials, box types.BoundingBox) (*types.StatesResponse, error) {
	if !creds.Complete() {
		return nil, types.ErrMissingCredentials
	}

	endpoint := c.statesURL(box)
	limiter := c.limiterFor(creds.Username)
	rng := newRetryRNG(c.cfg.Seed)

	var (
		delay   time.Duration
		lastErr error
	)
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay = jitterBackoff(delay, c.cfg.BackoffBase, 3, c.cfg.BackoffCap, rng)
			c.logger.Debug("retrying state fetch", "attempt", attempt, "delay", delay, "error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, retry, err := c.do(ctx, endpoint, creds)
		if err == nil {
			return resp, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("state fetch failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

// do performs one attempt and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, endpoint string, creds types.Credentials) (*types.StatesResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}

		return nil, true, fmt.Errorf("request states: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read states body: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusOK:
		resp, err := decodeStates(body)
		return resp, false, err
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w (status %d)", ErrUnauthorized, res.StatusCode)
	case res.StatusCode == http.StatusTooManyRequests, res.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}
}

// limiterFor returns the rate limiter of one account, creating it on first use.
func (c *Client) limiterFor(username string) *rate.Limiter {
	limiter, _ := c.limiters.LoadOrCompute(username, func() (*rate.Limiter, bool) {
		return rate.NewLimiter(rate.Limit(c.cfg.RateLimit), c.cfg.Burst), false
	})

	return limiter
}

func (c *Client) statesURL(box types.BoundingBox) string {
	q := url.Values{}
	q.Set("lamin", strconv.FormatFloat(box.MinLat, 'f', -1, 64))
	q.Set("lomin", strconv.FormatFloat(box.MinLon, 'f', -1, 64))
	q.Set("lamax", strconv.FormatFloat(box.MaxLat, 'f', -1, 64))
	q.Set("lomax", strconv.FormatFloat(box.MaxLon, 'f', -1, 64))
	q.Set("extended", "1")

	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/states/all?" + q.Encode()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
