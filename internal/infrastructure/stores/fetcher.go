package stores

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/cartscout/backend/internal/domain"
)

// Search outcomes recorded per adapter call.
const (
	OutcomeOK          = "ok"
	OutcomeHTTPError   = "http_error"
	OutcomeTimeout     = "timeout"
	OutcomeParseError  = "parse_error"
	OutcomeRateLimited = "rate_limited"
)

var (
	errRateLimited = errors.New("rate limiter refused request")
	errParse       = errors.New("response could not be parsed")
)

// FetcherConfig holds per-store outbound request settings
type FetcherConfig struct {
	Timeout       time.Duration
	UserAgent     string
	RatePerSecond float64
	Burst         int
	MaxBodyBytes  int64
}

// Fetcher performs throttled GET requests against a single storefront
type Fetcher struct {
	httpClient   *http.Client
	timeout      time.Duration
	userAgent    string
	rateLimiter  *rate.Limiter
	maxBodyBytes int64
}

// NewFetcher creates a fetcher with its own timeout and rate limiter
func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 << 20
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout:      timeout,
		userAgent:    cfg.UserAgent,
		rateLimiter:  rate.NewLimiter(limit, burst),
		maxBodyBytes: maxBody,
	}
}

// Get fetches reqURL and returns the body of a 2xx response.
// The timeout covers the rate limiter wait as well as the request, so a
// throttled call fails instead of queueing past its deadline.
// Every error wraps domain.ErrSourceUnavailable.
func (f *Fetcher) Get(ctx context.Context, reqURL, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrSourceUnavailable, errRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, f.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrSourceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	return body, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// outcomeOf classifies an adapter error for logging and metrics
func outcomeOf(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return OutcomeTimeout
	case errors.Is(err, errParse):
		return OutcomeParseError
	default:
		return OutcomeHTTPError
	}
}
