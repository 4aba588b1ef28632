package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

var ErrUpstreamStatus = errors.New("upstream returned non-success status")

type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUpstreamStatus
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	logger    logger.Logger
}

// NewFetcher builds a fetcher with its own traced HTTP client. No retries are
// performed; the timeout bounds a hung upstream.
func NewFetcher(cfg config.Upstream, l logger.Logger) *Fetcher {
	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport.(*http.Transport).Clone()),
	}
	return NewFetcherWithClient(client, cfg, l)
}

func NewFetcherWithClient(client *http.Client, cfg config.Upstream, l logger.Logger) *Fetcher {
	f := &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		logger:    l,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return f
}

// Fetch downloads url and returns the full body. Any non-2xx answer is a
// *StatusError matching ErrUpstreamStatus.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug("upstream returned non-success", "url", url, "status", resp.StatusCode)
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return data, nil
}
