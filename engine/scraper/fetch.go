package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ShopScoutAI/shopscout-mvp/pkg/fn"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Fetcher retrieves search pages with a browser-like header set, bounded
// retries, and request rate limiting. TLS verification stays at the
// system defaults.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    FetchOpts
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. A zero-valued opts falls back to
// DefaultFetchOpts.
func NewFetcher(opts FetchOpts, logger *slog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchOpts.Timeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultFetchOpts.MaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultFetchOpts.RetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		opts:    opts,
		logger:  logger,
	}
}

// Fetch retrieves url and returns the raw body. A non-200 response or an
// exhausted retry budget yields nil: callers treat that as zero candidates
// from the source, never as a pipeline failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) []byte {
	retry := fn.RetryOpts{
		MaxAttempts: f.opts.MaxAttempts,
		InitialWait: f.opts.RetryDelay,
		MaxWait:     f.opts.RetryDelay,
	}
	result := fn.Retry(ctx, retry, func(ctx context.Context) fn.Result[[]byte] {
		return f.attempt(ctx, url)
	})

	body, err := result.Unwrap()
	if err != nil {
		f.logger.Warn("fetch: giving up", "url", url, "err", err)
		return nil
	}
	return body
}

// attempt performs one request. Network-level failures return an error so
// the retry loop runs again; a non-200 status is terminal for the whole
// fetch and resolves to no content.
func (f *Fetcher) attempt(ctx context.Context, url string) fn.Result[[]byte] {
	if err := f.limiter.Wait(ctx); err != nil {
		return fn.Err[[]byte](err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fn.Err[[]byte](fmt.Errorf("scraper: build request %s: %w", url, err))
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fn.Err[[]byte](fmt.Errorf("scraper: fetch %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("fetch: unexpected status", "url", url, "status", resp.StatusCode)
		return fn.Ok[[]byte](nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fn.Err[[]byte](fmt.Errorf("scraper: read body %s: %w", url, err))
	}
	return fn.Ok(body)
}
