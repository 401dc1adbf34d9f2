// Package scraper fetches live search results from the supported retail
// sites and parses their markup into product candidates.
package scraper

import "time"

// browserHeaders is sent with every fetch. The sites block requests that
// carry a default HTTP client signature.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36 Edg/129.0.0.0",
	"Accept-Language": "en-US, en;q=0.5",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Referer":         "https://www.google.com/",
}

// FetchOpts configures the per-attempt timeout and retry policy.
type FetchOpts struct {
	// Timeout bounds a single request attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of attempts per fetch.
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
}

// DefaultFetchOpts mirrors the production policy: 3 attempts, 10s per
// attempt, 2s between attempts.
var DefaultFetchOpts = FetchOpts{
	Timeout:     10 * time.Second,
	MaxAttempts: 3,
	RetryDelay:  2 * time.Second,
}
