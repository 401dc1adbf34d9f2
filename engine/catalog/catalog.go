// Package catalog is the cache/query layer over the similarity store.
// It exposes the two seams the rest of the application calls into:
// ScrapeAndCache (write path) and FindItems (read path).
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
	"github.com/ShopScoutAI/shopscout-mvp/engine/semantic"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/fn"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/resilience"
	"github.com/google/uuid"
)

// ErrNoResults is returned by ScrapeAndCache when both sources came back
// empty. It is a user-facing "no results found", not an internal fault.
var ErrNoResults = errors.New("no results found")

// Embedder turns text into a fixed-length vector. Semantically similar
// inputs must cluster; the dimension is fixed by the index configuration.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex abstracts the similarity store.
type VectorIndex interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
	Query(ctx context.Context, embedding []float32, topK int) ([]semantic.Match, error)
}

// ProductScraper abstracts the scrape orchestrator.
type ProductScraper interface {
	Scrape(ctx context.Context, query string) []domain.Product
}

// Options configures the cache layer behaviour.
type Options struct {
	// Threshold is the minimum cosine similarity for a FindItems hit.
	Threshold float32
	// SearchTimeout bounds a single vector query.
	SearchTimeout time.Duration
	// Workers bounds concurrent AddProduct calls during ScrapeAndCache.
	Workers int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:     0.2,
		SearchTimeout: 5 * time.Second,
		Workers:       4,
	}
}

// Service wraps the embedder and vector index behind the two core seams.
type Service struct {
	embed   Embedder
	index   VectorIndex
	scraper ProductScraper
	breaker *resilience.Breaker
	opts    Options
	logger  *slog.Logger
	newID   func() string
}

// New creates the catalog service. scraper may be nil for read-only or
// ingest-fed deployments; ScrapeAndCache then always reports no results.
func New(embed Embedder, index VectorIndex, scraper ProductScraper, opts Options, logger *slog.Logger) *Service {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultOptions().Threshold
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = DefaultOptions().SearchTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions().Workers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embed:   embed,
		index:   index,
		scraper: scraper,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		opts:    opts,
		logger:  logger,
		newID:   func() string { return uuid.NewString() },
	}
}

// AddProduct embeds the product title, coerces missing fields to their
// sentinels, and upserts the record under a fresh id. Records are
// append-only: the same content added twice yields two stored entries.
func (s *Service) AddProduct(ctx context.Context, p domain.Product) error {
	if err := domain.ValidateProduct(p); err != nil {
		return err
	}

	embedding, err := s.embedText(ctx, p.Title)
	if err != nil {
		return fmt.Errorf("catalog: embed %q: %w", p.Title, err)
	}

	p = domain.CoerceForStorage(p)
	rec := semantic.VectorRecord{
		ID:        s.newID(),
		Embedding: embedding,
		Payload: map[string]string{
			"content":      p.Title,
			"link":         p.Link,
			"image":        p.Image,
			"rating":       p.Rating,
			"review_count": p.ReviewCount,
			"price":        p.Price,
			"availability": p.Availability,
			"source":       string(p.Source),
		},
	}

	if err := s.index.Upsert(ctx, []semantic.VectorRecord{rec}); err != nil {
		return fmt.Errorf("catalog: upsert %q: %w", p.Title, err)
	}
	return nil
}

// FindItems returns up to topK cached matches scoring at or above the
// similarity threshold. Embedding or query failures degrade to an empty
// result with a logged diagnostic; callers never see a raw store error.
// An empty result is a valid outcome, distinct from a query failure.
func (s *Service) FindItems(ctx context.Context, query string, topK int) []domain.CachedMatch {
	embedding, err := s.embedText(ctx, query)
	if err != nil {
		s.logger.Error("catalog: embed query failed", "query", query, "err", err)
		return nil
	}

	qctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	matches, err := s.index.Query(qctx, embedding, topK)
	if err != nil {
		s.logger.Error("catalog: vector query failed", "query", query, "err", err)
		return nil
	}

	var out []domain.CachedMatch
	for _, m := range matches {
		if m.Score < s.opts.Threshold {
			continue
		}
		out = append(out, matchFromPayload(m))
	}
	return out
}

// ScrapeAndCache scrapes every source for query, caches each surviving
// candidate, and returns the first candidate immediately for callers that
// do not want to wait on a cache round-trip. Any internal failure,
// including a panic in a parser, surfaces as a single error value.
func (s *Service) ScrapeAndCache(ctx context.Context, query string) (top *domain.CachedMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("catalog: scrape panicked", "query", query, "panic", r)
			top, err = nil, fmt.Errorf("catalog: scrape %q: %v", query, r)
		}
	}()

	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if s.scraper == nil {
		return nil, ErrNoResults
	}

	products := s.scraper.Scrape(ctx, query)
	if len(products) == 0 {
		return nil, ErrNoResults
	}

	store := fn.BatchStage(s.opts.Workers, fn.Stage[domain.Product, string](
		func(ctx context.Context, p domain.Product) fn.Result[string] {
			if err := s.AddProduct(ctx, p); err != nil {
				return fn.Err[string](err)
			}
			return fn.Ok(p.Link)
		},
	))
	if _, err := store(ctx, products).Unwrap(); err != nil {
		return nil, fmt.Errorf("catalog: cache results for %q: %w", query, err)
	}
	s.logger.Info("catalog: cached scrape results", "query", query, "products", len(products))

	first := shapeProduct(products[0])
	return &first, nil
}

// embedText calls the embedder through the circuit breaker so a failing
// embedding service sheds load instead of stalling every request.
func (s *Service) embedText(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		v, err := s.embed.Embed(ctx, text)
		out = v
		return err
	})
	return out, err
}

// matchFromPayload maps stored payload fields into the result shape.
// Missing payload keys resolve to "N/A".
func matchFromPayload(m semantic.Match) domain.CachedMatch {
	get := func(key string) string {
		if v, ok := m.Payload[key]; ok && v != "" {
			return v
		}
		return "N/A"
	}
	return domain.CachedMatch{
		Name:    get("content"),
		Price:   get("price"),
		URL:     get("link"),
		Image:   get("image"),
		Rating:  get("rating"),
		Reviews: get("review_count"),
		Score:   m.Score,
	}
}

// shapeProduct maps a freshly scraped candidate into the result shape
// without sentinel coercion; the raw scrape is what the caller sees.
func shapeProduct(p domain.Product) domain.CachedMatch {
	return domain.CachedMatch{
		Name:    p.Title,
		Price:   p.Price,
		URL:     p.Link,
		Image:   p.Image,
		Rating:  p.Rating,
		Reviews: p.ReviewCount,
	}
}
