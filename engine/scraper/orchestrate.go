package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/fn"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/metrics"
)

// Scraper runs the fetch+parse pipeline for every registered source
// concurrently and merges the candidates.
type Scraper struct {
	fetcher *Fetcher
	sources []Source
	logger  *slog.Logger
	reg     *metrics.Registry
}

// New creates a Scraper. Passing no sources registers the defaults; reg
// may be nil to disable metrics.
func New(fetcher *Fetcher, sources []Source, logger *slog.Logger, reg *metrics.Registry) *Scraper {
	if len(sources) == 0 {
		sources = Sources()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{fetcher: fetcher, sources: sources, logger: logger, reg: reg}
}

// Scrape fetches and parses every source concurrently. Candidates are
// concatenated in source registration order regardless of completion
// order, and candidates without a title are dropped. A failed or empty
// source contributes nothing; it never fails the scrape.
func (s *Scraper) Scrape(ctx context.Context, query string) []domain.Product {
	tasks := fn.Map(s.sources, func(src Source) func() []domain.Product {
		return func() []domain.Product { return s.scrapeSource(ctx, src, query) }
	})
	batches := fn.FanOut(tasks...)

	merged := fn.FlatMap(batches, func(b []domain.Product) []domain.Product { return b })
	return fn.Filter(merged, func(p domain.Product) bool {
		return strings.TrimSpace(p.Title) != ""
	})
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source, query string) []domain.Product {
	name := string(src.Name())

	body := s.fetcher.Fetch(ctx, src.SearchURL(query))
	if len(body) == 0 {
		s.logger.Warn("scrape: no content", "source", name, "query", query)
		s.count("scrape_empty_total", name, 1)
		return nil
	}

	products := src.Parse(bytes.NewReader(body))
	s.logger.Info("scrape: parsed", "source", name, "products", len(products))
	s.count("scrape_products_total", name, int64(len(products)))
	return products
}

func (s *Scraper) count(metric, source string, n int64) {
	if s.reg == nil {
		return
	}
	s.reg.Counter(metrics.WithLabels(metric, "source", source), "").Add(n)
}
