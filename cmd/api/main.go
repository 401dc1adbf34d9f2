// Package main implements the ShopScout API server: the HTTP surface over
// the catalog's two seams (scrape-and-cache and cached lookup).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShopScoutAI/shopscout-mvp/engine/catalog"
	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
	"github.com/ShopScoutAI/shopscout-mvp/engine/scraper"
	"github.com/ShopScoutAI/shopscout-mvp/engine/semantic"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/fn"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/metrics"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/mid"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/ollama"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	OllamaURL  string
	EmbedModel string
	EmbedDims  int
	QdrantURL  string
	Collection string
	CORSOrigin string
	// SearchBudget bounds a full scrape-and-cache request; it must cover
	// both sources exhausting their retry budgets.
	SearchBudget time.Duration
}

func loadConfig() Config {
	return Config{
		Port:         envOr("PORT", "8080"),
		OllamaURL:    envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:   envOr("EMBED_MODEL", "nomic-embed-text"),
		EmbedDims:    768,
		QdrantURL:    envOr("QDRANT_URL", "localhost:6334"),
		Collection:   envOr("QDRANT_COLLECTION", "products"),
		CORSOrigin:   envOr("CORS_ORIGIN", "*"),
		SearchBudget: 90 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	if err := vectorStore.EnsureCollection(ctx, cfg.EmbedDims); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	// --- Build the scrape + catalog services ---
	reg := metrics.New()
	embedder := ollama.NewClient(cfg.OllamaURL, cfg.EmbedModel)
	fetcher := scraper.NewFetcher(scraper.DefaultFetchOpts, logger)
	scr := scraper.New(fetcher, nil, logger, reg)
	svc := catalog.New(embedder, vectorStore, scr, catalog.DefaultOptions(), logger)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/search", handleSearch(svc, cfg.SearchBudget, logger))
	mux.HandleFunc("POST /api/items", handleItems(svc))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("shopscout-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SearchRequest is the JSON body for POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
}

func handleSearch(svc *catalog.Service, budget time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if err := domain.ValidateQuery(req.Query); err != nil {
			http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
			return
		}

		// Bound the whole scrape so an abandoned request cancels both
		// source fetches.
		ctx, cancel := context.WithTimeout(r.Context(), budget)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		top, err := svc.ScrapeAndCache(ctx, req.Query)
		if err != nil {
			logger.Warn("search failed", "query", req.Query, "err", err)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(top)
	}
}

// ItemsRequest is the JSON body for POST /api/items.
type ItemsRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// ItemsResponse is the JSON response for POST /api/items.
type ItemsResponse struct {
	Result []domain.CachedMatch `json:"result"`
}

func handleItems(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if err := domain.ValidateQuery(req.Query); err != nil {
			http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
			return
		}
		if req.TopK <= 0 {
			req.TopK = 3
		}

		matches := svc.FindItems(r.Context(), req.Query, req.TopK)
		// The store may legitimately hold several entries per listing;
		// collapse to one result per URL.
		matches = fn.UniqueBy(matches, func(m domain.CachedMatch) string { return m.URL })

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ItemsResponse{Result: matches})
	}
}
