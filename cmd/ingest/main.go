// Package main implements the ingest worker: a NATS consumer that writes
// scraped products into the catalog.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShopScoutAI/shopscout-mvp/engine/catalog"
	"github.com/ShopScoutAI/shopscout-mvp/engine/ingest"
	"github.com/ShopScoutAI/shopscout-mvp/engine/semantic"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/ollama"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

// Config holds all environment-based configuration.
type Config struct {
	NatsURL    string
	OllamaURL  string
	EmbedModel string
	EmbedDims  int
	QdrantURL  string
	Collection string
}

func loadConfig() Config {
	return Config{
		NatsURL:    envOr("NATS_URL", nats.DefaultURL),
		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel: envOr("EMBED_MODEL", "nomic-embed-text"),
		EmbedDims:  768,
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "products"),
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

	if err := run(loadConfig(), logger); err != nil {
		logger.Error("ingest worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	if err := vectorStore.EnsureCollection(ctx, cfg.EmbedDims); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	embedder := ollama.NewClient(cfg.OllamaURL, cfg.EmbedModel)
	svc := catalog.New(embedder, vectorStore, nil, catalog.DefaultOptions(), logger)

	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Drain()

	sub, err := ingest.StartConsumer(nc, svc, logger)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("ingest worker started", "subject", ingest.Subject)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}
