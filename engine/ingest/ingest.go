// Package ingest feeds scraped products into the catalog over NATS, so
// scrape workers and the API share one write path. Failed messages are
// redelivered with a bounded retry count and then parked on a DLQ.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
	"github.com/ShopScoutAI/shopscout-mvp/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

const (
	// Subject carries JSON-encoded domain.Product messages.
	Subject = "catalog.ingest"
	// DLQSubject parks messages that exhausted their retries.
	DLQSubject = "catalog.ingest.dlq"
	// MaxRetries before a message goes to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// Adder is the catalog write seam the consumer feeds into.
type Adder interface {
	AddProduct(ctx context.Context, p domain.Product) error
}

// publisher is the slice of *nats.Conn the consumer uses. Test seam.
type publisher interface {
	Publish(subject string, data []byte) error
	PublishMsg(msg *nats.Msg) error
}

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Product domain.Product `json:"product"`
	Error   string         `json:"error"`
	Retries int            `json:"retries"`
}

// Publish enqueues scraped products for ingestion.
func Publish(ctx context.Context, nc *nats.Conn, products []domain.Product) error {
	for _, p := range products {
		if err := natsutil.Publish(ctx, nc, Subject, p); err != nil {
			return fmt.Errorf("ingest: publish %q: %w", p.Title, err)
		}
	}
	return nil
}

// StartConsumer subscribes to the ingest subject and writes each product
// into the catalog.
func StartConsumer(nc *nats.Conn, adder Adder, logger *slog.Logger) (*nats.Subscription, error) {
	return nc.Subscribe(Subject, handler(nc, adder, logger))
}

// handler processes one ingest message: unmarshal, validate, AddProduct.
// Failures are re-published with an incremented retry header until
// MaxRetries, then forwarded to the DLQ.
func handler(pub publisher, adder Adder, logger *slog.Logger) nats.MsgHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(msg *nats.Msg) {
		var product domain.Product
		if err := json.Unmarshal(msg.Data, &product); err != nil {
			logger.Error("ingest: unmarshal failed", "err", err)
			return
		}

		// Drop invalid candidates outright; redelivery cannot fix them.
		if err := domain.ValidateProduct(product); err != nil {
			logger.Warn("ingest: discarding invalid product", "err", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		if err := adder.AddProduct(context.Background(), product); err != nil {
			retries++
			logger.Error("ingest: add product failed",
				"title", product.Title,
				"retry", retries,
				"err", err,
			)

			if retries >= MaxRetries {
				dlq := dlqMessage{Product: product, Error: err.Error(), Retries: retries}
				data, _ := json.Marshal(dlq)
				if err := pub.Publish(DLQSubject, data); err != nil {
					logger.Error("ingest: DLQ publish failed", "err", err)
				}
				return
			}

			retryMsg := nats.NewMsg(Subject)
			retryMsg.Data = msg.Data
			retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
			if err := pub.PublishMsg(retryMsg); err != nil {
				logger.Error("ingest: retry publish failed", "err", err)
			}
			return
		}

		logger.Info("ingest: stored", "title", product.Title, "source", product.Source)
	}
}
