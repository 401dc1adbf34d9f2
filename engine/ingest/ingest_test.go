package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
	"github.com/nats-io/nats.go"
)

type fakePublisher struct {
	published []*nats.Msg
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.published = append(f.published, &nats.Msg{Subject: subject, Data: data})
	return nil
}

func (f *fakePublisher) PublishMsg(msg *nats.Msg) error {
	f.published = append(f.published, msg)
	return nil
}

type fakeAdder struct {
	err   error
	added []domain.Product
}

func (f *fakeAdder) AddProduct(_ context.Context, p domain.Product) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, p)
	return nil
}

func productMsg(t *testing.T, p domain.Product) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	msg := nats.NewMsg(Subject)
	msg.Data = data
	return msg
}

func TestHandler_StoresValidProduct(t *testing.T) {
	pub := &fakePublisher{}
	adder := &fakeAdder{}
	h := handler(pub, adder, nil)

	h(productMsg(t, domain.Product{Source: domain.SourceAmazon, Title: "Acme Wireless Mouse"}))

	if len(adder.added) != 1 || adder.added[0].Title != "Acme Wireless Mouse" {
		t.Fatalf("added = %+v", adder.added)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.published))
	}
}

func TestHandler_RepublishesWithRetryHeader(t *testing.T) {
	pub := &fakePublisher{}
	adder := &fakeAdder{err: errors.New("index down")}
	h := handler(pub, adder, nil)

	h(productMsg(t, domain.Product{Source: domain.SourceAmazon, Title: "Acme Wireless Mouse"}))

	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	retry := pub.published[0]
	if retry.Subject != Subject {
		t.Errorf("subject = %q, want redelivery on %q", retry.Subject, Subject)
	}
	if got := retry.Header.Get("X-Retry-Count"); got != "1" {
		t.Errorf("retry header = %q, want 1", got)
	}
}

func TestHandler_ParksOnDLQAfterMaxRetries(t *testing.T) {
	pub := &fakePublisher{}
	adder := &fakeAdder{err: errors.New("index down")}
	h := handler(pub, adder, nil)

	msg := productMsg(t, domain.Product{Source: domain.SourceAmazon, Title: "Acme Wireless Mouse"})
	msg.Header.Set("X-Retry-Count", "2")
	h(msg)

	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	parked := pub.published[0]
	if parked.Subject != DLQSubject {
		t.Fatalf("subject = %q, want DLQ", parked.Subject)
	}

	var dlq dlqMessage
	if err := json.Unmarshal(parked.Data, &dlq); err != nil {
		t.Fatal(err)
	}
	if dlq.Product.Title != "Acme Wireless Mouse" || dlq.Retries != 3 || dlq.Error == "" {
		t.Errorf("dlq = %+v", dlq)
	}
}

func TestHandler_DropsMalformedJSON(t *testing.T) {
	pub := &fakePublisher{}
	adder := &fakeAdder{}
	h := handler(pub, adder, nil)

	msg := nats.NewMsg(Subject)
	msg.Data = []byte("{not json")
	h(msg)

	if len(adder.added) != 0 || len(pub.published) != 0 {
		t.Errorf("malformed message should be dropped: added=%d published=%d",
			len(adder.added), len(pub.published))
	}
}

func TestHandler_DropsInvalidProduct(t *testing.T) {
	pub := &fakePublisher{}
	adder := &fakeAdder{}
	h := handler(pub, adder, nil)

	h(productMsg(t, domain.Product{Source: domain.SourceAmazon}))

	if len(adder.added) != 0 {
		t.Error("untitled product should not reach the catalog")
	}
	if len(pub.published) != 0 {
		t.Error("untitled product should not be redelivered")
	}
}
