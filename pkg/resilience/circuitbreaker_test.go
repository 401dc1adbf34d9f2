package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failing(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func succeeding(context.Context) error { return nil }

func TestBreaker_TripsAtThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})
	boom := errors.New("down")

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), failing(boom)); !errors.Is(err, boom) {
			t.Fatalf("call %d: got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	if err := b.Call(context.Background(), succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker: got %v, want ErrCircuitOpen", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})
	boom := errors.New("down")

	b.Call(context.Background(), failing(boom))
	b.Call(context.Background(), failing(boom))
	b.Call(context.Background(), succeeding)
	b.Call(context.Background(), failing(boom))
	b.Call(context.Background(), failing(boom))

	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after interleaved success", b.State())
	}
}

func TestBreaker_HalfOpenProbeCloses(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})

	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), failing(errors.New("down")))
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	clock = clock.Add(2 * time.Minute)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after timeout", b.State())
	}

	if err := b.Call(context.Background(), succeeding); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", b.State())
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})

	clock := time.Now()
	b.now = func() time.Time { return clock }

	boom := errors.New("still down")
	b.Call(context.Background(), failing(boom))
	clock = clock.Add(2 * time.Minute)

	if err := b.Call(context.Background(), failing(boom)); !errors.Is(err, boom) {
		t.Fatalf("probe: got %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("state = %v, want reopened", b.State())
	}
}

func TestBreaker_HalfOpenLimitsProbes(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute, HalfOpenMax: 1})

	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.Call(context.Background(), failing(errors.New("down")))
	clock = clock.Add(2 * time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Call(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// A second call while the probe is in flight is rejected.
	if err := b.Call(context.Background(), succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("concurrent probe: got %v, want ErrCircuitOpen", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
}
