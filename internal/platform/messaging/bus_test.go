package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"soapbox/internal/shared/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := NewBus(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	if err := bus.Subscribe(ctx, "endorsement.events", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, "endorsement.events", events.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("unexpected event %q", event.EventID)
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached the subscriber")
	}
}

func TestPublishFailsWhenSubscriberBacklogged(t *testing.T) {
	bus := NewBus(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	if err := bus.Subscribe(ctx, "endorsement.events", func(_ context.Context, _ events.Envelope) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// With the handler stalled the buffer fills and Publish must report
	// the failure instead of silently losing the event, so the outbox
	// row stays pending for the next relay cycle.
	var publishErr error
	for i := 0; i < 200; i++ {
		if err := bus.Publish(ctx, "endorsement.events", events.Envelope{EventID: fmt.Sprintf("evt-%d", i)}); err != nil {
			publishErr = err
			break
		}
	}
	close(release)

	if publishErr == nil {
		t.Fatal("expected publish to fail once the subscriber backlog filled")
	}
	if !errors.Is(publishErr, ErrBacklogged) {
		t.Fatalf("expected ErrBacklogged, got %v", publishErr)
	}
}
