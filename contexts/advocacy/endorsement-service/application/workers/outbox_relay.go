package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "soapbox/contexts/advocacy/endorsement-service/application"
	"soapbox/contexts/advocacy/endorsement-service/ports"
	"soapbox/internal/shared/events"
)

// EventPublisher is the bus side of the relay.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// OutboxRelay moves committed endorsement events onto the bus. Email
// and admin notifications ride this path so a mail outage can never
// roll back an endorsement: the row stays pending and is retried on
// the next cycle.
type OutboxRelay struct {
	Outbox    ports.Repository
	Publisher EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("endorsement outbox list failed",
			"event", "endorsement_outbox_list_failed",
			"module", "advocacy/endorsement-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("endorsement outbox decode failed",
				"event", "endorsement_outbox_decode_failed",
				"module", "advocacy/endorsement-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("endorsement outbox publish failed",
				"event", "endorsement_outbox_publish_failed",
				"module", "advocacy/endorsement-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"topic", topic,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("endorsement outbox mark published failed",
				"event", "endorsement_outbox_mark_published_failed",
				"module", "advocacy/endorsement-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("endorsement outbox relay cycle completed",
			"event", "endorsement_outbox_relay_completed",
			"module", "advocacy/endorsement-service",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}
