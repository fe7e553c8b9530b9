package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "soapbox/contexts/advocacy/endorsement-service/application"
	"soapbox/contexts/advocacy/endorsement-service/application/commands"
	"soapbox/contexts/advocacy/endorsement-service/ports"
	"soapbox/internal/shared/events"
)

// EmailConsumer turns endorsement events into mail. Mailer failures
// are logged and reported upward so the bus layer records them; they
// never reach the request path, which has already returned.
type EmailConsumer struct {
	Mailer ports.Mailer
	Logger *slog.Logger
}

func (c EmailConsumer) Handle(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)

	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	switch event.EventType {
	case commands.EventTypeVerificationRequested:
		var payload commands.VerificationRequestedPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		err = c.Mailer.SendVerification(ctx, payload.Email, payload.Name, payload.CampaignTitle, payload.Token)

	case commands.EventTypeEndorsementVerified:
		var payload commands.EndorsementVerifiedPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		err = c.Mailer.SendConfirmation(ctx, payload.Email, payload.Name, payload.CampaignTitle)

	case commands.EventTypeEndorsementSubmitted:
		var payload commands.EndorsementSubmittedPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		err = c.Mailer.SendAdminNotification(ctx, payload.CampaignTitle, payload.StakeholderName, payload.Organization, payload.EndorsementID)

	default:
		logger.Warn("unknown endorsement event type",
			"event", "endorsement_email_unknown_type",
			"module", "advocacy/endorsement-service",
			"layer", "worker",
			"event_type", event.EventType,
		)
		return nil
	}

	if err != nil {
		logger.Error("endorsement email dispatch failed",
			"event", "endorsement_email_failed",
			"module", "advocacy/endorsement-service",
			"layer", "worker",
			"event_type", event.EventType,
			"entity_id", event.EntityID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
