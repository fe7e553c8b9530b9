package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes outgoing email to the structured log. It stands in
// for a provider integration in development and tests; the worker
// treats it like any other Mailer.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, name, campaignTitle, token string) error {
	m.logger.InfoContext(ctx, "verification email dispatched",
		"event", "email_verification_sent",
		"module", "endorsement-service",
		"layer", "adapter",
		"to", to,
		"name", name,
		"campaign_title", campaignTitle,
		"token", token,
	)
	return nil
}

func (m *LogMailer) SendConfirmation(ctx context.Context, to, name, campaignTitle string) error {
	m.logger.InfoContext(ctx, "confirmation email dispatched",
		"event", "email_confirmation_sent",
		"module", "endorsement-service",
		"layer", "adapter",
		"to", to,
		"name", name,
		"campaign_title", campaignTitle,
	)
	return nil
}

func (m *LogMailer) SendAdminNotification(ctx context.Context, campaignTitle, stakeholderName, organization, endorsementID string) error {
	m.logger.InfoContext(ctx, "admin notification dispatched",
		"event", "email_admin_notified",
		"module", "endorsement-service",
		"layer", "adapter",
		"campaign_title", campaignTitle,
		"stakeholder_name", stakeholderName,
		"organization", organization,
		"endorsement_id", endorsementID,
	)
	return nil
}
