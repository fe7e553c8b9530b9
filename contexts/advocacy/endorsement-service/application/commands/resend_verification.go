package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "soapbox/contexts/advocacy/endorsement-service/application"
	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	domainerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	"soapbox/contexts/advocacy/endorsement-service/ports"
)

const rateLimitPurposeResend = "endorsement_resend"

type ResendVerificationCommand struct {
	Email      string
	CampaignID string
	Identity   string
}

// ResendVerificationUseCase re-issues a verification token. Except for
// rate limiting it always reports success with the same generic
// message: responses must not reveal whether an (email, campaign)
// pair exists.
type ResendVerificationUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Tokens     ports.TokenGenerator
	Limiter    ports.RateLimiter
	Logger     *slog.Logger

	MaxAttempts int
	Window      time.Duration
}

func (uc ResendVerificationUseCase) Execute(ctx context.Context, cmd ResendVerificationCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	decision := uc.Limiter.Check(ctx, rateLimitPurposeResend, cmd.Identity, uc.MaxAttempts, uc.Window)
	uc.Limiter.Record(ctx, rateLimitPurposeResend, cmd.Identity, uc.Window)
	if !decision.Allowed {
		return domainerrors.ErrRateLimited
	}

	email := entities.NormalizeEmail(cmd.Email)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if email == "" || campaignID == "" {
		return nil
	}

	// Failures below are logged and swallowed so the response stays
	// indistinguishable from the no-such-record case.
	err := uc.Repository.InTransaction(ctx, func(repo ports.Repository) error {
		stakeholder, found, err := repo.GetStakeholderByEmail(ctx, email)
		if err != nil || !found {
			return err
		}
		endorsement, found, err := repo.GetEndorsementByPair(ctx, stakeholder.StakeholderID, campaignID)
		if err != nil || !found {
			return err
		}
		if endorsement.EmailVerified || endorsement.Status != entities.EndorsementStatusPending {
			return nil
		}

		token, err := uc.Tokens.NewToken(ctx)
		if err != nil {
			return err
		}
		now := uc.Clock.Now().UTC()
		endorsement.VerificationToken = token
		endorsement.VerificationSentAt = &now
		endorsement.UpdatedAt = now
		if err := repo.UpdateEndorsement(ctx, endorsement); err != nil {
			return err
		}

		campaign, err := repo.GetCampaignRef(ctx, campaignID)
		if err != nil {
			return err
		}
		return appendVerificationEvent(ctx, repo, uc.IDGen, campaign, stakeholder, endorsement, now)
	})
	if err != nil {
		logger.Warn("verification resend suppressed failure",
			"event", "endorsement_resend_failed",
			"module", "advocacy/endorsement-service",
			"layer", "application",
			"campaign_id", campaignID,
			"error", err.Error(),
		)
	}
	return nil
}
