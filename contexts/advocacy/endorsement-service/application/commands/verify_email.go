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
	"soapbox/internal/shared/events"
)

const rateLimitPurposeVerify = "endorsement_verify"

type VerifyEmailCommand struct {
	Token    string
	Identity string
}

type VerifyEmailResult struct {
	Endorsement     entities.Endorsement
	AlreadyVerified bool
}

// VerifyEmailUseCase consumes an emailed token. Verification is
// idempotent: replaying a link that already worked is a success, not
// an error — mail clients prefetch URLs.
type VerifyEmailUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Limiter    ports.RateLimiter
	Logger     *slog.Logger

	TokenTTL    time.Duration
	AutoApprove bool
	MaxAttempts int
	Window      time.Duration
}

func (uc VerifyEmailUseCase) Execute(ctx context.Context, cmd VerifyEmailCommand) (VerifyEmailResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		return VerifyEmailResult{}, domainerrors.ErrInvalidSubmission
	}

	decision := uc.Limiter.Check(ctx, rateLimitPurposeVerify, cmd.Identity, uc.MaxAttempts, uc.Window)
	uc.Limiter.Record(ctx, rateLimitPurposeVerify, cmd.Identity, uc.Window)
	if !decision.Allowed {
		return VerifyEmailResult{}, domainerrors.ErrRateLimited
	}

	endorsement, err := uc.Repository.GetEndorsementByToken(ctx, token)
	if err != nil {
		return VerifyEmailResult{}, err
	}

	if endorsement.EmailVerified {
		return VerifyEmailResult{Endorsement: endorsement, AlreadyVerified: true}, nil
	}

	now := uc.Clock.Now().UTC()
	if endorsement.TokenExpired(now, uc.TokenTTL) {
		// Expiry must not mutate anything; the stakeholder re-requests
		// a token via resend.
		return VerifyEmailResult{}, domainerrors.ErrTokenExpired
	}

	endorsement.EmailVerified = true
	endorsement.VerifiedAt = &now
	endorsement.UpdatedAt = now
	if endorsement.Status == entities.EndorsementStatusPending {
		if uc.AutoApprove {
			endorsement.Status = entities.EndorsementStatusApproved
		} else {
			endorsement.Status = entities.EndorsementStatusVerified
		}
	}

	err = uc.Repository.InTransaction(ctx, func(repo ports.Repository) error {
		if err := repo.UpdateEndorsement(ctx, endorsement); err != nil {
			return err
		}
		return uc.appendVerifiedEvent(ctx, repo, endorsement, now)
	})
	if err != nil {
		return VerifyEmailResult{}, err
	}

	logger.Info("endorsement email verified",
		"event", "endorsement_verified",
		"module", "advocacy/endorsement-service",
		"layer", "application",
		"endorsement_id", endorsement.EndorsementID,
		"status", string(endorsement.Status),
	)
	return VerifyEmailResult{Endorsement: endorsement}, nil
}

func (uc VerifyEmailUseCase) appendVerifiedEvent(
	ctx context.Context,
	repo ports.Repository,
	endorsement entities.Endorsement,
	now time.Time,
) error {
	stakeholder, campaign, err := loadEmailContext(ctx, repo, endorsement)
	if err != nil {
		return err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return repo.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     EventTypeEndorsementVerified,
		SourceService: SourceService,
		OccurredAtUTC: now,
		EntityType:    "endorsement",
		EntityID:      endorsement.EndorsementID,
		Payload: EndorsementVerifiedPayload{
			EndorsementID: endorsement.EndorsementID,
			CampaignID:    endorsement.CampaignID,
			CampaignTitle: campaign.Title,
			Email:         stakeholder.Email,
			Name:          stakeholder.Name,
			AutoApproved:  endorsement.Status == entities.EndorsementStatusApproved,
		},
	})
}
