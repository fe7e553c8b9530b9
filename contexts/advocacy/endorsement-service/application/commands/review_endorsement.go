package commands

import (
	"context"
	"log/slog"
	"strings"

	application "soapbox/contexts/advocacy/endorsement-service/application"
	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	domainerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	"soapbox/contexts/advocacy/endorsement-service/ports"
)

type ReviewEndorsementCommand struct {
	EndorsementID string
	ReviewerID    string
	Notes         string
}

type ReviewEndorsementResult struct {
	Endorsement entities.Endorsement
	Message     string
}

// ReviewEndorsementUseCase applies admin decisions. Repeating a
// decision is a no-op success so double-clicked admin buttons and
// retried requests stay harmless.
type ReviewEndorsementUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc ReviewEndorsementUseCase) Approve(ctx context.Context, cmd ReviewEndorsementCommand) (ReviewEndorsementResult, error) {
	return uc.review(ctx, cmd, entities.EndorsementStatusApproved, "approved")
}

func (uc ReviewEndorsementUseCase) Reject(ctx context.Context, cmd ReviewEndorsementCommand) (ReviewEndorsementResult, error) {
	return uc.review(ctx, cmd, entities.EndorsementStatusRejected, "rejected")
}

func (uc ReviewEndorsementUseCase) review(
	ctx context.Context,
	cmd ReviewEndorsementCommand,
	target entities.EndorsementStatus,
	verb string,
) (ReviewEndorsementResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	if strings.TrimSpace(cmd.ReviewerID) == "" {
		return ReviewEndorsementResult{}, domainerrors.ErrInvalidSubmission
	}

	endorsement, err := uc.Repository.GetEndorsement(ctx, strings.TrimSpace(cmd.EndorsementID))
	if err != nil {
		return ReviewEndorsementResult{}, err
	}

	if endorsement.Status == target {
		return ReviewEndorsementResult{
			Endorsement: endorsement,
			Message:     "endorsement already " + verb,
		}, nil
	}

	now := uc.Clock.Now().UTC()
	endorsement.Status = target
	endorsement.ReviewedBy = strings.TrimSpace(cmd.ReviewerID)
	endorsement.ReviewedAt = &now
	endorsement.AdminNotes = appendNote(endorsement.AdminNotes, strings.TrimSpace(cmd.Notes))
	endorsement.UpdatedAt = now

	if err := uc.Repository.UpdateEndorsement(ctx, endorsement); err != nil {
		return ReviewEndorsementResult{}, err
	}

	logger.Info("endorsement reviewed",
		"event", "endorsement_"+verb,
		"module", "advocacy/endorsement-service",
		"layer", "application",
		"endorsement_id", endorsement.EndorsementID,
		"reviewed_by", endorsement.ReviewedBy,
	)
	return ReviewEndorsementResult{
		Endorsement: endorsement,
		Message:     "endorsement " + verb,
	}, nil
}
