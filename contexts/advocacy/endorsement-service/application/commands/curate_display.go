package commands

import (
	"context"
	"log/slog"
	"strings"

	application "soapbox/contexts/advocacy/endorsement-service/application"
	domainerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	"soapbox/contexts/advocacy/endorsement-service/ports"
)

type CurateDisplayCommand struct {
	EndorsementID string
	ReviewerID    string
	Display       bool
}

// CurateDisplayUseCase flips the admin curation flag. It is one of
// four independent conditions for public visibility; setting it never
// touches status, verification, or the endorser's own consent.
type CurateDisplayUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc CurateDisplayUseCase) Execute(ctx context.Context, cmd CurateDisplayCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	if strings.TrimSpace(cmd.ReviewerID) == "" {
		return domainerrors.ErrInvalidSubmission
	}

	endorsement, err := uc.Repository.GetEndorsement(ctx, strings.TrimSpace(cmd.EndorsementID))
	if err != nil {
		return err
	}
	if endorsement.DisplayPublicly == cmd.Display {
		return nil
	}

	endorsement.DisplayPublicly = cmd.Display
	endorsement.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Repository.UpdateEndorsement(ctx, endorsement); err != nil {
		return err
	}

	logger.Info("endorsement display curated",
		"event", "endorsement_display_curated",
		"module", "advocacy/endorsement-service",
		"layer", "application",
		"endorsement_id", endorsement.EndorsementID,
		"display", cmd.Display,
	)
	return nil
}
