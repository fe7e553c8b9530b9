package queries

import (
	"context"
	"log/slog"
	"strings"

	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	"soapbox/contexts/advocacy/endorsement-service/ports"
)

type QueryUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

// ListForReview returns the moderation queue: records awaiting an
// admin decision (pending plus email-verified).
func (uc QueryUseCase) ListForReview(ctx context.Context) ([]entities.Endorsement, error) {
	return uc.Repository.ListForReview(ctx)
}

// PublicList returns the endorsements a campaign page may show. The
// display predicate is evaluated here, never stored: flipping any of
// the four flags back and forth moves records in and out of the
// listing with no extra bookkeeping.
func (uc QueryUseCase) PublicList(ctx context.Context, campaignID string) ([]entities.PublicEndorsement, error) {
	campaignID = strings.TrimSpace(campaignID)
	if _, err := uc.Repository.GetCampaignRef(ctx, campaignID); err != nil {
		return nil, err
	}

	all, err := uc.Repository.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	visible := make([]entities.PublicEndorsement, 0, len(all))
	for _, item := range all {
		if item.Endorsement.PubliclyVisible() {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

func (uc QueryUseCase) GetEndorsement(ctx context.Context, endorsementID string) (entities.Endorsement, error) {
	return uc.Repository.GetEndorsement(ctx, strings.TrimSpace(endorsementID))
}
