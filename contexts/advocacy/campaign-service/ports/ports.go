package ports

import (
	"context"

	"soapbox/contexts/advocacy/campaign-service/domain/entities"
)

// Directory is the campaign lookup the endorsement pipeline consumes.
type Directory interface {
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	UpsertCampaign(ctx context.Context, campaign entities.Campaign) error
	SetAllowEndorsements(ctx context.Context, campaignID string, allow bool) error
}
