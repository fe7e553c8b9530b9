package commands

import (
	"context"

	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	"soapbox/contexts/advocacy/endorsement-service/ports"
)

func loadEmailContext(
	ctx context.Context,
	repo ports.Repository,
	endorsement entities.Endorsement,
) (entities.Stakeholder, ports.CampaignRef, error) {
	stakeholder, err := repo.GetStakeholder(ctx, endorsement.StakeholderID)
	if err != nil {
		return entities.Stakeholder{}, ports.CampaignRef{}, err
	}
	campaign, err := repo.GetCampaignRef(ctx, endorsement.CampaignID)
	if err != nil {
		return entities.Stakeholder{}, ports.CampaignRef{}, err
	}
	return stakeholder, campaign, nil
}
