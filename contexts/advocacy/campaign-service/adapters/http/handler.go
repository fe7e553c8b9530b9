package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"soapbox/contexts/advocacy/campaign-service/domain/entities"
	"soapbox/contexts/advocacy/campaign-service/ports"
	httptransport "soapbox/contexts/advocacy/campaign-service/transport/http"
)

// Handler exposes the minimal directory maintenance ops used by admins
// and fixtures. Full campaign content management lives elsewhere.
type Handler struct {
	Directory ports.Directory
	Logger    *slog.Logger
}

func (h Handler) UpsertCampaignHandler(
	ctx context.Context,
	campaignID string,
	req httptransport.UpsertCampaignRequest,
) (httptransport.CampaignResponse, error) {
	campaign := entities.Campaign{
		CampaignID:        strings.TrimSpace(campaignID),
		Title:             strings.TrimSpace(req.Title),
		Slug:              strings.TrimSpace(req.Slug),
		AllowEndorsements: req.AllowEndorsements,
	}
	if err := h.Directory.UpsertCampaign(ctx, campaign); err != nil {
		return httptransport.CampaignResponse{}, err
	}
	stored, err := h.Directory.GetCampaign(ctx, campaign.CampaignID)
	if err != nil {
		return httptransport.CampaignResponse{}, err
	}
	return httptransport.CampaignResponse{
		Status: "success",
		Data:   toDTO(stored),
	}, nil
}

func (h Handler) SetIntakeHandler(
	ctx context.Context,
	campaignID string,
	req httptransport.SetIntakeRequest,
) (httptransport.CampaignResponse, error) {
	if err := h.Directory.SetAllowEndorsements(ctx, campaignID, req.Allow); err != nil {
		return httptransport.CampaignResponse{}, err
	}
	stored, err := h.Directory.GetCampaign(ctx, campaignID)
	if err != nil {
		return httptransport.CampaignResponse{}, err
	}
	return httptransport.CampaignResponse{
		Status: "success",
		Data:   toDTO(stored),
	}, nil
}

func toDTO(campaign entities.Campaign) httptransport.CampaignDTO {
	return httptransport.CampaignDTO{
		CampaignID:        campaign.CampaignID,
		Title:             campaign.Title,
		Slug:              campaign.Slug,
		AllowEndorsements: campaign.AllowEndorsements,
	}
}
