package memory

import (
	"context"
	"strings"
	"sync"

	"soapbox/contexts/advocacy/campaign-service/domain/entities"
	domainerrors "soapbox/contexts/advocacy/campaign-service/domain/errors"
)

type Store struct {
	mu        sync.RWMutex
	campaigns map[string]entities.Campaign
}

func NewStore(seed []entities.Campaign) *Store {
	campaigns := make(map[string]entities.Campaign, len(seed))
	for _, item := range seed {
		campaigns[item.CampaignID] = item
	}
	return &Store{campaigns: campaigns}
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return item, nil
}

func (s *Store) UpsertCampaign(_ context.Context, campaign entities.Campaign) error {
	if strings.TrimSpace(campaign.CampaignID) == "" {
		return domainerrors.ErrInvalidCampaign
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaigns[campaign.CampaignID] = campaign
	return nil
}

func (s *Store) SetAllowEndorsements(_ context.Context, campaignID string, allow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return domainerrors.ErrCampaignNotFound
	}
	item.AllowEndorsements = allow
	s.campaigns[campaignID] = item
	return nil
}
