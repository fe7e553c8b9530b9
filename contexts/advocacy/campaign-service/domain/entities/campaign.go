package entities

import "time"

// Campaign is the narrow projection the endorsement pipeline needs:
// identity plus whether the campaign currently accepts endorsements.
// Full campaign content management lives outside this repository.
type Campaign struct {
	CampaignID        string
	Title             string
	Slug              string
	AllowEndorsements bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
