package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type UpsertCampaignRequest struct {
	Title             string `json:"title"`
	Slug              string `json:"slug,omitempty"`
	AllowEndorsements bool   `json:"allow_endorsements"`
}

type CampaignDTO struct {
	CampaignID        string `json:"campaign_id"`
	Title             string `json:"title"`
	Slug              string `json:"slug,omitempty"`
	AllowEndorsements bool   `json:"allow_endorsements"`
}

type CampaignResponse struct {
	Status string      `json:"status"`
	Data   CampaignDTO `json:"data"`
}

type SetIntakeRequest struct {
	Allow bool `json:"allow"`
}
