package commands

const (
	SourceService = "advocacy/endorsement-service"

	EventTypeVerificationRequested = "endorsement.verification_requested"
	EventTypeEndorsementSubmitted  = "endorsement.submitted"
	EventTypeEndorsementVerified   = "endorsement.verified"
)

// VerificationRequestedPayload asks the email consumer to send a
// verification message carrying the token link.
type VerificationRequestedPayload struct {
	EndorsementID string `json:"endorsement_id"`
	CampaignID    string `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Token         string `json:"token"`
}

// EndorsementSubmittedPayload notifies admins of a brand-new
// endorsement; re-submissions of a pending record do not emit it.
type EndorsementSubmittedPayload struct {
	EndorsementID   string `json:"endorsement_id"`
	CampaignID      string `json:"campaign_id"`
	CampaignTitle   string `json:"campaign_title"`
	StakeholderName string `json:"stakeholder_name"`
	Organization    string `json:"organization"`
}

// EndorsementVerifiedPayload triggers the post-verification
// confirmation message.
type EndorsementVerifiedPayload struct {
	EndorsementID string `json:"endorsement_id"`
	CampaignID    string `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	AutoApproved  bool   `json:"auto_approved"`
}
