package http

import (
	"strings"
	"time"
	"unicode"
)

const maxReferrerLength = 512

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FormMetadata carries anti-abuse context captured by the public form.
type FormMetadata struct {
	RenderedAtUnix int64             `json:"rendered_at,omitempty"`
	Honeypot       map[string]string `json:"honeypot,omitempty"`
	Referrer       string            `json:"referrer,omitempty"`
}

// RenderedAt converts the form-render timestamp, nil when absent.
func (m FormMetadata) RenderedAt() *time.Time {
	if m.RenderedAtUnix <= 0 {
		return nil
	}
	rendered := time.Unix(m.RenderedAtUnix, 0).UTC()
	return &rendered
}

// SanitizedReferrer caps length and strips control and markup
// characters so the value is safe to log and store.
func (m FormMetadata) SanitizedReferrer() string {
	referrer := m.Referrer
	if len(referrer) > maxReferrerLength {
		referrer = referrer[:maxReferrerLength]
	}
	var b strings.Builder
	for _, r := range referrer {
		if unicode.IsControl(r) || r == '<' || r == '>' || r == '"' || r == '\'' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

type SubmitEndorsementRequest struct {
	CampaignID   string `json:"campaign_id"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Role         string `json:"role,omitempty"`
	Email        string `json:"email"`
	City         string `json:"city,omitempty"`
	Region       string `json:"region,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Category     string `json:"category,omitempty"`

	Statement     string `json:"statement,omitempty"`
	PublicDisplay bool   `json:"public_display"`

	Metadata FormMetadata `json:"metadata,omitempty"`
}

type SubmitEndorsementResponse struct {
	Status        string `json:"status"`
	EndorsementID string `json:"endorsement_id"`
	Created       bool   `json:"created"`
	Message       string `json:"message"`
}

type VerifyEmailResponse struct {
	Status          string `json:"status"`
	EndorsementID   string `json:"endorsement_id"`
	AlreadyVerified bool   `json:"already_verified,omitempty"`
	Approved        bool   `json:"approved"`
	Message         string `json:"message"`
}

type ResendVerificationRequest struct {
	Email      string `json:"email"`
	CampaignID string `json:"campaign_id"`
}

type ResendVerificationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ReviewRequest struct {
	Notes string `json:"notes,omitempty"`
}

type ReviewResponse struct {
	Status        string `json:"status"`
	EndorsementID string `json:"endorsement_id"`
	Message       string `json:"message"`
}

type CurateDisplayRequest struct {
	Display bool `json:"display"`
}

type CurateDisplayResponse struct {
	Status        string `json:"status"`
	EndorsementID string `json:"endorsement_id"`
	Display       bool   `json:"display"`
}

// ReviewItemDTO is the moderation-queue view: admins see everything,
// including notes and verification state.
type ReviewItemDTO struct {
	EndorsementID string `json:"endorsement_id"`
	StakeholderID string `json:"stakeholder_id"`
	CampaignID    string `json:"campaign_id"`
	Statement     string `json:"statement"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"email_verified"`
	PublicDisplay bool   `json:"public_display"`
	AdminNotes    string `json:"admin_notes,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type ReviewListResponse struct {
	Status string          `json:"status"`
	Data   []ReviewItemDTO `json:"data"`
}

// PublicEndorsementDTO is the campaign-page view. Email, token and
// moderation fields never leave the service here.
type PublicEndorsementDTO struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Role         string `json:"role,omitempty"`
	Region       string `json:"region,omitempty"`
	Category     string `json:"category,omitempty"`
	Statement    string `json:"statement,omitempty"`
	EndorsedAt   string `json:"endorsed_at"`
}

type PublicListResponse struct {
	Status string                 `json:"status"`
	Data   []PublicEndorsementDTO `json:"data"`
}
