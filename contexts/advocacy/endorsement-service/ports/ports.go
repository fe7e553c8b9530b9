package ports

import (
	"context"
	"time"

	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	"soapbox/internal/shared/events"
)

// Repository persists stakeholders, endorsements and the outbox. The
// postgres adapter backs all three with one database so InTransaction
// can make intake atomic.
type Repository interface {
	GetStakeholder(ctx context.Context, stakeholderID string) (entities.Stakeholder, error)
	GetStakeholderByEmail(ctx context.Context, email string) (entities.Stakeholder, bool, error)
	CreateStakeholder(ctx context.Context, stakeholder entities.Stakeholder) error

	GetEndorsement(ctx context.Context, endorsementID string) (entities.Endorsement, error)
	GetEndorsementByPair(ctx context.Context, stakeholderID, campaignID string) (entities.Endorsement, bool, error)
	GetEndorsementByToken(ctx context.Context, token string) (entities.Endorsement, error)
	CreateEndorsement(ctx context.Context, endorsement entities.Endorsement) error
	UpdateEndorsement(ctx context.Context, endorsement entities.Endorsement) error
	ListForReview(ctx context.Context) ([]entities.Endorsement, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]entities.PublicEndorsement, error)

	GetCampaignRef(ctx context.Context, campaignID string) (CampaignRef, error)

	AppendOutbox(ctx context.Context, envelope events.Envelope) error
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error

	// InTransaction runs fn against a repository bound to one
	// transaction; any error rolls back everything fn did.
	InTransaction(ctx context.Context, fn func(Repository) error) error
}

// CampaignRef is the narrow campaign projection the pipeline reads.
type CampaignRef struct {
	CampaignID        string
	Title             string
	AllowEndorsements bool
}

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// TokenGenerator issues opaque verification tokens.
type TokenGenerator interface {
	NewToken(ctx context.Context) (string, error)
}

// RateLimitDecision mirrors the limiter's verdict for this context.
type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter is the intake pipeline's view of the fixed-window
// limiter. Implementations never error: they fail open.
type RateLimiter interface {
	Check(ctx context.Context, purpose, identity string, maxAttempts int, window time.Duration) RateLimitDecision
	Record(ctx context.Context, purpose, identity string, window time.Duration)
}

// SpamInput carries the submission fields the screener inspects.
type SpamInput struct {
	Identity     string
	Name         string
	Organization string
	Email        string
	Statement    string
	RenderedAt   *time.Time
	Honeypot     map[string]string
	UserAgent    string
}

type SpamScreenResult struct {
	Score          float64
	IsSpam         bool
	Recommendation string
	Reasons        []string
}

// SpamScreener scores a submission without mutating anything; the
// intake orchestrator decides what to do with the verdict.
type SpamScreener interface {
	Screen(ctx context.Context, input SpamInput) SpamScreenResult
}

// Mailer dispatches pipeline email. Implementations report failure via
// error but callers never fail a request on it.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, campaignTitle, token string) error
	SendConfirmation(ctx context.Context, to, name, campaignTitle string) error
	SendAdminNotification(ctx context.Context, campaignTitle, stakeholderName, organization, endorsementID string) error
}
