package entities

import "time"

type EndorsementStatus string

const (
	EndorsementStatusPending  EndorsementStatus = "pending"
	EndorsementStatusVerified EndorsementStatus = "verified"
	EndorsementStatusApproved EndorsementStatus = "approved"
	EndorsementStatusRejected EndorsementStatus = "rejected"
)

// Endorsement is one stakeholder's declaration of support for one
// campaign, unique on that pair. Lifecycle:
//
//	pending -> verified -> approved | rejected
//
// verification happens by emailed token, approval by an admin.
// approved/rejected are terminal except for admin re-review, which is
// idempotent.
type Endorsement struct {
	EndorsementID string
	StakeholderID string
	CampaignID    string
	Statement     string

	// PublicDisplay is the endorser's consent; DisplayPublicly is the
	// admin's curation choice. Both are required for visibility and
	// neither implies the other.
	PublicDisplay   bool
	DisplayPublicly bool

	Status        EndorsementStatus
	EmailVerified bool

	VerificationToken  string
	VerificationSentAt *time.Time
	VerifiedAt         *time.Time

	ReviewedBy string
	ReviewedAt *time.Time
	AdminNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PubliclyVisible is the display predicate: all four flags are
// independently required. Derived, never stored.
func (e Endorsement) PubliclyVisible() bool {
	return e.PublicDisplay &&
		e.EmailVerified &&
		e.Status == EndorsementStatusApproved &&
		e.DisplayPublicly
}

// TokenExpired reports whether the verification token is past its
// lifetime relative to when it was sent.
func (e Endorsement) TokenExpired(now time.Time, ttl time.Duration) bool {
	if e.VerificationSentAt == nil {
		return true
	}
	return now.Sub(e.VerificationSentAt.UTC()) > ttl
}

// PublicEndorsement joins an endorsement with its stakeholder for
// public listings.
type PublicEndorsement struct {
	Endorsement Endorsement
	Stakeholder Stakeholder
}
