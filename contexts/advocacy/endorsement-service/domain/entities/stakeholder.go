package entities

import (
	"strings"
	"time"
)

// Stakeholder is the identity behind an endorsement. Created on first
// submission and never deleted by this pipeline; after creation the
// identity fields only survive an exact-match re-submission.
type Stakeholder struct {
	StakeholderID string
	Name          string
	Organization  string
	Role          string
	Email         string
	City          string
	Region        string
	PostalCode    string
	Category      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s Stakeholder) ValidateCreate() bool {
	return strings.TrimSpace(s.Name) != "" &&
		strings.TrimSpace(s.Email) != ""
}

// MatchesIdentity reports whether every identity field matches
// case-insensitively. Exact per-field comparison, not fuzzy: a single
// differing field blocks reuse of the email address.
func (s Stakeholder) MatchesIdentity(other Stakeholder) bool {
	return fieldEqual(s.Name, other.Name) &&
		fieldEqual(s.Organization, other.Organization) &&
		fieldEqual(s.Role, other.Role) &&
		fieldEqual(s.Region, other.Region) &&
		fieldEqual(s.Category, other.Category)
}

func fieldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeEmail is the canonical form used for lookup and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
