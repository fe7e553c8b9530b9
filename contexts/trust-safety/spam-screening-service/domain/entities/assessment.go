package entities

// Reason is a typed spam signal. Keeping reasons as an enum rather
// than free-form strings keeps threshold tests stable.
type Reason string

const (
	ReasonHoneypotFilled   Reason = "honeypot_filled"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonSubmittedTooFast Reason = "submitted_too_fast"
	ReasonFormStale        Reason = "form_stale"
	ReasonMalformedEmail   Reason = "malformed_email"
	ReasonDisposableDomain Reason = "disposable_domain"
	ReasonSuspiciousTag    Reason = "suspicious_plus_tag"
	ReasonRepeatedDigits   Reason = "repeated_digits"
	ReasonSuspiciousToken  Reason = "suspicious_token"
	ReasonRepeatedChars    Reason = "repeated_characters"
	ReasonNearEmpty        Reason = "near_empty_submission"
	ReasonBadReputation    Reason = "external_reputation_flag"
)

type Recommendation string

const (
	RecommendationAllow  Recommendation = "allow"
	RecommendationFlag   Recommendation = "flag"
	RecommendationVerify Recommendation = "verify"
	RecommendationBlock  Recommendation = "block"
)

// Assessment is transient: the scorer never persists or mutates
// anything, callers decide what to do with the result.
type Assessment struct {
	Score          float64
	IsSpam         bool
	Reasons        []Reason
	Recommendation Recommendation
}

func (a Assessment) HasReason(reason Reason) bool {
	for _, r := range a.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
