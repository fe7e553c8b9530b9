package trustsafety

import (
	"context"
	"time"

	"soapbox/contexts/advocacy/endorsement-service/ports"
	ratelimit "soapbox/contexts/trust-safety/rate-limit-service/application"
	spamscreening "soapbox/contexts/trust-safety/spam-screening-service/application"
)

// LimiterAdapter exposes the trust-safety limiter through the intake
// pipeline's port.
type LimiterAdapter struct {
	Limiter ratelimit.Limiter
}

func (a LimiterAdapter) Check(ctx context.Context, purpose, identity string, maxAttempts int, window time.Duration) ports.RateLimitDecision {
	decision := a.Limiter.Check(ctx, purpose, identity, maxAttempts, window)
	return ports.RateLimitDecision{
		Allowed:   decision.Allowed,
		Remaining: decision.Remaining,
		ResetIn:   decision.ResetIn,
	}
}

func (a LimiterAdapter) Record(ctx context.Context, purpose, identity string, window time.Duration) {
	a.Limiter.Record(ctx, purpose, identity, window)
}

// ScreenerAdapter exposes the spam scorer through the intake pipeline's
// port.
type ScreenerAdapter struct {
	Scorer spamscreening.Scorer
}

func (a ScreenerAdapter) Screen(ctx context.Context, input ports.SpamInput) ports.SpamScreenResult {
	assessment := a.Scorer.Score(ctx, spamscreening.Input{
		Identity:     input.Identity,
		Name:         input.Name,
		Organization: input.Organization,
		Email:        input.Email,
		Statement:    input.Statement,
		RenderedAt:   input.RenderedAt,
		Honeypot:     input.Honeypot,
		UserAgent:    input.UserAgent,
	})

	reasons := make([]string, 0, len(assessment.Reasons))
	for _, reason := range assessment.Reasons {
		reasons = append(reasons, string(reason))
	}
	return ports.SpamScreenResult{
		Score:          assessment.Score,
		IsSpam:         assessment.IsSpam,
		Recommendation: string(assessment.Recommendation),
		Reasons:        reasons,
	}
}

// CheckOnlyGate lets the scorer consult the limiter without consuming
// an attempt. The intake orchestrator records attempts itself, so the
// gate reading the counter twice would double-charge submitters.
type CheckOnlyGate struct {
	Limiter     ratelimit.Limiter
	Purpose     string
	MaxAttempts int
	Window      time.Duration
}

// Allow reports whether the identity is within its submission budget.
// The orchestrator records the attempt under screening before the
// scorer runs, so the counter already includes it; the gate allows one
// extra count so the last in-budget attempt is not rejected as spam.
func (g CheckOnlyGate) Allow(ctx context.Context, identity string) bool {
	return g.Limiter.Check(ctx, g.Purpose, identity, g.MaxAttempts+1, g.Window).Allowed
}
