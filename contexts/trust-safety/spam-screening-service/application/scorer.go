package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"soapbox/contexts/trust-safety/spam-screening-service/domain/entities"
	"soapbox/contexts/trust-safety/spam-screening-service/ports"
)

const (
	minFillSeconds = 5
	maxFillSeconds = 1800

	weightTiming     = 0.4
	weightStale      = 0.3
	weightMalformed  = 0.3
	weightDisposable = 0.4
	weightPlusTag    = 0.2
	weightDigits     = 0.2
	weightToken      = 0.3
	weightRepeats    = 0.2
	weightNearEmpty  = 0.2
	weightReputation = 0.4

	thresholdBlock  = 0.7
	thresholdVerify = 0.4
	thresholdFlag   = 0.2
)

// Input carries everything the scorer may inspect for one submission.
type Input struct {
	Identity     string
	Name         string
	Organization string
	Email        string
	Statement    string
	RenderedAt   *time.Time
	Honeypot     map[string]string
	UserAgent    string
}

// Scorer combines honeypot, rate-limit, timing, email-reputation and
// content-quality signals into one advisory assessment. It holds no
// state and mutates nothing.
type Scorer struct {
	Reputation ports.ReputationChecker
	Gate       ports.RateGate
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (sc Scorer) Score(ctx context.Context, input Input) entities.Assessment {
	logger := ResolveLogger(sc.Logger)

	// Honeypot and rate limit are definitive: short-circuit at 1.0.
	for _, value := range input.Honeypot {
		if strings.TrimSpace(value) != "" {
			return spamVerdict(entities.ReasonHoneypotFilled)
		}
	}
	if sc.Gate != nil && !sc.Gate.Allow(ctx, input.Identity) {
		return spamVerdict(entities.ReasonRateLimited)
	}

	var score float64
	var reasons []entities.Reason
	add := func(weight float64, reason entities.Reason) {
		score += weight
		reasons = append(reasons, reason)
	}

	if input.RenderedAt == nil {
		logger.Info("submission missing form-render timestamp",
			"event", "spam_timing_missing",
			"module", "trust-safety/spam-screening-service",
			"layer", "application",
			"identity", input.Identity,
		)
	} else {
		elapsed := sc.Clock.Now().UTC().Sub(input.RenderedAt.UTC())
		switch {
		case elapsed < minFillSeconds*time.Second:
			add(weightTiming, entities.ReasonSubmittedTooFast)
		case elapsed > maxFillSeconds*time.Second:
			add(weightStale, entities.ReasonFormStale)
		}
	}

	for _, reason := range emailReasons(input.Email) {
		switch reason {
		case entities.ReasonMalformedEmail:
			add(weightMalformed, reason)
		case entities.ReasonDisposableDomain:
			add(weightDisposable, reason)
		case entities.ReasonSuspiciousTag:
			add(weightPlusTag, reason)
		case entities.ReasonRepeatedDigits:
			add(weightDigits, reason)
		}
	}

	for _, reason := range contentReasons(input.Name, input.Organization, input.Statement) {
		switch reason {
		case entities.ReasonSuspiciousToken:
			add(weightToken, reason)
		case entities.ReasonRepeatedChars:
			add(weightRepeats, reason)
		case entities.ReasonNearEmpty:
			add(weightNearEmpty, reason)
		}
	}

	if sc.Reputation != nil {
		flagged, err := sc.Reputation.CheckEmail(ctx, input.Email)
		if err != nil {
			// Best-effort collaborator; never let it shape the verdict.
			logger.Warn("reputation check skipped",
				"event", "spam_reputation_unavailable",
				"module", "trust-safety/spam-screening-service",
				"layer", "application",
				"error", err.Error(),
			)
		} else if flagged {
			add(weightReputation, entities.ReasonBadReputation)
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return entities.Assessment{
		Score:          score,
		IsSpam:         score >= thresholdBlock,
		Reasons:        reasons,
		Recommendation: recommend(score),
	}
}

func spamVerdict(reason entities.Reason) entities.Assessment {
	return entities.Assessment{
		Score:          1.0,
		IsSpam:         true,
		Reasons:        []entities.Reason{reason},
		Recommendation: entities.RecommendationBlock,
	}
}

func recommend(score float64) entities.Recommendation {
	switch {
	case score >= thresholdBlock:
		return entities.RecommendationBlock
	case score >= thresholdVerify:
		return entities.RecommendationVerify
	case score >= thresholdFlag:
		return entities.RecommendationFlag
	default:
		return entities.RecommendationAllow
	}
}
