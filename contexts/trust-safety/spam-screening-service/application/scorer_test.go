package application

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode"

	"soapbox/contexts/trust-safety/spam-screening-service/domain/entities"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time {
	return c.now
}

type fakeGate struct {
	allow bool
}

func (g fakeGate) Allow(context.Context, string) bool {
	return g.allow
}

type fakeReputation struct {
	flagged bool
	err     error
}

func (r fakeReputation) CheckEmail(context.Context, string) (bool, error) {
	return r.flagged, r.err
}

func cleanInput(renderedAt time.Time) Input {
	rendered := renderedAt
	return Input{
		Identity:     "10.0.0.1",
		Name:         "Jordan Reyes",
		Organization: "Harborview Tenants Union",
		Email:        "jordan.reyes@harborview.org",
		Statement:    "Our members strongly support this measure.",
		RenderedAt:   &rendered,
	}
}

func TestHoneypotAlwaysScoresOne(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{Clock: fakeClock{now: now}}

	input := cleanInput(now.Add(-30 * time.Second))
	input.Honeypot = map[string]string{"website": "http://spam.example"}

	assessment := scorer.Score(context.Background(), input)
	if !assessment.IsSpam || assessment.Score != 1.0 {
		t.Fatalf("honeypot fill must be definitive, got score %.2f spam=%v", assessment.Score, assessment.IsSpam)
	}
	if assessment.Recommendation != entities.RecommendationBlock {
		t.Fatalf("expected block, got %s", assessment.Recommendation)
	}
	if !assessment.HasReason(entities.ReasonHoneypotFilled) {
		t.Fatal("expected honeypot reason")
	}
}

func TestRateLimitedScoresOne(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{Clock: fakeClock{now: now}, Gate: fakeGate{allow: false}}

	assessment := scorer.Score(context.Background(), cleanInput(now.Add(-30*time.Second)))
	if !assessment.IsSpam || assessment.Score != 1.0 {
		t.Fatalf("rate-limited input must be definitive, got %.2f", assessment.Score)
	}
	if !assessment.HasReason(entities.ReasonRateLimited) {
		t.Fatal("expected rate-limited reason")
	}
}

func TestCleanSubmissionAllowed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{Clock: fakeClock{now: now}, Gate: fakeGate{allow: true}}

	assessment := scorer.Score(context.Background(), cleanInput(now.Add(-45*time.Second)))
	if assessment.Recommendation != entities.RecommendationAllow {
		t.Fatalf("expected allow, got %s (score %.2f, reasons %v)",
			assessment.Recommendation, assessment.Score, assessment.Reasons)
	}
	if assessment.IsSpam {
		t.Fatal("clean submission flagged as spam")
	}
}

func TestTimingSignals(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{Clock: fakeClock{now: now}}

	fast := cleanInput(now.Add(-2 * time.Second))
	if got := scorer.Score(context.Background(), fast); !got.HasReason(entities.ReasonSubmittedTooFast) {
		t.Fatal("sub-5s fill should look automated")
	}

	stale := cleanInput(now.Add(-2 * time.Hour))
	if got := scorer.Score(context.Background(), stale); !got.HasReason(entities.ReasonFormStale) {
		t.Fatal("30min+ old form should look replayed")
	}

	missing := cleanInput(now)
	missing.RenderedAt = nil
	if got := scorer.Score(context.Background(), missing); len(got.Reasons) != 0 {
		t.Fatalf("missing timestamp is tolerated, got reasons %v", got.Reasons)
	}
}

func TestEmailReputationSignals(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{Clock: fakeClock{now: now}}
	rendered := now.Add(-time.Minute)

	cases := []struct {
		email  string
		reason entities.Reason
	}{
		{"someone@mailinator.com", entities.ReasonDisposableDomain},
		{"someone@mail.mailinator.com", entities.ReasonDisposableDomain},
		{"user+test@example.org", entities.ReasonSuspiciousTag},
		{"bot777@example.org", entities.ReasonRepeatedDigits},
		{"not-an-email", entities.ReasonMalformedEmail},
	}
	for _, tc := range cases {
		input := cleanInput(rendered)
		input.Email = tc.email
		got := scorer.Score(context.Background(), input)
		if !got.HasReason(tc.reason) {
			t.Errorf("email %q: expected reason %s, got %v", tc.email, tc.reason, got.Reasons)
		}
	}
}

func TestContentQualitySignals(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{Clock: fakeClock{now: now}}
	rendered := now.Add(-time.Minute)

	linky := cleanInput(rendered)
	linky.Statement = "Buy now at https://spam.example/deal"
	if got := scorer.Score(context.Background(), linky); !got.HasReason(entities.ReasonSuspiciousToken) {
		t.Fatal("embedded URL should be suspicious")
	}

	repeats := cleanInput(rendered)
	repeats.Statement = "yessssss"
	if got := scorer.Score(context.Background(), repeats); !got.HasReason(entities.ReasonRepeatedChars) {
		t.Fatal("4+ repeated characters should be suspicious")
	}

	empty := cleanInput(rendered)
	empty.Name = ""
	empty.Statement = ""
	if got := scorer.Score(context.Background(), empty); !got.HasReason(entities.ReasonNearEmpty) {
		t.Fatal("near-empty submission should be suspicious")
	}
}

func TestRepetitionDetection(t *testing.T) {
	cases := []struct {
		s     string
		n     int
		match func(rune) bool
		want  bool
	}{
		{"abc777x", 3, unicode.IsDigit, true},
		{"a7b7c7", 3, unicode.IsDigit, false},
		{"77", 3, unicode.IsDigit, false},
		{"YeSSsS", 4, isASCIILetter, true},
		{"yes", 4, isASCIILetter, false},
		{"1111", 4, isASCIILetter, false},
		{"", 3, unicode.IsDigit, false},
	}
	for _, tc := range cases {
		if got := hasRun(tc.s, tc.n, tc.match); got != tc.want {
			t.Errorf("hasRun(%q, %d) = %v, want %v", tc.s, tc.n, got, tc.want)
		}
	}
}

func TestReputationFailureIsSwallowed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{
		Clock:      fakeClock{now: now},
		Reputation: fakeReputation{err: errors.New("timeout")},
	}

	got := scorer.Score(context.Background(), cleanInput(now.Add(-time.Minute)))
	if got.Recommendation != entities.RecommendationAllow {
		t.Fatalf("reputation outage must not penalize, got %s", got.Recommendation)
	}
}

func TestReputationFlagAddsWeight(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{
		Clock:      fakeClock{now: now},
		Reputation: fakeReputation{flagged: true},
	}

	got := scorer.Score(context.Background(), cleanInput(now.Add(-time.Minute)))
	if !got.HasReason(entities.ReasonBadReputation) {
		t.Fatal("expected external reputation reason")
	}
	if got.Recommendation != entities.RecommendationVerify {
		t.Fatalf("0.4 score should require verification, got %s", got.Recommendation)
	}
}

func TestScoreAccumulationAndThresholds(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	scorer := Scorer{Clock: fakeClock{now: now}}

	// Disposable (0.4) + plus tag (0.2) + too fast (0.4) => capped, block.
	input := cleanInput(now.Add(-1 * time.Second))
	input.Email = "user+test1@mailinator.com"
	got := scorer.Score(context.Background(), input)
	if got.Score != 1.0 {
		t.Fatalf("expected capped score 1.0, got %.2f", got.Score)
	}
	if got.Recommendation != entities.RecommendationBlock || !got.IsSpam {
		t.Fatalf("expected block verdict, got %s", got.Recommendation)
	}

	// Repeated digits alone (0.2) => flag.
	mild := cleanInput(now.Add(-time.Minute))
	mild.Email = "line555@example.org"
	got = scorer.Score(context.Background(), mild)
	if got.Recommendation != entities.RecommendationFlag {
		t.Fatalf("0.2 score should flag for review, got %s (%.2f)", got.Recommendation, got.Score)
	}
}
