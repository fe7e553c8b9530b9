package endorsementservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	endorsementservice "soapbox/contexts/advocacy/endorsement-service"
	httpadapter "soapbox/contexts/advocacy/endorsement-service/adapters/http"
	"soapbox/contexts/advocacy/endorsement-service/adapters/trustsafety"
	domainerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	"soapbox/contexts/advocacy/endorsement-service/ports"
	httptransport "soapbox/contexts/advocacy/endorsement-service/transport/http"
	ratelimitservice "soapbox/contexts/trust-safety/rate-limit-service"
	spamscreeningservice "soapbox/contexts/trust-safety/spam-screening-service"
	"soapbox/internal/shared/events"
)

var testReqCtx = httpadapter.RequestContext{ClientIP: "203.0.113.7", UserAgent: "test-agent"}

func seedOpenCampaign(module endorsementservice.Module) {
	module.Store.SeedCampaign(ports.CampaignRef{
		CampaignID:        "campaign-1",
		Title:             "Clean Rivers Act",
		AllowEndorsements: true,
	})
}

func submitRequest() httptransport.SubmitEndorsementRequest {
	return httptransport.SubmitEndorsementRequest{
		CampaignID:    "campaign-1",
		Name:          "Dana Fields",
		Organization:  "Riverside Clinic",
		Role:          "Director",
		Email:         "dana@riverside.example",
		City:          "Springfield",
		Region:        "IL",
		Category:      "healthcare",
		Statement:     "Our patients depend on clean water.",
		PublicDisplay: true,
	}
}

func tokenFor(t *testing.T, module endorsementservice.Module, endorsementID string) string {
	t.Helper()
	endorsement, err := module.Store.GetEndorsement(context.Background(), endorsementID)
	if err != nil {
		t.Fatalf("load endorsement: %v", err)
	}
	if endorsement.VerificationToken == "" {
		t.Fatalf("expected a verification token")
	}
	return endorsement.VerificationToken
}

func TestSubmitVerifyApproveDisplayFlow(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !created.Created {
		t.Fatalf("expected a new endorsement")
	}

	// Nothing is public before verification and approval.
	public, err := module.Handler.PublicListHandler(ctx, "campaign-1")
	if err != nil {
		t.Fatalf("public list failed: %v", err)
	}
	if len(public.Data) != 0 {
		t.Fatalf("expected empty public list, got %d", len(public.Data))
	}

	verified, err := module.Handler.VerifyEmailHandler(ctx, testReqCtx, tokenFor(t, module, created.EndorsementID))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.Approved {
		t.Fatalf("verification must not auto-approve by default")
	}

	queue, err := module.Handler.ListForReviewHandler(ctx)
	if err != nil {
		t.Fatalf("review list failed: %v", err)
	}
	if len(queue.Data) != 1 || queue.Data[0].Status != "verified" {
		t.Fatalf("expected one verified record in the queue, got %+v", queue.Data)
	}

	if _, err := module.Handler.ApproveHandler(ctx, created.EndorsementID, "admin-1", httptransport.ReviewRequest{}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Approved and consented but not curated yet.
	public, _ = module.Handler.PublicListHandler(ctx, "campaign-1")
	if len(public.Data) != 0 {
		t.Fatalf("expected empty public list before curation, got %d", len(public.Data))
	}

	if _, err := module.Handler.CurateDisplayHandler(ctx, created.EndorsementID, "admin-1", httptransport.CurateDisplayRequest{Display: true}); err != nil {
		t.Fatalf("curate failed: %v", err)
	}
	public, _ = module.Handler.PublicListHandler(ctx, "campaign-1")
	if len(public.Data) != 1 {
		t.Fatalf("expected one public endorsement, got %d", len(public.Data))
	}
	if public.Data[0].Name != "Dana Fields" {
		t.Fatalf("unexpected public name %q", public.Data[0].Name)
	}

	// Withdrawing curation removes it again.
	if _, err := module.Handler.CurateDisplayHandler(ctx, created.EndorsementID, "admin-1", httptransport.CurateDisplayRequest{Display: false}); err != nil {
		t.Fatalf("curate off failed: %v", err)
	}
	public, _ = module.Handler.PublicListHandler(ctx, "campaign-1")
	if len(public.Data) != 0 {
		t.Fatalf("expected empty public list after curation withdrawn, got %d", len(public.Data))
	}
}

func TestResubmissionExactMatchUpdatesPending(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	first, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	firstToken := tokenFor(t, module, first.EndorsementID)

	updated := submitRequest()
	updated.Statement = "Updated statement of support."
	second, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, updated)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if second.Created {
		t.Fatalf("resubmission must update, not create")
	}
	if second.EndorsementID != first.EndorsementID {
		t.Fatalf("expected same endorsement id")
	}

	endorsement, _ := module.Store.GetEndorsement(ctx, first.EndorsementID)
	if endorsement.Statement != "Updated statement of support." {
		t.Fatalf("statement not updated: %q", endorsement.Statement)
	}
	if endorsement.VerificationToken == firstToken {
		t.Fatalf("resubmission must reissue the token")
	}
}

func TestStakeholderFieldConflictRejected(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	if _, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	conflicting := submitRequest()
	conflicting.Organization = "Some Other Org"
	_, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, conflicting)
	if !errors.Is(err, domainerrors.ErrStakeholderMismatch) {
		t.Fatalf("expected stakeholder mismatch, got %v", err)
	}

	// Case differences alone are not a conflict.
	cased := submitRequest()
	cased.Name = "DANA FIELDS"
	cased.Email = "Dana@Riverside.example"
	resp, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, cased)
	if err != nil {
		t.Fatalf("case-insensitive resubmit failed: %v", err)
	}
	if resp.Created {
		t.Fatalf("case-insensitive resubmit must reuse the record")
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	token := tokenFor(t, module, created.EndorsementID)

	first, err := module.Handler.VerifyEmailHandler(ctx, testReqCtx, token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if first.AlreadyVerified {
		t.Fatalf("first verification must not report already verified")
	}

	second, err := module.Handler.VerifyEmailHandler(ctx, testReqCtx, token)
	if err != nil {
		t.Fatalf("repeat verify failed: %v", err)
	}
	if !second.AlreadyVerified {
		t.Fatalf("repeat verification must report already verified")
	}
}

func TestExpiredTokenRejectedWithoutMutation(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	module.Store.SetNow(start)

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	token := tokenFor(t, module, created.EndorsementID)

	module.Store.SetNow(start.Add(25 * time.Hour))
	_, err = module.Handler.VerifyEmailHandler(ctx, testReqCtx, token)
	if !errors.Is(err, domainerrors.ErrTokenExpired) {
		t.Fatalf("expected token expired, got %v", err)
	}

	endorsement, _ := module.Store.GetEndorsement(ctx, created.EndorsementID)
	if endorsement.EmailVerified || endorsement.VerifiedAt != nil {
		t.Fatalf("expired verification must not mutate the record")
	}
	if endorsement.Status != "pending" {
		t.Fatalf("expected status pending, got %s", endorsement.Status)
	}
}

func TestAutoApproveOnVerify(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{AutoApprove: true}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	verified, err := module.Handler.VerifyEmailHandler(ctx, testReqCtx, tokenFor(t, module, created.EndorsementID))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !verified.Approved {
		t.Fatalf("expected auto-approval on verification")
	}
}

func TestReviewIsIdempotentAndReversible(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	first, err := module.Handler.ApproveHandler(ctx, created.EndorsementID, "admin-1", httptransport.ReviewRequest{Notes: "fine"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	repeat, err := module.Handler.ApproveHandler(ctx, created.EndorsementID, "admin-2", httptransport.ReviewRequest{})
	if err != nil {
		t.Fatalf("repeat approve failed: %v", err)
	}
	if repeat.Message == first.Message {
		t.Fatalf("repeat approval should report a no-op")
	}

	// Repeat must not steal the reviewer attribution.
	endorsement, _ := module.Store.GetEndorsement(ctx, created.EndorsementID)
	if endorsement.ReviewedBy != "admin-1" {
		t.Fatalf("expected reviewer admin-1, got %s", endorsement.ReviewedBy)
	}

	if _, err := module.Handler.RejectHandler(ctx, created.EndorsementID, "admin-2", httptransport.ReviewRequest{Notes: "on review"}); err != nil {
		t.Fatalf("reject after approve failed: %v", err)
	}
	endorsement, _ = module.Store.GetEndorsement(ctx, created.EndorsementID)
	if endorsement.Status != "rejected" {
		t.Fatalf("expected rejected, got %s", endorsement.Status)
	}
}

func TestResubmissionLockedAfterVerification(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := module.Handler.VerifyEmailHandler(ctx, testReqCtx, tokenFor(t, module, created.EndorsementID)); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	_, err = module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if !errors.Is(err, domainerrors.ErrEndorsementLocked) {
		t.Fatalf("expected locked endorsement, got %v", err)
	}
}

func TestCampaignGatekeeping(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	module.Store.SeedCampaign(ports.CampaignRef{
		CampaignID:        "campaign-closed",
		Title:             "Closed Campaign",
		AllowEndorsements: false,
	})
	ctx := context.Background()

	missing := submitRequest()
	missing.CampaignID = "campaign-unknown"
	if _, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, missing); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("expected campaign not found, got %v", err)
	}

	closed := submitRequest()
	closed.CampaignID = "campaign-closed"
	if _, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, closed); !errors.Is(err, domainerrors.ErrCampaignClosed) {
		t.Fatalf("expected campaign closed, got %v", err)
	}
}

func TestSubmitRateLimitedByFixedWindow(t *testing.T) {
	rl := ratelimitservice.NewInMemoryModule("test", nil)
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{
		Limiter: trustsafety.LimiterAdapter{Limiter: rl.Limiter},
		Limits: endorsementservice.Limits{
			SubmitMaxAttempts: 2,
			SubmitWindow:      time.Hour,
			VerifyMaxAttempts: 10,
			VerifyWindow:      time.Hour,
			ResendMaxAttempts: 3,
			ResendWindow:      time.Hour,
		},
	}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	if _, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest()); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	_, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if !errors.Is(err, domainerrors.ErrRateLimited) {
		t.Fatalf("expected rate limited on third attempt, got %v", err)
	}

	// A different client is unaffected.
	other := httpadapter.RequestContext{ClientIP: "198.51.100.9", UserAgent: "test-agent"}
	otherReq := submitRequest()
	otherReq.Email = "lee@othertown.example"
	otherReq.Name = "Lee Ortiz"
	if _, err := module.Handler.SubmitEndorsementHandler(ctx, other, otherReq); err != nil {
		t.Fatalf("unrelated client blocked: %v", err)
	}
}

func TestSubmitLimitSharedWithSpamScreen(t *testing.T) {
	const maxAttempts = 3

	// Production wiring: the scorer's rate gate reads the same counter
	// the orchestrator records into. The orchestrator charges the
	// attempt before screening, so the gate must tolerate that charge
	// or the last in-budget attempt gets blocked as spam.
	rl := ratelimitservice.NewInMemoryModule("test", nil)
	screener := spamscreeningservice.NewModule(spamscreeningservice.Dependencies{
		Gate: trustsafety.CheckOnlyGate{
			Limiter:     rl.Limiter,
			Purpose:     "endorsement_submit",
			MaxAttempts: maxAttempts,
			Window:      time.Hour,
		},
		Clock: rl.Store,
	})
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{
		Limiter:  trustsafety.LimiterAdapter{Limiter: rl.Limiter},
		Screener: trustsafety.ScreenerAdapter{Scorer: screener.Scorer},
		Limits: endorsementservice.Limits{
			SubmitMaxAttempts: maxAttempts,
			SubmitWindow:      time.Hour,
			VerifyMaxAttempts: 10,
			VerifyWindow:      time.Hour,
			ResendMaxAttempts: 3,
			ResendWindow:      time.Hour,
		},
	}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	for i := 1; i <= maxAttempts; i++ {
		if _, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest()); err != nil {
			t.Fatalf("attempt %d of %d failed: %v", i, maxAttempts, err)
		}
	}

	_, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if !errors.Is(err, domainerrors.ErrRateLimited) {
		t.Fatalf("expected rate limited after %d attempts, got %v", maxAttempts, err)
	}
}

func TestMissingStakeholderSentinel(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)

	_, err := module.Store.GetStakeholder(context.Background(), "missing")
	if !errors.Is(err, domainerrors.ErrStakeholderNotFound) {
		t.Fatalf("expected stakeholder not found, got %v", err)
	}
}

type blockingScreener struct{}

func (blockingScreener) Screen(context.Context, ports.SpamInput) ports.SpamScreenResult {
	return ports.SpamScreenResult{
		Score:          1.0,
		IsSpam:         true,
		Recommendation: "block",
		Reasons:        []string{"honeypot_filled"},
	}
}

func TestSpamBlockRejectsWithoutPersisting(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{
		Screener: blockingScreener{},
	}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	_, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if !errors.Is(err, domainerrors.ErrSubmissionBlocked) {
		t.Fatalf("expected submission blocked, got %v", err)
	}

	queue, _ := module.Handler.ListForReviewHandler(ctx)
	if len(queue.Data) != 0 {
		t.Fatalf("blocked submission must not persist, got %d records", len(queue.Data))
	}
}

func TestResendResponsesAreIndistinguishable(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	before := tokenFor(t, module, created.EndorsementID)

	hit, err := module.Handler.ResendVerificationHandler(ctx, testReqCtx, httptransport.ResendVerificationRequest{
		Email:      "dana@riverside.example",
		CampaignID: "campaign-1",
	})
	if err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	miss, err := module.Handler.ResendVerificationHandler(ctx, testReqCtx, httptransport.ResendVerificationRequest{
		Email:      "nobody@nowhere.example",
		CampaignID: "campaign-1",
	})
	if err != nil {
		t.Fatalf("resend for unknown email failed: %v", err)
	}
	if hit.Message != miss.Message {
		t.Fatalf("resend responses must match: %q vs %q", hit.Message, miss.Message)
	}

	if after := tokenFor(t, module, created.EndorsementID); after == before {
		t.Fatalf("resend must reissue the token for a pending record")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type recordingMailer struct {
	mu            sync.Mutex
	verifications []string
	confirmations []string
	adminNotices  []string
}

func (m *recordingMailer) SendVerification(_ context.Context, to, _, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, to+":"+token)
	return nil
}

func (m *recordingMailer) SendConfirmation(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, to)
	return nil
}

func (m *recordingMailer) SendAdminNotification(_ context.Context, _, stakeholderName, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminNotices = append(m.adminNotices, stakeholderName)
	return nil
}

func TestOutboxRelayDrivesEmail(t *testing.T) {
	publisher := &recordingPublisher{}
	mailer := &recordingMailer{}
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{
		Publisher: publisher,
		Mailer:    mailer,
	}, nil)
	seedOpenCampaign(module)
	ctx := context.Background()

	created, err := module.Handler.SubmitEndorsementHandler(ctx, testReqCtx, submitRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	// Verification request plus admin notification.
	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 relayed events, got %d", len(publisher.events))
	}
	for _, event := range publisher.events {
		if err := module.EmailConsumer.Handle(ctx, event); err != nil {
			t.Fatalf("email consumer failed: %v", err)
		}
	}
	if len(mailer.verifications) != 1 || len(mailer.adminNotices) != 1 {
		t.Fatalf("expected one verification and one admin notice, got %d/%d",
			len(mailer.verifications), len(mailer.adminNotices))
	}

	// Relay marked everything published: a second cycle is a no-op.
	if err := module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay failed: %v", err)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("published rows must not be relayed twice")
	}

	if _, err := module.Handler.VerifyEmailHandler(ctx, testReqCtx, tokenFor(t, module, created.EndorsementID)); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := module.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("third relay failed: %v", err)
	}
	if len(publisher.events) != 3 {
		t.Fatalf("expected verified event relayed, got %d", len(publisher.events))
	}
	if err := module.EmailConsumer.Handle(ctx, publisher.events[2]); err != nil {
		t.Fatalf("confirmation dispatch failed: %v", err)
	}
	if len(mailer.confirmations) != 1 {
		t.Fatalf("expected one confirmation email, got %d", len(mailer.confirmations))
	}
}

func TestConcurrentSubmissionsConvergeOnOneRecord(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	seedOpenCampaign(module)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = module.Handler.SubmitEndorsementHandler(context.Background(), testReqCtx, submitRequest())
		}(i)
	}
	wg.Wait()

	for slot, err := range errs {
		if err != nil {
			t.Fatalf("submission %d failed: %v", slot, err)
		}
	}
	queue, err := module.Handler.ListForReviewHandler(context.Background())
	if err != nil {
		t.Fatalf("review list failed: %v", err)
	}
	if len(queue.Data) != 1 {
		t.Fatalf("expected exactly one endorsement, got %d", len(queue.Data))
	}
}
