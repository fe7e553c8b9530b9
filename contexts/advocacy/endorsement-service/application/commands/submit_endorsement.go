package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "soapbox/contexts/advocacy/endorsement-service/application"
	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	domainerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	"soapbox/contexts/advocacy/endorsement-service/ports"
	"soapbox/internal/shared/events"
)

const rateLimitPurposeSubmit = "endorsement_submit"

type SubmitEndorsementCommand struct {
	CampaignID string

	Name         string
	Organization string
	Role         string
	Email        string
	City         string
	Region       string
	PostalCode   string
	Category     string

	Statement     string
	PublicDisplay bool

	// Request context for abuse screening.
	Identity   string
	UserAgent  string
	RenderedAt *time.Time
	Honeypot   map[string]string
	Referrer   string
}

type SubmitEndorsementResult struct {
	Endorsement entities.Endorsement
	Created     bool
}

// SubmitEndorsementUseCase is the intake orchestrator: rate limit,
// spam screen, then stakeholder resolution and endorsement write
// inside one transaction. Email dispatch rides the outbox and happens
// after commit.
type SubmitEndorsementUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Tokens     ports.TokenGenerator
	Limiter    ports.RateLimiter
	Screener   ports.SpamScreener
	Logger     *slog.Logger

	MaxAttempts int
	Window      time.Duration
}

func (uc SubmitEndorsementUseCase) Execute(ctx context.Context, cmd SubmitEndorsementCommand) (SubmitEndorsementResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	if strings.TrimSpace(cmd.CampaignID) == "" ||
		strings.TrimSpace(cmd.Email) == "" ||
		strings.TrimSpace(cmd.Name) == "" {
		return SubmitEndorsementResult{}, domainerrors.ErrInvalidSubmission
	}

	decision := uc.Limiter.Check(ctx, rateLimitPurposeSubmit, cmd.Identity, uc.MaxAttempts, uc.Window)
	uc.Limiter.Record(ctx, rateLimitPurposeSubmit, cmd.Identity, uc.Window)
	if !decision.Allowed {
		return SubmitEndorsementResult{}, domainerrors.ErrRateLimited
	}

	campaign, err := uc.Repository.GetCampaignRef(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return SubmitEndorsementResult{}, err
	}
	if !campaign.AllowEndorsements {
		return SubmitEndorsementResult{}, domainerrors.ErrCampaignClosed
	}

	verdict := uc.Screener.Screen(ctx, ports.SpamInput{
		Identity:     cmd.Identity,
		Name:         cmd.Name,
		Organization: cmd.Organization,
		Email:        cmd.Email,
		Statement:    cmd.Statement,
		RenderedAt:   cmd.RenderedAt,
		Honeypot:     cmd.Honeypot,
		UserAgent:    cmd.UserAgent,
	})
	if verdict.Recommendation == "block" || verdict.IsSpam {
		logger.Warn("submission blocked by spam screen",
			"event", "endorsement_submit_blocked",
			"module", "advocacy/endorsement-service",
			"layer", "application",
			"campaign_id", campaign.CampaignID,
			"score", verdict.Score,
			"reasons", strings.Join(verdict.Reasons, ","),
		)
		return SubmitEndorsementResult{}, domainerrors.ErrSubmissionBlocked
	}
	screenNote := screenNote(verdict)

	var result SubmitEndorsementResult
	err = uc.Repository.InTransaction(ctx, func(repo ports.Repository) error {
		stakeholder, err := uc.resolveStakeholder(ctx, repo, cmd)
		if err != nil {
			return err
		}
		result, err = uc.upsertEndorsement(ctx, repo, cmd, campaign, stakeholder, screenNote)
		return err
	})
	if err != nil {
		return SubmitEndorsementResult{}, err
	}

	logger.Info("endorsement submitted",
		"event", "endorsement_submitted",
		"module", "advocacy/endorsement-service",
		"layer", "application",
		"endorsement_id", result.Endorsement.EndorsementID,
		"campaign_id", campaign.CampaignID,
		"created", result.Created,
	)
	return result, nil
}

// resolveStakeholder finds-or-creates the identity behind the email.
// Reusing an existing email with any differing identity field is a
// conflict: silent takeover of a public endorsement is worse than a
// failed submission.
func (uc SubmitEndorsementUseCase) resolveStakeholder(
	ctx context.Context,
	repo ports.Repository,
	cmd SubmitEndorsementCommand,
) (entities.Stakeholder, error) {
	candidate := entities.Stakeholder{
		Name:         strings.TrimSpace(cmd.Name),
		Organization: strings.TrimSpace(cmd.Organization),
		Role:         strings.TrimSpace(cmd.Role),
		Email:        entities.NormalizeEmail(cmd.Email),
		City:         strings.TrimSpace(cmd.City),
		Region:       strings.TrimSpace(cmd.Region),
		PostalCode:   strings.TrimSpace(cmd.PostalCode),
		Category:     strings.TrimSpace(cmd.Category),
	}

	existing, found, err := repo.GetStakeholderByEmail(ctx, candidate.Email)
	if err != nil {
		return entities.Stakeholder{}, err
	}
	if found {
		if !existing.MatchesIdentity(candidate) {
			return entities.Stakeholder{}, domainerrors.ErrStakeholderMismatch
		}
		return existing, nil
	}

	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Stakeholder{}, err
	}
	now := uc.Clock.Now().UTC()
	candidate.StakeholderID = id
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	if !candidate.ValidateCreate() {
		return entities.Stakeholder{}, domainerrors.ErrInvalidSubmission
	}

	if err := repo.CreateStakeholder(ctx, candidate); err != nil {
		// Lost the insert race: fall back to the same validate-match
		// path an explicit duplicate check would have taken.
		if errors.Is(err, domainerrors.ErrStakeholderExists) {
			existing, found, lookupErr := repo.GetStakeholderByEmail(ctx, candidate.Email)
			if lookupErr != nil {
				return entities.Stakeholder{}, lookupErr
			}
			if !found {
				return entities.Stakeholder{}, err
			}
			if !existing.MatchesIdentity(candidate) {
				return entities.Stakeholder{}, domainerrors.ErrStakeholderMismatch
			}
			return existing, nil
		}
		return entities.Stakeholder{}, err
	}
	return candidate, nil
}

func (uc SubmitEndorsementUseCase) upsertEndorsement(
	ctx context.Context,
	repo ports.Repository,
	cmd SubmitEndorsementCommand,
	campaign ports.CampaignRef,
	stakeholder entities.Stakeholder,
	screenNote string,
) (SubmitEndorsementResult, error) {
	now := uc.Clock.Now().UTC()

	existing, found, err := repo.GetEndorsementByPair(ctx, stakeholder.StakeholderID, campaign.CampaignID)
	if err != nil {
		return SubmitEndorsementResult{}, err
	}
	if found {
		return uc.resubmit(ctx, repo, cmd, campaign, stakeholder, existing, screenNote, now)
	}

	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return SubmitEndorsementResult{}, err
	}
	token, err := uc.Tokens.NewToken(ctx)
	if err != nil {
		return SubmitEndorsementResult{}, err
	}

	endorsement := entities.Endorsement{
		EndorsementID:      id,
		StakeholderID:      stakeholder.StakeholderID,
		CampaignID:         campaign.CampaignID,
		Statement:          strings.TrimSpace(cmd.Statement),
		PublicDisplay:      cmd.PublicDisplay,
		Status:             entities.EndorsementStatusPending,
		VerificationToken:  token,
		VerificationSentAt: &now,
		AdminNotes:         screenNote,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := repo.CreateEndorsement(ctx, endorsement); err != nil {
		// Two concurrent submissions for the same pair: the unique
		// constraint is the backstop, converge on the update path.
		if errors.Is(err, domainerrors.ErrEndorsementExists) {
			raced, found, lookupErr := repo.GetEndorsementByPair(ctx, stakeholder.StakeholderID, campaign.CampaignID)
			if lookupErr != nil {
				return SubmitEndorsementResult{}, lookupErr
			}
			if !found {
				return SubmitEndorsementResult{}, err
			}
			return uc.resubmit(ctx, repo, cmd, campaign, stakeholder, raced, screenNote, now)
		}
		return SubmitEndorsementResult{}, err
	}

	if err := appendVerificationEvent(ctx, repo, uc.IDGen, campaign, stakeholder, endorsement, now); err != nil {
		return SubmitEndorsementResult{}, err
	}
	if err := appendSubmittedEvent(ctx, repo, uc.IDGen, campaign, stakeholder, endorsement, now); err != nil {
		return SubmitEndorsementResult{}, err
	}
	return SubmitEndorsementResult{Endorsement: endorsement, Created: true}, nil
}

// resubmit lets a still-pending record be edited and its token
// reissued. Anything past pending is locked: verified and reviewed
// records never regenerate tokens or change text via the public form.
func (uc SubmitEndorsementUseCase) resubmit(
	ctx context.Context,
	repo ports.Repository,
	cmd SubmitEndorsementCommand,
	campaign ports.CampaignRef,
	stakeholder entities.Stakeholder,
	existing entities.Endorsement,
	screenNote string,
	now time.Time,
) (SubmitEndorsementResult, error) {
	if existing.Status != entities.EndorsementStatusPending {
		return SubmitEndorsementResult{}, domainerrors.ErrEndorsementLocked
	}

	token, err := uc.Tokens.NewToken(ctx)
	if err != nil {
		return SubmitEndorsementResult{}, err
	}

	existing.Statement = strings.TrimSpace(cmd.Statement)
	existing.PublicDisplay = cmd.PublicDisplay
	existing.VerificationToken = token
	existing.VerificationSentAt = &now
	existing.AdminNotes = appendNote(existing.AdminNotes, screenNote)
	existing.UpdatedAt = now

	if err := repo.UpdateEndorsement(ctx, existing); err != nil {
		return SubmitEndorsementResult{}, err
	}
	if err := appendVerificationEvent(ctx, repo, uc.IDGen, campaign, stakeholder, existing, now); err != nil {
		return SubmitEndorsementResult{}, err
	}
	return SubmitEndorsementResult{Endorsement: existing, Created: false}, nil
}

func appendVerificationEvent(
	ctx context.Context,
	repo ports.Repository,
	idGen ports.IDGenerator,
	campaign ports.CampaignRef,
	stakeholder entities.Stakeholder,
	endorsement entities.Endorsement,
	now time.Time,
) error {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	return repo.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     EventTypeVerificationRequested,
		SourceService: SourceService,
		OccurredAtUTC: now,
		EntityType:    "endorsement",
		EntityID:      endorsement.EndorsementID,
		Payload: VerificationRequestedPayload{
			EndorsementID: endorsement.EndorsementID,
			CampaignID:    campaign.CampaignID,
			CampaignTitle: campaign.Title,
			Email:         stakeholder.Email,
			Name:          stakeholder.Name,
			Token:         endorsement.VerificationToken,
		},
	})
}

func appendSubmittedEvent(
	ctx context.Context,
	repo ports.Repository,
	idGen ports.IDGenerator,
	campaign ports.CampaignRef,
	stakeholder entities.Stakeholder,
	endorsement entities.Endorsement,
	now time.Time,
) error {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	return repo.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     EventTypeEndorsementSubmitted,
		SourceService: SourceService,
		OccurredAtUTC: now,
		EntityType:    "endorsement",
		EntityID:      endorsement.EndorsementID,
		Payload: EndorsementSubmittedPayload{
			EndorsementID:   endorsement.EndorsementID,
			CampaignID:      campaign.CampaignID,
			CampaignTitle:   campaign.Title,
			StakeholderName: stakeholder.Name,
			Organization:    stakeholder.Organization,
		},
	})
}

func screenNote(verdict ports.SpamScreenResult) string {
	switch verdict.Recommendation {
	case "flag", "verify":
		return fmt.Sprintf("spam screen %s (score %.2f): %s",
			verdict.Recommendation, verdict.Score, strings.Join(verdict.Reasons, ", "))
	default:
		return ""
	}
}

func appendNote(existing, note string) string {
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
