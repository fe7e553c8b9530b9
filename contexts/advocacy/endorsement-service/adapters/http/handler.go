package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"soapbox/contexts/advocacy/endorsement-service/application/commands"
	"soapbox/contexts/advocacy/endorsement-service/application/queries"
	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	httptransport "soapbox/contexts/advocacy/endorsement-service/transport/http"
)

// Handler maps transport DTOs onto use cases. It stays free of
// net/http so the server layer owns status codes and routing.
type Handler struct {
	Submit  commands.SubmitEndorsementUseCase
	Verify  commands.VerifyEmailUseCase
	Resend  commands.ResendVerificationUseCase
	Review  commands.ReviewEndorsementUseCase
	Curate  commands.CurateDisplayUseCase
	Queries queries.QueryUseCase
	Logger  *slog.Logger
}

// RequestContext carries the connection facts only the server knows.
type RequestContext struct {
	ClientIP  string
	UserAgent string
}

func (h Handler) SubmitEndorsementHandler(
	ctx context.Context,
	reqCtx RequestContext,
	req httptransport.SubmitEndorsementRequest,
) (httptransport.SubmitEndorsementResponse, error) {
	result, err := h.Submit.Execute(ctx, commands.SubmitEndorsementCommand{
		CampaignID:    req.CampaignID,
		Name:          req.Name,
		Organization:  req.Organization,
		Role:          req.Role,
		Email:         req.Email,
		City:          req.City,
		Region:        req.Region,
		PostalCode:    req.PostalCode,
		Category:      req.Category,
		Statement:     req.Statement,
		PublicDisplay: req.PublicDisplay,
		Identity:      reqCtx.ClientIP,
		UserAgent:     reqCtx.UserAgent,
		RenderedAt:    req.Metadata.RenderedAt(),
		Honeypot:      req.Metadata.Honeypot,
		Referrer:      req.Metadata.SanitizedReferrer(),
	})
	if err != nil {
		return httptransport.SubmitEndorsementResponse{}, err
	}

	message := "endorsement received, check your email to verify"
	if !result.Created {
		message = "endorsement updated, check your email to verify"
	}
	return httptransport.SubmitEndorsementResponse{
		Status:        "success",
		EndorsementID: result.Endorsement.EndorsementID,
		Created:       result.Created,
		Message:       message,
	}, nil
}

func (h Handler) VerifyEmailHandler(
	ctx context.Context,
	reqCtx RequestContext,
	token string,
) (httptransport.VerifyEmailResponse, error) {
	result, err := h.Verify.Execute(ctx, commands.VerifyEmailCommand{
		Token:    token,
		Identity: reqCtx.ClientIP,
	})
	if err != nil {
		return httptransport.VerifyEmailResponse{}, err
	}

	message := "email verified"
	if result.AlreadyVerified {
		message = "email already verified"
	}
	return httptransport.VerifyEmailResponse{
		Status:          "success",
		EndorsementID:   result.Endorsement.EndorsementID,
		AlreadyVerified: result.AlreadyVerified,
		Approved:        result.Endorsement.Status == entities.EndorsementStatusApproved,
		Message:         message,
	}, nil
}

func (h Handler) ResendVerificationHandler(
	ctx context.Context,
	reqCtx RequestContext,
	req httptransport.ResendVerificationRequest,
) (httptransport.ResendVerificationResponse, error) {
	err := h.Resend.Execute(ctx, commands.ResendVerificationCommand{
		Email:      req.Email,
		CampaignID: req.CampaignID,
		Identity:   reqCtx.ClientIP,
	})
	if err != nil {
		return httptransport.ResendVerificationResponse{}, err
	}
	return httptransport.ResendVerificationResponse{
		Status:  "success",
		Message: "if a matching endorsement exists, a new verification email is on its way",
	}, nil
}

func (h Handler) ApproveHandler(
	ctx context.Context,
	endorsementID, reviewerID string,
	req httptransport.ReviewRequest,
) (httptransport.ReviewResponse, error) {
	result, err := h.Review.Approve(ctx, commands.ReviewEndorsementCommand{
		EndorsementID: endorsementID,
		ReviewerID:    reviewerID,
		Notes:         req.Notes,
	})
	if err != nil {
		return httptransport.ReviewResponse{}, err
	}
	return httptransport.ReviewResponse{
		Status:        "success",
		EndorsementID: result.Endorsement.EndorsementID,
		Message:       result.Message,
	}, nil
}

func (h Handler) RejectHandler(
	ctx context.Context,
	endorsementID, reviewerID string,
	req httptransport.ReviewRequest,
) (httptransport.ReviewResponse, error) {
	result, err := h.Review.Reject(ctx, commands.ReviewEndorsementCommand{
		EndorsementID: endorsementID,
		ReviewerID:    reviewerID,
		Notes:         req.Notes,
	})
	if err != nil {
		return httptransport.ReviewResponse{}, err
	}
	return httptransport.ReviewResponse{
		Status:        "success",
		EndorsementID: result.Endorsement.EndorsementID,
		Message:       result.Message,
	}, nil
}

func (h Handler) CurateDisplayHandler(
	ctx context.Context,
	endorsementID, reviewerID string,
	req httptransport.CurateDisplayRequest,
) (httptransport.CurateDisplayResponse, error) {
	err := h.Curate.Execute(ctx, commands.CurateDisplayCommand{
		EndorsementID: endorsementID,
		ReviewerID:    reviewerID,
		Display:       req.Display,
	})
	if err != nil {
		return httptransport.CurateDisplayResponse{}, err
	}
	return httptransport.CurateDisplayResponse{
		Status:        "success",
		EndorsementID: endorsementID,
		Display:       req.Display,
	}, nil
}

func (h Handler) ListForReviewHandler(ctx context.Context) (httptransport.ReviewListResponse, error) {
	items, err := h.Queries.ListForReview(ctx)
	if err != nil {
		return httptransport.ReviewListResponse{}, err
	}
	resp := httptransport.ReviewListResponse{
		Status: "success",
		Data:   make([]httptransport.ReviewItemDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toReviewDTO(item))
	}
	return resp, nil
}

func (h Handler) PublicListHandler(ctx context.Context, campaignID string) (httptransport.PublicListResponse, error) {
	items, err := h.Queries.PublicList(ctx, campaignID)
	if err != nil {
		return httptransport.PublicListResponse{}, err
	}
	resp := httptransport.PublicListResponse{
		Status: "success",
		Data:   make([]httptransport.PublicEndorsementDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toPublicDTO(item))
	}
	return resp, nil
}

func toReviewDTO(item entities.Endorsement) httptransport.ReviewItemDTO {
	return httptransport.ReviewItemDTO{
		EndorsementID: item.EndorsementID,
		StakeholderID: item.StakeholderID,
		CampaignID:    item.CampaignID,
		Statement:     item.Statement,
		Status:        string(item.Status),
		EmailVerified: item.EmailVerified,
		PublicDisplay: item.PublicDisplay,
		AdminNotes:    item.AdminNotes,
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPublicDTO(item entities.PublicEndorsement) httptransport.PublicEndorsementDTO {
	return httptransport.PublicEndorsementDTO{
		Name:         item.Stakeholder.Name,
		Organization: item.Stakeholder.Organization,
		Role:         item.Stakeholder.Role,
		Region:       item.Stakeholder.Region,
		Category:     item.Stakeholder.Category,
		Statement:    item.Endorsement.Statement,
		EndorsedAt:   item.Endorsement.CreatedAt.UTC().Format(time.RFC3339),
	}
}
