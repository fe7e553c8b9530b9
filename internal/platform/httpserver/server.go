package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	campaignservice "soapbox/contexts/advocacy/campaign-service"
	campaignerrors "soapbox/contexts/advocacy/campaign-service/domain/errors"
	campaignhttp "soapbox/contexts/advocacy/campaign-service/transport/http"
	endorsementservice "soapbox/contexts/advocacy/endorsement-service"
	httpadapter "soapbox/contexts/advocacy/endorsement-service/adapters/http"
	endorsementerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	endorsementhttp "soapbox/contexts/advocacy/endorsement-service/transport/http"
	"soapbox/internal/shared/clientip"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "soapbox/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	endorsements endorsementservice.Module
	campaigns    campaignservice.Module
	clientIPs    clientip.Resolver
	adminAPIKey  string
}

func New(
	endorsements endorsementservice.Module,
	campaigns campaignservice.Module,
	clientIPs clientip.Resolver,
	adminAPIKey string,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		endorsements: endorsements,
		campaigns:    campaigns,
		clientIPs:    clientIPs,
		adminAPIKey:  adminAPIKey,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /endorsements", s.handleSubmitEndorsement)
	s.mux.HandleFunc("POST /endorsements/verify/{token}", s.handleVerifyEmail)
	s.mux.HandleFunc("POST /endorsements/resend-verification", s.handleResendVerification)

	s.mux.HandleFunc("GET /endorsements/admin/pending", s.requireAdmin(s.handleListPending))
	s.mux.HandleFunc("POST /endorsements/admin/approve/{endorsement_id}", s.requireAdmin(s.handleApprove))
	s.mux.HandleFunc("POST /endorsements/admin/reject/{endorsement_id}", s.requireAdmin(s.handleReject))
	s.mux.HandleFunc("POST /endorsements/admin/display/{endorsement_id}", s.requireAdmin(s.handleCurateDisplay))

	s.mux.HandleFunc("GET /campaigns/{campaign_id}/endorsements", s.handlePublicList)

	s.mux.HandleFunc("PUT /campaigns/admin/{campaign_id}", s.requireAdmin(s.handleUpsertCampaign))
	s.mux.HandleFunc("POST /campaigns/admin/{campaign_id}/intake", s.requireAdmin(s.handleSetCampaignIntake))
}

// requireAdmin gates moderation routes on the shared admin key. The
// comparison is constant-time; an unset key disables the routes
// entirely instead of leaving them open.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provided := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
		if s.adminAPIKey == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(s.adminAPIKey)) != 1 {
			writeEndorsementError(w, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		next(w, r)
	}
}

func (s *Server) requestContext(r *http.Request) httpadapter.RequestContext {
	return httpadapter.RequestContext{
		ClientIP:  s.clientIPs.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitEndorsement(w http.ResponseWriter, r *http.Request) {
	var req endorsementhttp.SubmitEndorsementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEndorsementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.endorsements.Handler.SubmitEndorsementHandler(r.Context(), s.requestContext(r), req)
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	resp, err := s.endorsements.Handler.VerifyEmailHandler(r.Context(), s.requestContext(r), token)
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req endorsementhttp.ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEndorsementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.endorsements.Handler.ResendVerificationHandler(r.Context(), s.requestContext(r), req)
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	resp, err := s.endorsements.Handler.ListForReviewHandler(r.Context())
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.endorsements.Handler.ApproveHandler(
		r.Context(),
		r.PathValue("endorsement_id"),
		reviewerID(r),
		req,
	)
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.endorsements.Handler.RejectHandler(
		r.Context(),
		r.PathValue("endorsement_id"),
		reviewerID(r),
		req,
	)
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurateDisplay(w http.ResponseWriter, r *http.Request) {
	var req endorsementhttp.CurateDisplayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEndorsementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.endorsements.Handler.CurateDisplayHandler(
		r.Context(),
		r.PathValue("endorsement_id"),
		reviewerID(r),
		req,
	)
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublicList(w http.ResponseWriter, r *http.Request) {
	resp, err := s.endorsements.Handler.PublicListHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeEndorsementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsertCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignhttp.UpsertCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCampaignError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.campaigns.Handler.UpsertCampaignHandler(r.Context(), r.PathValue("campaign_id"), req)
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetCampaignIntake(w http.ResponseWriter, r *http.Request) {
	var req campaignhttp.SetIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCampaignError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.campaigns.Handler.SetIntakeHandler(r.Context(), r.PathValue("campaign_id"), req)
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeReviewRequest tolerates an empty body: approve and reject work
// without notes.
func decodeReviewRequest(w http.ResponseWriter, r *http.Request) (endorsementhttp.ReviewRequest, bool) {
	var req endorsementhttp.ReviewRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEndorsementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return req, false
	}
	return req, true
}

func reviewerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func writeEndorsementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, endorsementerrors.ErrInvalidSubmission),
		errors.Is(err, endorsementerrors.ErrSubmissionBlocked),
		errors.Is(err, endorsementerrors.ErrCampaignClosed),
		errors.Is(err, endorsementerrors.ErrTokenExpired):
		writeEndorsementError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, endorsementerrors.ErrCampaignNotFound),
		errors.Is(err, endorsementerrors.ErrEndorsementNotFound),
		errors.Is(err, endorsementerrors.ErrStakeholderNotFound),
		errors.Is(err, endorsementerrors.ErrTokenNotFound):
		writeEndorsementError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, endorsementerrors.ErrStakeholderMismatch),
		errors.Is(err, endorsementerrors.ErrStakeholderExists),
		errors.Is(err, endorsementerrors.ErrEndorsementExists),
		errors.Is(err, endorsementerrors.ErrEndorsementLocked):
		writeEndorsementError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, endorsementerrors.ErrRateLimited):
		writeEndorsementError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	default:
		writeEndorsementError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCampaignDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaignerrors.ErrInvalidCampaign):
		writeCampaignError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, campaignerrors.ErrCampaignNotFound):
		writeCampaignError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeCampaignError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCampaignError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, campaignhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeEndorsementError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, endorsementhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
