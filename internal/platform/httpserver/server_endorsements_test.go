package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	campaignservice "soapbox/contexts/advocacy/campaign-service"
	endorsementservice "soapbox/contexts/advocacy/endorsement-service"
	"soapbox/contexts/advocacy/endorsement-service/ports"
	endorsementhttp "soapbox/contexts/advocacy/endorsement-service/transport/http"
	"soapbox/internal/shared/clientip"
)

const testAdminKey = "test-admin-key"

func newTestServer() *Server {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	module.Store.SeedCampaign(ports.CampaignRef{
		CampaignID:        "campaign-1",
		Title:             "Clean Rivers Act",
		AllowEndorsements: true,
	})
	campaigns := campaignservice.NewInMemoryModule(nil, nil)
	return New(module, campaigns, clientip.NewResolver(nil), testAdminKey, nil, "")
}

func submitBody() []byte {
	payload, _ := json.Marshal(endorsementhttp.SubmitEndorsementRequest{
		CampaignID:    "campaign-1",
		Name:          "Dana Fields",
		Organization:  "Riverside Clinic",
		Email:         "dana@riverside.example",
		Statement:     "Clean water matters.",
		PublicDisplay: true,
	})
	return payload
}

func TestSubmitEndorsementEndpoint(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/endorsements", bytes.NewReader(submitBody()))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp endorsementhttp.SubmitEndorsementResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Created || resp.EndorsementID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSubmitRejectsMalformedJSON(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/endorsements", bytes.NewReader([]byte(`{`)))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSubmitUnknownCampaignReturns404(t *testing.T) {
	server := newTestServer()
	payload, _ := json.Marshal(endorsementhttp.SubmitEndorsementRequest{
		CampaignID: "campaign-missing",
		Name:       "Dana Fields",
		Email:      "dana@riverside.example",
	})
	req := httptest.NewRequest(http.MethodPost, "/endorsements", bytes.NewReader(payload))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAdminRoutesRequireAdminKey(t *testing.T) {
	server := newTestServer()
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/endorsements/admin/pending"},
		{http.MethodPost, "/endorsements/admin/approve/e-1"},
		{http.MethodPost, "/endorsements/admin/reject/e-1"},
		{http.MethodPost, "/endorsements/admin/display/e-1"},
	}
	for _, route := range paths {
		req := httptest.NewRequest(route.method, route.path, bytes.NewReader([]byte(`{}`)))
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", route.method, route.path, rr.Code)
		}

		wrong := httptest.NewRequest(route.method, route.path, bytes.NewReader([]byte(`{}`)))
		wrong.Header.Set("X-Admin-Key", "wrong-key")
		rr = httptest.NewRecorder()
		server.mux.ServeHTTP(rr, wrong)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s %s with wrong key: expected 403, got %d", route.method, route.path, rr.Code)
		}
	}
}

func TestUnsetAdminKeyDisablesAdminRoutes(t *testing.T) {
	module := endorsementservice.NewInMemoryModule(endorsementservice.InMemoryOptions{}, nil)
	server := New(module, campaignservice.NewInMemoryModule(nil, nil), clientip.NewResolver(nil), "", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/endorsements/admin/pending", nil)
	req.Header.Set("X-Admin-Key", "")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with no configured key, got %d", rr.Code)
	}
}

func TestModerationFlowOverHTTP(t *testing.T) {
	server := newTestServer()

	submit := httptest.NewRequest(http.MethodPost, "/endorsements", bytes.NewReader(submitBody()))
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, submit)
	if rr.Code != http.StatusOK {
		t.Fatalf("submit failed: %d %s", rr.Code, rr.Body.String())
	}
	var created endorsementhttp.SubmitEndorsementResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &created)

	pending := httptest.NewRequest(http.MethodGet, "/endorsements/admin/pending", nil)
	pending.Header.Set("X-Admin-Key", testAdminKey)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, pending)
	if rr.Code != http.StatusOK {
		t.Fatalf("pending list failed: %d %s", rr.Code, rr.Body.String())
	}
	var queue endorsementhttp.ReviewListResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &queue)
	if len(queue.Data) != 1 {
		t.Fatalf("expected one pending record, got %d", len(queue.Data))
	}

	approve := httptest.NewRequest(http.MethodPost, "/endorsements/admin/approve/"+created.EndorsementID, bytes.NewReader([]byte(`{"notes":"ok"}`)))
	approve.Header.Set("X-Admin-Key", testAdminKey)
	approve.Header.Set("X-User-Id", "admin-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, approve)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve failed: %d %s", rr.Code, rr.Body.String())
	}

	// Reviewer identity is required even with a valid key.
	noReviewer := httptest.NewRequest(http.MethodPost, "/endorsements/admin/reject/"+created.EndorsementID, nil)
	noReviewer.Header.Set("X-Admin-Key", testAdminKey)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, noReviewer)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reviewer id, got %d", rr.Code)
	}
}

func TestPublicListingEndpoint(t *testing.T) {
	server := newTestServer()

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/campaigns/campaign-1/endorsements", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/campaigns/campaign-missing/endorsements", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown campaign, got %d", rr.Code)
	}
}

func TestVerifyEndpointTokenNotFound(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/endorsements/verify/not-a-token", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCampaignAdminRoutes(t *testing.T) {
	server := newTestServer()

	// Directory maintenance is admin-only.
	upsert := httptest.NewRequest(http.MethodPut, "/campaigns/admin/campaign-2", bytes.NewReader([]byte(`{"title":"Transit Now","allow_endorsements":true}`)))
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, upsert)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin key, got %d", rr.Code)
	}

	upsert = httptest.NewRequest(http.MethodPut, "/campaigns/admin/campaign-2", bytes.NewReader([]byte(`{"title":"Transit Now","allow_endorsements":true}`)))
	upsert.Header.Set("X-Admin-Key", testAdminKey)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, upsert)
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert failed: %d %s", rr.Code, rr.Body.String())
	}

	toggle := httptest.NewRequest(http.MethodPost, "/campaigns/admin/campaign-2/intake", bytes.NewReader([]byte(`{"allow":false}`)))
	toggle.Header.Set("X-Admin-Key", testAdminKey)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, toggle)
	if rr.Code != http.StatusOK {
		t.Fatalf("intake toggle failed: %d %s", rr.Code, rr.Body.String())
	}

	missing := httptest.NewRequest(http.MethodPost, "/campaigns/admin/campaign-missing/intake", bytes.NewReader([]byte(`{"allow":true}`)))
	missing.Header.Set("X-Admin-Key", testAdminKey)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, missing)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown campaign, got %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer()
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
