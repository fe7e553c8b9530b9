package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ReputationClient calls a third-party content-reputation API. The
// client enforces a short timeout so a slow provider can never hold an
// intake request; callers treat every error as "no signal".
type ReputationClient struct {
	baseURL string
	client  *http.Client
}

func NewReputationClient(baseURL string, timeout time.Duration) *ReputationClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ReputationClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type reputationRequest struct {
	Email string `json:"email"`
}

type reputationResponse struct {
	Flagged bool `json:"flagged"`
}

func (c *ReputationClient) CheckEmail(ctx context.Context, email string) (bool, error) {
	payload, err := json.Marshal(reputationRequest{Email: email})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/check", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("reputation api status %d", resp.StatusCode)
	}

	var body reputationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Flagged, nil
}
