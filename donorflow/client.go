package donorflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/amani-foundation/donations-backend/models"
)

// Client talks to the donations API. It issues at most one request per
// call, never retries, and relies on the caller's context for cancellation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the donations API at baseURL. A nil
// httpClient falls back to http.DefaultClient; the flow does not override
// platform timeouts.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// createDonationResponse mirrors the POST /api/donations envelope.
type createDonationResponse struct {
	Message string                    `json:"message"`
	Data    models.CreateDonationData `json:"data"`
}

// CreateDonation submits a donation intent and returns the created
// donation plus the hosted checkout URL.
func (c *Client) CreateDonation(ctx context.Context, request models.DonationRequest) (*models.CreateDonationData, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal donation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/donations", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("donation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("donation request failed: server answered %d", resp.StatusCode)
	}

	var parsed createDonationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse donation response: %w", err)
	}

	return &parsed.Data, nil
}

// VerifyDonation asks the API for the payment outcome of reference. A
// non-2xx answer is an error; interpreting the payload is the caller's
// concern.
func (c *Client) VerifyDonation(ctx context.Context, reference string) (*models.VerifyDonationResponse, error) {
	endpoint := c.baseURL + "/api/donations/verify/" + url.PathEscape(reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("verification request failed: server answered %d", resp.StatusCode)
	}

	var parsed models.VerifyDonationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse verification response: %w", err)
	}

	return &parsed, nil
}
