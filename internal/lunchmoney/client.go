package lunchmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lunchwatch/lunchwatch/internal/domain"
)

// DefaultBaseURL is the production Lunch Money API endpoint.
const DefaultBaseURL = "https://dev.lunchmoney.app"

// Client is an HTTP client for the Lunch Money API with retry on 429.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a new Lunch Money API client.
func NewClient(baseURL, apiKey string, maxRetries int, baseDelay time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// get performs an authenticated GET request with retry on 429.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt < c.maxRetries+1; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, newAPIError(ErrKindConnectivity, 0, "executing request", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, newAPIError(ErrKindConnectivity, resp.StatusCode, "reading response", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, newAPIError(ErrKindAuthentication, resp.StatusCode,
				fmt.Sprintf("HTTP %d from %s: invalid or expired API key", resp.StatusCode, path), nil)

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = newAPIError(ErrKindConnectivity, resp.StatusCode,
				fmt.Sprintf("HTTP 429 at %s (attempt %d/%d)", path, attempt+1, c.maxRetries+1), nil)
			if attempt < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr

		default:
			return nil, newAPIError(ErrKindConnectivity, resp.StatusCode,
				fmt.Sprintf("HTTP %d from %s: %s", resp.StatusCode, path, string(body)), nil)
		}
	}

	return nil, lastErr
}

// FetchAssets fetches manually tracked assets and Plaid-linked accounts and
// returns them as one record sequence. Raises a classified APIError on
// authentication failure, connectivity failure, or a response missing the
// expected top-level attribute.
func (c *Client) FetchAssets(ctx context.Context) ([]domain.RawAssetRecord, error) {
	manual, err := c.fetchManualAssets(ctx)
	if err != nil {
		return nil, err
	}

	linked, err := c.fetchLinkedAssets(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawAssetRecord, 0, len(manual)+len(linked))
	for _, a := range manual {
		records = append(records, domain.ManualRecord(a))
	}
	for _, a := range linked {
		records = append(records, domain.LinkedRecord(a))
	}
	return records, nil
}

func (c *Client) fetchManualAssets(ctx context.Context) ([]domain.RawManualAsset, error) {
	body, err := c.get(ctx, "/v1/assets")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Assets *[]domain.RawManualAsset `json:"assets"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, newAPIError(ErrKindMalformedResponse, http.StatusOK, "parsing /v1/assets response", err)
	}
	if payload.Assets == nil {
		return nil, newAPIError(ErrKindMalformedResponse, http.StatusOK,
			"response from /v1/assets is missing the assets attribute", nil)
	}
	return *payload.Assets, nil
}

func (c *Client) fetchLinkedAssets(ctx context.Context) ([]domain.RawLinkedAsset, error) {
	body, err := c.get(ctx, "/v1/plaid_accounts")
	if err != nil {
		return nil, err
	}

	var payload struct {
		PlaidAccounts *[]domain.RawLinkedAsset `json:"plaid_accounts"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, newAPIError(ErrKindMalformedResponse, http.StatusOK, "parsing /v1/plaid_accounts response", err)
	}
	if payload.PlaidAccounts == nil {
		return nil, newAPIError(ErrKindMalformedResponse, http.StatusOK,
			"response from /v1/plaid_accounts is missing the plaid_accounts attribute", nil)
	}
	return *payload.PlaidAccounts, nil
}

// ValidateKey checks the configured API key against /v1/me.
func (c *Client) ValidateKey(ctx context.Context) error {
	body, err := c.get(ctx, "/v1/me")
	if err != nil {
		return err
	}

	var payload struct {
		UserName string `json:"user_name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return newAPIError(ErrKindMalformedResponse, http.StatusOK, "parsing /v1/me response", err)
	}
	return nil
}
