/**
 * @description
 * This package provides a client for the Paystack dedicated-virtual-account
 * endpoints. Assignment is asynchronous: the assign call only acknowledges the
 * request, and the actual account descriptor arrives later on the
 * `dedicatedaccount.assign.*` webhook events handled by the reconciler.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package paystackclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the Paystack API.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewClient creates a new Paystack API client.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AssignRequest is the payload for a single-step customer-and-DVA assignment.
type AssignRequest struct {
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	PreferredBank string `json:"preferred_bank,omitempty"`
	Country       string `json:"country,omitempty"`
}

// APIResponse is the generic Paystack response envelope.
type APIResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// BankProvider is one supported settlement bank for dedicated accounts.
type BankProvider struct {
	ID           int    `json:"id"`
	ProviderSlug string `json:"provider_slug"`
	BankID       int    `json:"bank_id"`
	BankName     string `json:"bank_name"`
}

// AssignDedicatedAccount requests a dedicated account for a customer.
func (c *Client) AssignDedicatedAccount(ctx context.Context, req AssignRequest) (*APIResponse, error) {
	return c.do(ctx, "POST", "/dedicated_account/assign", req)
}

// ListBankProviders fetches the banks available for dedicated accounts.
func (c *Client) ListBankProviders(ctx context.Context) ([]BankProvider, error) {
	resp, err := c.do(ctx, "GET", "/dedicated_account/available_providers", nil)
	if err != nil {
		return nil, err
	}
	var providers []BankProvider
	if err := json.Unmarshal(resp.Data, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode bank providers: %w", err)
	}
	return providers, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*APIResponse, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal paystack request: %w", err)
		}
		body = bytes.NewBuffer(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create paystack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute paystack request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode paystack response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !apiResp.Status {
		return nil, fmt.Errorf("paystack request failed (status %d): %s", resp.StatusCode, apiResp.Message)
	}
	return &apiResp, nil
}
