/**
 * @description
 * This package provides a client for the SmePlug VTU API. SmePlug covers data
 * and airtime only; the remaining purchase operations report themselves as
 * unsupported so the settlement engine can surface a clear rejection instead
 * of a vendor error.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 * - internal/domain: VendorResult boundary type.
 * - internal/metrics: request counters and latency histograms.
 */
package smeplugclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/metrics"
)

// ErrUnsupported is returned for purchase operations SmePlug does not offer.
var ErrUnsupported = errors.New("operation not supported by smeplug")

// Client is a client for the SmePlug API.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a new SmePlug API client.
func NewClient(baseURL, secretKey string, m *metrics.Metrics) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		metrics: m,
	}
}

// Name returns the vendor identifier used in ledger entries and pricing rules.
func (c *Client) Name() string { return domain.VendorSmePlug }

// FetchCatalog retrieves the vendor's data plan listing.
func (c *Client) FetchCatalog(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "catalog", "/data/plans")
}

// BuyData purchases a data bundle.
func (c *Client) BuyData(ctx context.Context, network int, mobileNumber string, planID int) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"network_id":   network,
		"phone_number": mobileNumber,
		"plan_id":      planID,
	}
	return c.post(ctx, "buy_data", "/data/purchase", payload)
}

// BuyAirtime purchases an airtime top-up.
func (c *Client) BuyAirtime(ctx context.Context, network int, mobileNumber string, amount int64) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"network_id":   network,
		"phone_number": mobileNumber,
		"amount":       amount,
	}
	return c.post(ctx, "buy_airtime", "/airtime/purchase", payload)
}

// BuyElectricity is not offered by SmePlug.
func (c *Client) BuyElectricity(ctx context.Context, discoName string, amount int64, meterNumber, meterType string) (*domain.VendorResult, error) {
	return nil, ErrUnsupported
}

// BuyCable is not offered by SmePlug.
func (c *Client) BuyCable(ctx context.Context, cableName, cablePlan, smartCardNumber string) (*domain.VendorResult, error) {
	return nil, ErrUnsupported
}

// BuyEducationPin is not offered by SmePlug.
func (c *Client) BuyEducationPin(ctx context.Context, examName string, quantity int) (*domain.VendorResult, error) {
	return nil, ErrUnsupported
}

// GetTransaction fetches the vendor-side status of a purchase by reference.
func (c *Client) GetTransaction(ctx context.Context, reference string) (json.RawMessage, error) {
	return c.get(ctx, "get_transaction", "/transactions/"+reference)
}

func (c *Client) post(ctx context.Context, op, path string, payload interface{}) (*domain.VendorResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.observe(op, "transport_error", start)
		return nil, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(op, "read_error", start)
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}
	c.observe(op, strconv.Itoa(resp.StatusCode), start)

	return decodeResult(resp.StatusCode, raw), nil
}

func (c *Client) get(ctx context.Context, op, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.observe(op, "transport_error", start)
		return nil, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(op, "read_error", start)
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}
	c.observe(op, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("smeplug %s returned status %d", op, resp.StatusCode)
	}
	return raw, nil
}

func (c *Client) observe(op, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.VendorRequests.WithLabelValues(domain.VendorSmePlug, op, status).Inc()
	c.metrics.VendorLatency.WithLabelValues(domain.VendorSmePlug, op).Observe(time.Since(start).Seconds())
}

func decodeResult(httpStatus int, raw []byte) *domain.VendorResult {
	var envelope struct {
		Status bool   `json:"status"`
		Msg    string `json:"msg"`
		Data   struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	_ = json.Unmarshal(raw, &envelope)

	return &domain.VendorResult{
		OK:        httpStatus >= 200 && httpStatus < 300,
		Status:    envelope.Status,
		Reference: envelope.Data.Reference,
		Message:   envelope.Msg,
		Raw:       json.RawMessage(raw),
	}
}
