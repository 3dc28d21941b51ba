/**
 * @description
 * This package provides a client for the BilalSadaSub VTU API. The API follows
 * the same request family as Alrahuzdata (token auth, per-product endpoints)
 * and covers the full purchase surface, so it serves as the configurable
 * fallback vendor.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 * - internal/domain: VendorResult boundary type.
 * - internal/metrics: request counters and latency histograms.
 */
package bilalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/metrics"
)

// Client is a client for the BilalSadaSub API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a new BilalSadaSub API client.
func NewClient(baseURL, token string, m *metrics.Metrics) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		metrics: m,
	}
}

// Name returns the vendor identifier used in ledger entries and pricing rules.
func (c *Client) Name() string { return domain.VendorBilal }

// FetchCatalog retrieves the vendor's plan listing.
func (c *Client) FetchCatalog(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.Token)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.observe("catalog", "transport_error", start)
		return nil, fmt.Errorf("failed to execute catalog request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("catalog", "read_error", start)
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	c.observe("catalog", strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bilalsadasub catalog returned status %d", resp.StatusCode)
	}
	return raw, nil
}

// BuyData purchases a data bundle.
func (c *Client) BuyData(ctx context.Context, network int, mobileNumber string, planID int) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"network": network,
		"phone":   mobileNumber,
		"plan":    planID,
	}
	return c.post(ctx, "buy_data", "/data", payload)
}

// BuyAirtime purchases an airtime top-up.
func (c *Client) BuyAirtime(ctx context.Context, network int, mobileNumber string, amount int64) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"network":      network,
		"phone":        mobileNumber,
		"amount":       amount,
		"airtime_type": "VTU",
	}
	return c.post(ctx, "buy_airtime", "/topup", payload)
}

// BuyElectricity pays an electricity bill.
func (c *Client) BuyElectricity(ctx context.Context, discoName string, amount int64, meterNumber, meterType string) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"disco_name":   discoName,
		"amount":       amount,
		"meter_number": meterNumber,
		"meter_type":   meterType,
	}
	return c.post(ctx, "buy_electricity", "/billpayment", payload)
}

// BuyCable purchases a cable TV subscription.
func (c *Client) BuyCable(ctx context.Context, cableName, cablePlan, smartCardNumber string) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"cablename":         cableName,
		"cableplan":         cablePlan,
		"smart_card_number": smartCardNumber,
	}
	return c.post(ctx, "buy_cable", "/cablesub", payload)
}

// BuyEducationPin purchases exam result-checker pins.
func (c *Client) BuyEducationPin(ctx context.Context, examName string, quantity int) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"exam_name": examName,
		"quantity":  quantity,
	}
	return c.post(ctx, "buy_education_pin", "/epin", payload)
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
	req.Header.Set("Authorization", "Token "+c.Token)

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

func (c *Client) observe(op, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.VendorRequests.WithLabelValues(domain.VendorBilal, op, status).Inc()
	c.metrics.VendorLatency.WithLabelValues(domain.VendorBilal, op).Observe(time.Since(start).Seconds())
}

func decodeResult(httpStatus int, raw []byte) *domain.VendorResult {
	var envelope struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	_ = json.Unmarshal(raw, &envelope)

	return &domain.VendorResult{
		OK:        httpStatus >= 200 && httpStatus < 300,
		Status:    envelope.Status,
		Reference: envelope.Data.Reference,
		Message:   envelope.Message,
		Raw:       json.RawMessage(raw),
	}
}
