/**
 * @description
 * This package provides a client for the Alrahuzdata VTU API. It encapsulates
 * authenticated HTTP requests to the vendor's purchase and validation
 * endpoints and normalizes every purchase response into a VendorResult, so
 * the settlement engine never handles the vendor's loosely-shaped payloads.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 * - internal/domain: VendorResult boundary type.
 * - internal/metrics: request counters and latency histograms.
 */
package alrahuzclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/metrics"
)

// Client is a client for the Alrahuzdata API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a new Alrahuzdata API client.
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
func (c *Client) Name() string { return domain.VendorAlrahuz }

// FetchCatalog retrieves the vendor's full account payload, which carries the
// nested data and cable plan trees consumed by the catalog normalizer.
func (c *Client) FetchCatalog(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "catalog", "/user", nil)
}

// BuyData purchases a data bundle.
func (c *Client) BuyData(ctx context.Context, network int, mobileNumber string, planID int) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"network":       network,
		"mobile_number": mobileNumber,
		"plan":          planID,
		"Ported_number": true,
	}
	return c.post(ctx, "buy_data", "/data", payload)
}

// BuyAirtime purchases an airtime top-up.
func (c *Client) BuyAirtime(ctx context.Context, network int, mobileNumber string, amount int64) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"network":       network,
		"amount":        amount,
		"mobile_number": mobileNumber,
		"Ported_number": true,
		"airtime_type":  "VTU",
	}
	return c.post(ctx, "buy_airtime", "/topup", payload)
}

// BuyElectricity pays an electricity bill.
func (c *Client) BuyElectricity(ctx context.Context, discoName string, amount int64, meterNumber, meterType string) (*domain.VendorResult, error) {
	payload := map[string]interface{}{
		"disco_name":   discoName,
		"amount":       amount,
		"meter_number": meterNumber,
		"MeterType":    meterType,
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

// ValidateMeter checks a meter number with the disco before purchase.
func (c *Client) ValidateMeter(ctx context.Context, meterNumber, discoName, meterType string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("meternumber", meterNumber)
	params.Set("disconame", discoName)
	params.Set("mtype", meterType)
	return c.get(ctx, "validate_meter", "/validatemeter/", params)
}

// ValidateIUC checks a smartcard number with the cable operator before purchase.
func (c *Client) ValidateIUC(ctx context.Context, smartCardNumber, cableName string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("smart_card_number", smartCardNumber)
	params.Set("cablename", cableName)
	return c.get(ctx, "validate_iuc", "/validateiuc", params)
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

func (c *Client) get(ctx context.Context, op, path string, params url.Values) (json.RawMessage, error) {
	endpoint := c.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
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

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("alrahuz %s returned status %d", op, resp.StatusCode)
	}
	return raw, nil
}

func (c *Client) observe(op, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.VendorRequests.WithLabelValues(domain.VendorAlrahuz, op, status).Inc()
	c.metrics.VendorLatency.WithLabelValues(domain.VendorAlrahuz, op).Observe(time.Since(start).Seconds())
}

// decodeResult maps the vendor's response body to the typed boundary. The
// vendor's own `status` flag decides success; HTTP-level success alone does not.
func decodeResult(httpStatus int, raw []byte) *domain.VendorResult {
	var envelope struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	// An unparsable body is a vendor failure with the raw payload preserved.
	_ = json.Unmarshal(raw, &envelope)

	return &domain.VendorResult{
		OK:        httpStatus >= 200 && httpStatus < 300,
		Status:    envelope.Status,
		Reference: envelope.Data.Reference,
		Message:   envelope.Message,
		Raw:       json.RawMessage(raw),
	}
}
