package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kobocharge/vtu-backend/internal/app"
)

func newWebhookHandlers() *Handlers {
	service := app.NewService(nil, nil, "", nil, nil, nil, nil)
	return NewHandlers(service, "test-jwt-secret", "test-gateway-secret", "test-hook-token")
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestGatewayWebhookRejectsInvalidSignature(t *testing.T) {
	h := newWebhookHandlers()
	body := []byte(`{"event":"charge.success","data":{}}`)

	req := httptest.NewRequest("POST", "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", "deadbeef")
	rec := httptest.NewRecorder()

	h.GatewayWebhookHandler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGatewayWebhookRejectsMissingSignature(t *testing.T) {
	h := newWebhookHandlers()
	body := []byte(`{"event":"charge.success","data":{}}`)

	req := httptest.NewRequest("POST", "/webhooks/paystack", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.GatewayWebhookHandler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGatewayWebhookAcknowledgesValidSignature(t *testing.T) {
	h := newWebhookHandlers()
	// An event type the reconciler does not handle: the delivery is still
	// acknowledged so the gateway does not retry.
	body := []byte(`{"event":"ping","data":{}}`)

	req := httptest.NewRequest("POST", "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", sign("test-gateway-secret", body))
	rec := httptest.NewRecorder()

	h.GatewayWebhookHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "OK" {
		t.Errorf("body = %q, want OK", got)
	}
}

func TestVendorWebhookRejectsBadToken(t *testing.T) {
	h := newWebhookHandlers()
	body := []byte(`{"transaction":{"reference":"VND-1","status":"success"}}`)

	req := httptest.NewRequest("POST", "/webhooks/vendor", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()

	h.VendorWebhookHandler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestVendorWebhookRejectsMissingReference(t *testing.T) {
	h := newWebhookHandlers()
	body := []byte(`{"transaction":{"reference":"","status":"success"}}`)

	req := httptest.NewRequest("POST", "/webhooks/vendor", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-hook-token")
	rec := httptest.NewRecorder()

	h.VendorWebhookHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
