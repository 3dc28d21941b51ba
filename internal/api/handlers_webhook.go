/**
 * @description
 * This file contains the HTTP handlers for inbound webhooks: funding and
 * dedicated-account events from the payment gateway, and delivery
 * confirmations from the VTU vendors.
 *
 * @notes
 * - Gateway deliveries are authenticated by an HMAC-SHA512 signature of the
 *   raw body; a bad signature is rejected with 401 before any parsing.
 * - The gateway is acknowledged with 200 immediately and the event is
 *   processed on a detached context, so slow downstream work can never cause
 *   the gateway to mark the delivery failed and retry prematurely.
 * - Both webhook flows are idempotent in the service layer, so redeliveries
 *   are safe.
 */

package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kobocharge/vtu-backend/internal/app"
	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/store"
)

// GatewayWebhookHandler receives payment gateway events.
func (h *Handlers) GatewayWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Unable to read request body")
		return
	}

	if !h.validGatewaySignature(body, r.Header.Get("x-paystack-signature")) {
		log.Printf("level=warn component=webhook msg=\"gateway delivery with invalid signature rejected\"")
		h.writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event domain.GatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}

	// Acknowledge before processing; the reconciler is idempotent, so a crash
	// mid-processing is recovered by the gateway's redelivery.
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.service.HandleGatewayEvent(ctx, event); err != nil {
			log.Printf("level=error component=webhook msg=\"gateway event processing failed\" event=%s err=%v",
				event.Event, err)
		}
	}()
}

// validGatewaySignature checks the HMAC-SHA512 hex signature of the raw body.
func (h *Handlers) validGatewaySignature(body []byte, signature string) bool {
	if h.gatewaySecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.gatewaySecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VendorWebhookHandler receives delivery confirmations from VTU vendors and
// finalizes the matching pending ledger entry.
func (h *Handlers) VendorWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if h.vendorHookToken != "" {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+h.vendorHookToken {
			h.writeError(w, http.StatusUnauthorized, "Invalid webhook token")
			return
		}
	}

	var payload domain.VendorWebhookPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if payload.Transaction.Reference == "" {
		h.writeError(w, http.StatusBadRequest, "Missing transaction reference")
		return
	}

	err := h.service.HandleVendorEvent(r.Context(), payload)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			h.writeError(w, http.StatusNotFound, "Unknown transaction reference")
			return
		}
		if errors.Is(err, app.ErrMissingFields) {
			h.writeError(w, http.StatusBadRequest, "Missing transaction reference")
			return
		}
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}
