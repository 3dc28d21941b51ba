/**
 * @description
 * This file contains the HTTP handlers for the purchase endpoints. Handlers
 * are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act
 * as the bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/app"
	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/store"
)

// Handlers holds the application service that handlers will use.
type Handlers struct {
	service         *app.Service
	jwtSecret       string
	gatewaySecret   string
	vendorHookToken string
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service, jwtSecret, gatewaySecret, vendorHookToken string) *Handlers {
	return &Handlers{
		service:         service,
		jwtSecret:       jwtSecret,
		gatewaySecret:   gatewaySecret,
		vendorHookToken: vendorHookToken,
	}
}

// requireUser pulls the authenticated user ID off the context, answering 401
// when the auth middleware did not set one.
func (h *Handlers) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "User not authenticated")
	}
	return userID, ok
}

// decode parses the JSON request body, answering 400 on malformed input.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writePurchaseOutcome maps a settlement result to the HTTP response. A
// vendor-reported rejection surfaces the vendor's message with a 400 so the
// client can show it; everything else goes through the shared error mapping.
func (h *Handlers) writePurchaseOutcome(w http.ResponseWriter, result *domain.VendorResult, err error) {
	if err == nil {
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	var rejected *app.VendorRejectedError
	if errors.As(err, &rejected) {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Purchase was rejected by the provider",
			"vendor": rejected.Result,
		})
		return
	}
	h.writeServiceError(w, err)
}

// writeServiceError maps application and store errors to HTTP statuses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrMissingFields):
		h.writeError(w, http.StatusBadRequest, "Required fields are missing")
	case errors.Is(err, app.ErrUnpricedPlan):
		h.writeError(w, http.StatusBadRequest, "Selected plan is not available for purchase")
	case errors.Is(err, app.ErrPlanInactive):
		h.writeError(w, http.StatusBadRequest, "Selected plan is currently disabled")
	case errors.Is(err, store.ErrInsufficientFunds):
		h.writeError(w, http.StatusBadRequest, "Insufficient wallet balance")
	case errors.Is(err, app.ErrVendorUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "Provider is currently unavailable")
	case errors.Is(err, app.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, app.ErrAccountDisabled):
		h.writeError(w, http.StatusForbidden, "Account is disabled")
	case errors.Is(err, app.ErrInvalidCode):
		h.writeError(w, http.StatusBadRequest, "Invalid or expired verification code")
	case errors.Is(err, app.ErrInvalidPIN):
		h.writeError(w, http.StatusUnauthorized, "Invalid transaction PIN")
	case errors.Is(err, app.ErrInvalidPassword):
		h.writeError(w, http.StatusUnauthorized, "Incorrect current password")
	case errors.Is(err, store.ErrDuplicateEmail):
		h.writeError(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, store.ErrDVAAlreadyRequested):
		h.writeError(w, http.StatusConflict, "A funding account request is already in progress")
	case errors.Is(err, store.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, store.ErrTransactionNotFound):
		h.writeError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, app.ErrLedgerWriteFailed):
		h.writeError(w, http.StatusInternalServerError, "Purchase completed but could not be recorded; support has been notified")
	default:
		log.Printf("level=error component=api msg=\"unhandled service error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

// BuyDataHandler handles data bundle purchases.
func (h *Handlers) BuyDataHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req domain.BuyDataRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.BuyData(r.Context(), userID, req)
	h.writePurchaseOutcome(w, result, err)
}

// BuyAirtimeHandler handles airtime top-up purchases.
func (h *Handlers) BuyAirtimeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req domain.BuyAirtimeRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.BuyAirtime(r.Context(), userID, req)
	h.writePurchaseOutcome(w, result, err)
}

// BuyElectricityHandler handles electricity bill payments.
func (h *Handlers) BuyElectricityHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req domain.BuyElectricityRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.BuyElectricity(r.Context(), userID, req)
	h.writePurchaseOutcome(w, result, err)
}

// BuyCableHandler handles cable TV subscription purchases.
func (h *Handlers) BuyCableHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req domain.BuyCableRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.BuyCable(r.Context(), userID, req)
	h.writePurchaseOutcome(w, result, err)
}

// BuyEducationPinHandler handles exam pin purchases.
func (h *Handlers) BuyEducationPinHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req domain.BuyEducationPinRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.BuyEducationPin(r.Context(), userID, req)
	h.writePurchaseOutcome(w, result, err)
}

// ListTransactionsHandler returns the authenticated user's ledger entries.
func (h *Handlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	transactions, err := h.service.TransactionsForUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// CatalogHandler returns the priced plan catalog for a provider. Admin tokens
// additionally see unpriced plans and internal pricing fields.
func (h *Handlers) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = domain.VendorAlrahuz
	}
	records, err := h.service.CatalogView(r.Context(), provider, IsAdmin(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// ValidateMeterHandler verifies an electricity meter with the vendor and
// returns the vendor's customer record verbatim.
func (h *Handlers) ValidateMeterHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw, err := h.service.ValidateMeter(r.Context(), q.Get("provider"), q.Get("meter_number"), q.Get("disco_name"), q.Get("meter_type"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// ValidateIUCHandler verifies a cable smartcard number with the vendor.
func (h *Handlers) ValidateIUCHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw, err := h.service.ValidateIUC(r.Context(), q.Get("provider"), q.Get("smart_card_number"), q.Get("cable_name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
