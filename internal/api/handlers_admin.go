/**
 * @description
 * This file contains the HTTP handlers for the administrative endpoints:
 * pricing rule management, charge and exam configuration, provider records,
 * user administration, and the full ledger view.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
)

// UpsertPricingRuleHandler creates or updates the price for a plan key. The
// response distinguishes a create (201) from an update (200).
func (h *Handlers) UpsertPricingRuleHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertPricingRuleRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.UpsertPlanPrice(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, result)
}

// ListPricingRulesHandler returns every configured pricing rule.
func (h *Handlers) ListPricingRulesHandler(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListPlanPrices(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if rules == nil {
		rules = []domain.PricingRule{}
	}
	h.writeJSON(w, http.StatusOK, rules)
}

// SetChargeHandler configures the fee for a charge type.
func (h *Handlers) SetChargeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   string `json:"type"`
		Amount int64  `json:"amount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetCharge(r.Context(), req.Type, req.Amount); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Charge updated"})
}

// SetExamHandler configures an exam pin product.
func (h *Handlers) SetExamHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Amount   int64  `json:"amount"`
		IsActive *bool  `json:"is_active"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if err := h.service.SetExam(r.Context(), req.Name, req.Amount, active); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Exam updated"})
}

// ListExamsHandler returns every exam pin product.
func (h *Handlers) ListExamsHandler(w http.ResponseWriter, r *http.Request) {
	exams, err := h.service.ListExams(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if exams == nil {
		exams = []domain.Exam{}
	}
	h.writeJSON(w, http.StatusOK, exams)
}

// SetProviderHandler configures a vendor record.
func (h *Handlers) SetProviderHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		IsActive *bool  `json:"is_active"`
		Priority int    `json:"priority"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if err := h.service.SetProvider(r.Context(), req.Name, active, req.Priority); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Provider updated"})
}

// ListProvidersHandler returns the configured vendor records.
func (h *Handlers) ListProvidersHandler(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.ListProviders(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if providers == nil {
		providers = []domain.Provider{}
	}
	h.writeJSON(w, http.StatusOK, providers)
}

// ListUsersHandler returns every user account.
func (h *Handlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// SetUserActiveHandler enables or disables a user account.
func (h *Handlers) SetUserActiveHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetUserActive(r.Context(), userID, req.IsActive); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

// DeleteUserHandler removes a user account. Ledger entries are retained.
func (h *Handlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// ListAllTransactionsHandler returns the full ledger.
func (h *Handlers) ListAllTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.AllTransactions(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, transactions)
}
