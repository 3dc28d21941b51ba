/**
 * @description
 * This file contains the HTTP handlers for account endpoints: registration,
 * login, email verification, password and PIN management, profile retrieval,
 * and dedicated funding account requests.
 */

package api

import (
	"net/http"
	"time"

	"github.com/kobocharge/vtu-backend/internal/domain"
)

const tokenTTL = 24 * time.Hour

// RegisterHandler creates a new account and triggers a verification email.
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// LoginHandler authenticates a user and issues a bearer token.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	token, err := GenerateToken(h.jwtSecret, user.ID, user.IsAdmin, tokenTTL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RequestCodeHandler issues a fresh verification code to an account's email.
func (h *Handlers) RequestCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.RequestVerificationCode(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent"})
}

// VerifyEmailHandler consumes a verification code and marks the account verified.
func (h *Handlers) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified"})
}

// ResetPasswordHandler replaces a forgotten password, gated on a verification code.
func (h *Handlers) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// ChangePasswordHandler replaces a signed-in user's password.
func (h *Handlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// SetPINHandler sets the transaction PIN, gated on a verification code.
func (h *Handlers) SetPINHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code"`
		PIN  string `json:"pin"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetPIN(r.Context(), userID, req.Code, req.PIN); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction PIN set"})
}

// ProfileHandler returns the account record and any assigned funding account.
func (h *Handlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	user, account, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":              user,
		"dedicated_account": account,
	})
}

// RequestDVAHandler asks the payment gateway to assign a dedicated funding
// account to the authenticated user. The assignment completes asynchronously
// via webhook, so this answers 202.
func (h *Handlers) RequestDVAHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.service.RequestDedicatedAccount(r.Context(), userID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Funding account requested; you will be notified once it is assigned",
	})
}
