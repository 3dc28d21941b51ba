/**
 * @description
 * This file defines the user-facing domain models: the wallet-owning user,
 * the dedicated virtual account attached to it for bank-transfer funding,
 * and the DVA assignment state machine.
 *
 * @notes
 * - Wallet balances are stored as `int64` whole naira. The upstream VTU vendors
 *   and the internal pricing rules all quote whole-naira amounts; only the
 *   payment gateway reports kobo, and those values are converted at the
 *   webhook boundary before they reach this model.
 * - The balance is mutated exclusively by the settlement engine (debit) and the
 *   webhook reconciler (credit). No other code path may write it.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DVA assignment states. A user moves none -> requested when they ask for a
// dedicated account, and requested -> assigned only when the gateway confirms
// the assignment. A failed assignment returns the user to none so they can retry.
const (
	DVAStateNone      = "none"
	DVAStateRequested = "requested"
	DVAStateAssigned  = "assigned"
)

// User represents an account holder and their wallet.
// This struct maps directly to the `users` table in the database.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	PINHash      *string   `json:"-"`
	Balance      int64     `json:"balance"` // whole naira
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	DVAState     string    `json:"dva_state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DedicatedAccount is the bank account descriptor assigned to a single user
// for wallet funding by transfer. The account number is the lookup key used
// to resolve the owning user when a funding webhook arrives.
type DedicatedAccount struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CustomerCode  string    `json:"customer_code"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	BankName      string    `json:"bank_name"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RegisterRequest is the DTO for new user registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest is the DTO for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
