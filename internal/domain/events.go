/**
 * @description
 * This file defines the inbound webhook envelopes from the payment gateway and
 * the VTU vendors, plus the outbound RabbitMQ event payloads published to the
 * notification fanout when balances or account assignments change.
 */

package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Payment gateway webhook event names.
const (
	EventChargeSuccess    = "charge.success"
	EventDVAAssignSuccess = "dedicatedaccount.assign.success"
	EventDVAAssignFailed  = "dedicatedaccount.assign.failed"
)

// GatewayEvent is the envelope of a payment-gateway webhook delivery.
type GatewayEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChargeSuccessData carries the fields of a `charge.success` event that
// reconciliation depends on. Amount is in kobo as reported by the gateway.
type ChargeSuccessData struct {
	Reference     string `json:"reference"`
	Amount        int64  `json:"amount"` // kobo
	Authorization struct {
		ReceiverBankAccountNumber string `json:"receiver_bank_account_number"`
	} `json:"authorization"`
	Metadata struct {
		ReceiverAccountNumber string `json:"receiver_account_number"`
	} `json:"metadata"`
}

// AccountNumber returns the destination account number of a funding event,
// preferring the authorization block over metadata.
func (d *ChargeSuccessData) AccountNumber() string {
	if d.Authorization.ReceiverBankAccountNumber != "" {
		return d.Authorization.ReceiverBankAccountNumber
	}
	return d.Metadata.ReceiverAccountNumber
}

// DVAAssignData carries the fields of a dedicated-account assignment event.
type DVAAssignData struct {
	Customer struct {
		Email        string `json:"email"`
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
	DedicatedAccount struct {
		AccountNumber string `json:"account_number"`
		AccountName   string `json:"account_name"`
		Currency      string `json:"currency"`
		Bank          struct {
			Name string `json:"name"`
		} `json:"bank"`
	} `json:"dedicated_account"`
}

// VendorWebhookPayload is the body of a vendor delivery-confirmation webhook.
type VendorWebhookPayload struct {
	Transaction struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
		Raw       json.RawMessage `json:"-"`
	} `json:"transaction"`
}

// Routing keys for events published to the notification fanout.
const (
	EventKeyWalletFunded     = "wallet.funded"
	EventKeyDVAAssigned      = "dva.assigned"
	EventKeyPurchaseSettled  = "purchase.settled"
	EventKeyVerificationCode = "user.verification.code"
)

// WalletFundedPayload is published after a funding credit lands.
type WalletFundedPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"` // net credit, whole naira
	Reference string    `json:"reference"`
}

// DVAAssignedPayload is published after a dedicated account is saved.
type DVAAssignedPayload struct {
	UserID        uuid.UUID `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
}

// PurchaseSettledPayload is published when a pending ledger entry reaches a
// terminal status via the vendor webhook.
type PurchaseSettledPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Reference string    `json:"reference"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Total     int64     `json:"total"`
}

// VerificationCodePayload is published so the notification consumer can email
// a one-time verification code to the user.
type VerificationCodePayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
