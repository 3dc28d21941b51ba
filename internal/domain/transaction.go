/**
 * @description
 * This file defines the ledger entry model and its type/status vocabularies.
 * A Transaction records exactly one funds movement: a purchase debit (created
 * at `pending` and finalized by a vendor webhook) or a wallet funding credit
 * (created directly at `success`, since the funding webhook only fires after
 * the money has landed).
 *
 * @notes
 * - `Reference` is the idempotency key for reconciliation. It is unique in the
 *   database; purchases where the vendor supplied no reference store NULL so
 *   the uniqueness constraint still holds across such rows.
 * - Status transitions are monotonic: pending -> {success, failed, reversed}.
 *   Terminal rows are never mutated again.
 */

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Transaction types.
const (
	TxTypeData         = "data"
	TxTypeAirtime      = "airtime"
	TxTypeElectricity  = "electricity"
	TxTypeCable        = "cable"
	TxTypeEducationPin = "education_pin"
	TxTypeWallet       = "wallet"
)

// Transaction statuses.
const (
	TxStatusPending  = "pending"
	TxStatusSuccess  = "success"
	TxStatusFailed   = "failed"
	TxStatusReversed = "reversed"
)

// Transaction is the immutable-once-terminal ledger record for one funds movement.
// This struct maps directly to the `transactions` table in the database.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Reference *string         `json:"reference,omitempty"` // nil when the vendor supplied none
	Type      string          `json:"type"`
	Provider  string          `json:"provider"`
	PlanLabel string          `json:"plan_label"` // human-readable description of what was bought
	Amount    int64           `json:"amount"`     // face value of the product, whole naira
	Fee       int64           `json:"fee"`        // whole naira
	Total     int64           `json:"total"`      // amount actually moved out of / into the wallet
	Status    string          `json:"status"`
	Number    string          `json:"number"` // destination identifier: phone, meter or smartcard number
	Response  json.RawMessage `json:"response,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the transaction has reached a final status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TxStatusSuccess || t.Status == TxStatusFailed || t.Status == TxStatusReversed
}
