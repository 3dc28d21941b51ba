/**
 * @description
 * This file defines the application-level error taxonomy. Validation and
 * pricing failures are sentinel errors so the API layer can map them to HTTP
 * statuses with errors.Is; a vendor rejection is a structured error carrying
 * the vendor's payload verbatim so the client can explain the failure to the
 * end user.
 */

package app

import (
	"errors"
	"fmt"

	"github.com/kobocharge/vtu-backend/internal/domain"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrUnpricedPlan       = errors.New("plan price missing")
	ErrPlanInactive       = errors.New("plan is not active")
	ErrVendorUnavailable  = errors.New("no vendor configured for this purchase")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrInvalidPIN         = errors.New("old pin is incorrect")
	ErrInvalidPassword    = errors.New("old password is incorrect")

	// ErrLedgerWriteFailed marks the paid-for-but-unbilled window: the vendor
	// confirmed the purchase but the debit or ledger write did not land. Rows
	// in this state need administrative reconciliation.
	ErrLedgerWriteFailed = errors.New("vendor purchase succeeded but settlement write failed")
)

// VendorRejectedError is returned when the upstream vendor reports failure for
// a purchase call. It carries the vendor's response so the API layer can
// surface it to the caller.
type VendorRejectedError struct {
	Result *domain.VendorResult
}

func (e *VendorRejectedError) Error() string {
	if e.Result != nil && e.Result.Message != "" {
		return fmt.Sprintf("vendor rejected purchase: %s", e.Result.Message)
	}
	return "vendor rejected purchase"
}
