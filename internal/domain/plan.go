/**
 * @description
 * This file defines the pricing-side domain models: the admin-controlled
 * pricing rule keyed by canonical plan key, the percentage/flat charge table,
 * exam pin products, and the upstream vendor catalog.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Known upstream vendor identifiers.
const (
	VendorAlrahuz  = "alrahuz"
	VendorSmePlug  = "smeplug"
	VendorBilal    = "bilalsadasub"
	VendorPaystack = "paystack"
)

// PricingRule maps a canonical plan key to the price charged to end users.
// It is the single source of truth for what a customer pays; vendor-reported
// prices are informational only and never used for billing.
type PricingRule struct {
	ID           uuid.UUID `json:"id"`
	PlanKey      string    `json:"plan_key"`
	Provider     string    `json:"provider"`
	PlanLabel    string    `json:"plan"`
	SellingPrice int64     `json:"selling_price"` // whole naira
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Charge is a configured fee, either a percentage (airtime discount) or a flat
// whole-naira amount (electricity surcharge, funding fee), looked up by type.
type Charge struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"` // airtime | electricity | funding
	Amount    int64     `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Charge types.
const (
	ChargeAirtime     = "airtime"
	ChargeElectricity = "electricity"
	ChargeFunding     = "funding"
)

// Exam is a purchasable education pin product with its unit price.
type Exam struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"` // WAEC | NECO | NABTEB
	Amount   int64     `json:"amount"`
	IsActive bool      `json:"is_active"`
}

// Provider is a catalog entry for an upstream vendor, read by administrative
// tooling to decide which vendor catalogs to query and in what fallback order.
type Provider struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
	Priority int       `json:"priority"`
}

// UpsertPricingRuleRequest is the DTO for the admin pricing endpoint.
type UpsertPricingRuleRequest struct {
	PlanKey      string `json:"plan_key"`
	Provider     string `json:"provider"`
	PlanLabel    string `json:"plan"`
	SellingPrice int64  `json:"selling_price"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

// UpsertPricingRuleResult reports whether the upsert created a new rule or
// updated an existing one, along with the resulting rule.
type UpsertPricingRuleResult struct {
	Rule    *PricingRule `json:"plan"`
	Created bool         `json:"created"`
}
