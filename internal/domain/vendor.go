/**
 * @description
 * This file defines the typed boundary between the core engine and the upstream
 * VTU vendor clients. Vendor HTTP responses are loosely shaped trees; the
 * clients decode them into a VendorResult at the adapter boundary so the
 * settlement engine never handles untyped data.
 */

package domain

import "encoding/json"

// VendorResult is the normalized outcome of one vendor purchase call.
// Status is the vendor's own success flag, distinct from HTTP-level success:
// the settlement engine treats anything other than Status == true as a
// rejection regardless of the HTTP status code.
type VendorResult struct {
	OK        bool            `json:"ok"`     // transport-level success
	Status    bool            `json:"status"` // vendor-reported success
	Reference string          `json:"reference,omitempty"`
	Message   string          `json:"message,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"` // verbatim vendor payload
}

// BuyDataRequest is the DTO for a data bundle purchase.
type BuyDataRequest struct {
	Network      int    `json:"network"`
	MobileNumber string `json:"mobile_number"`
	PlanKey      string `json:"plan_key"`
	PlanID       int    `json:"plan_id"`
}

// BuyAirtimeRequest is the DTO for an airtime top-up.
type BuyAirtimeRequest struct {
	Network      int    `json:"network"`
	MobileNumber string `json:"mobile_number"`
	Amount       int64  `json:"amount"`
}

// BuyElectricityRequest is the DTO for an electricity bill payment.
type BuyElectricityRequest struct {
	DiscoName   string `json:"disco_name"`
	MeterNumber string `json:"meter_number"`
	MeterType   string `json:"meter_type"` // prepaid | postpaid
	Amount      int64  `json:"amount"`
}

// BuyCableRequest is the DTO for a cable TV subscription.
type BuyCableRequest struct {
	SmartCardNumber string `json:"smart_card_number"`
	CablePlan       string `json:"cableplan"`
	PlanKey         string `json:"plan_key"`
	CableName       string `json:"cablename"`
}

// BuyEducationPinRequest is the DTO for an exam result-checker pin purchase.
type BuyEducationPinRequest struct {
	ExamName string `json:"exam_name"`
	Quantity int    `json:"quantity"`
}
