/**
 * @description
 * This file contains the pricing-rule administration logic and the catalog
 * view assembly. Upserting a rule is the only path by which a price becomes
 * billable; vendor catalogs are never auto-priced. The catalog view fetches a
 * vendor's raw plan tree and runs it through the normalizer against the
 * current rules.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/catalog"
	"github.com/kobocharge/vtu-backend/internal/domain"
)

// UpsertPlanPrice creates or updates the pricing rule for a canonical plan
// key. Required fields missing is a validation failure with no write. The
// update does not retroactively touch ledger entries created at the prior
// price; the price at purchase time is captured into the transaction.
func (s *Service) UpsertPlanPrice(ctx context.Context, req domain.UpsertPricingRuleRequest) (*domain.UpsertPricingRuleResult, error) {
	if req.PlanKey == "" || req.Provider == "" || req.PlanLabel == "" || req.SellingPrice <= 0 {
		return nil, ErrMissingFields
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule := &domain.PricingRule{
		ID:           uuid.New(),
		PlanKey:      req.PlanKey,
		Provider:     req.Provider,
		PlanLabel:    req.PlanLabel,
		SellingPrice: req.SellingPrice,
		IsActive:     isActive,
	}
	created, err := s.repo.UpsertPricingRule(ctx, rule)
	if err != nil {
		return nil, err
	}
	return &domain.UpsertPricingRuleResult{Rule: rule, Created: created}, nil
}

// ListPlanPrices returns every configured pricing rule.
func (s *Service) ListPlanPrices(ctx context.Context) ([]domain.PricingRule, error) {
	return s.repo.ListPricingRules(ctx)
}

// CatalogView fetches a vendor's plan catalog and joins it against the
// pricing rules. Non-admin callers only see priced plans with internal fields
// stripped.
func (s *Service) CatalogView(ctx context.Context, provider string, isAdmin bool) ([]catalog.Record, error) {
	vendor, ok := s.vendors[provider]
	if !ok {
		return nil, ErrVendorUnavailable
	}

	raw, err := vendor.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch failed: %w", err)
	}

	var payload struct {
		Dataplans  interface{} `json:"Dataplans"`
		Cableplan  interface{} `json:"Cableplan"`
		Dataplans2 interface{} `json:"dataplans"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("catalog decode failed: %w", err)
	}

	rules, err := s.repo.ListPricingRules(ctx)
	if err != nil {
		return nil, err
	}
	ruleMap := make(map[string]*domain.PricingRule, len(rules))
	for i := range rules {
		ruleMap[rules[i].PlanKey] = &rules[i]
	}

	tree := payload.Dataplans
	if tree == nil {
		tree = payload.Dataplans2
	}
	views := catalog.Normalize(provider, tree, ruleMap, isAdmin)
	views = append(views, catalog.Normalize(provider, payload.Cableplan, ruleMap, isAdmin)...)
	return views, nil
}

// MeterValidator is implemented by vendor clients that can verify electricity
// meter and cable smartcard details ahead of a purchase.
type MeterValidator interface {
	ValidateMeter(ctx context.Context, meterNumber, discoName, meterType string) (json.RawMessage, error)
	ValidateIUC(ctx context.Context, smartCardNumber, cableName string) (json.RawMessage, error)
}

// ValidateMeter looks up an electricity meter with the vendor so the caller
// can confirm the holder's name before paying.
func (s *Service) ValidateMeter(ctx context.Context, provider, meterNumber, discoName, meterType string) (json.RawMessage, error) {
	if meterNumber == "" || discoName == "" || meterType == "" {
		return nil, ErrMissingFields
	}
	vendor, err := s.vendorFor(provider)
	if err != nil {
		return nil, err
	}
	validator, ok := vendor.(MeterValidator)
	if !ok {
		return nil, ErrVendorUnavailable
	}
	return validator.ValidateMeter(ctx, meterNumber, discoName, meterType)
}

// ValidateIUC looks up a cable smartcard (IUC) number with the vendor.
func (s *Service) ValidateIUC(ctx context.Context, provider, smartCardNumber, cableName string) (json.RawMessage, error) {
	if smartCardNumber == "" || cableName == "" {
		return nil, ErrMissingFields
	}
	vendor, err := s.vendorFor(provider)
	if err != nil {
		return nil, err
	}
	validator, ok := vendor.(MeterValidator)
	if !ok {
		return nil, ErrVendorUnavailable
	}
	return validator.ValidateIUC(ctx, smartCardNumber, cableName)
}

// Charges and exams administration.

// SetCharge creates or replaces the fee configuration for a charge type.
func (s *Service) SetCharge(ctx context.Context, chargeType string, amount int64) error {
	if chargeType == "" || amount < 0 {
		return ErrMissingFields
	}
	return s.repo.UpsertCharge(ctx, &domain.Charge{ID: uuid.New(), Type: chargeType, Amount: amount})
}

// SetExam creates or replaces an exam pin product.
func (s *Service) SetExam(ctx context.Context, name string, amount int64, isActive bool) error {
	if name == "" || amount <= 0 {
		return ErrMissingFields
	}
	return s.repo.UpsertExam(ctx, &domain.Exam{ID: uuid.New(), Name: name, Amount: amount, IsActive: isActive})
}

// ListExams returns every exam pin product.
func (s *Service) ListExams(ctx context.Context) ([]domain.Exam, error) {
	return s.repo.ListExams(ctx)
}

// ListProviders returns the vendor catalog in fallback priority order.
func (s *Service) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	return s.repo.ListProviders(ctx)
}

// SetProvider creates or replaces a vendor catalog entry.
func (s *Service) SetProvider(ctx context.Context, name string, isActive bool, priority int) error {
	if name == "" {
		return ErrMissingFields
	}
	return s.repo.UpsertProvider(ctx, &domain.Provider{ID: uuid.New(), Name: name, IsActive: isActive, Priority: priority})
}
