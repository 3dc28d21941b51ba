/**
 * @description
 * This file contains the wallet settlement engine: one purchase flow per
 * transaction type (data, airtime, electricity, cable, education pin), all
 * sharing the same skeleton. Each flow validates input, resolves the price,
 * checks funds, calls the vendor, and only on vendor-reported success debits
 * the wallet and appends a pending ledger entry.
 *
 * @dependencies
 * - internal/store: Repository interface and sentinel errors.
 * - internal/domain: purchase DTOs, ledger and vendor models.
 * - internal/metrics: purchase counters.
 * - internal/plankey: network/cable name resolution.
 * - pkg/rabbitmq: notification event publishing.
 *
 * @notes
 * - Ordering is strict: funds are checked before the vendor call, and the
 *   wallet is debited only after vendor success. A failed provider call never
 *   produces a debit or a ledger write.
 * - The debit is an atomic conditional decrement (checked under a row lock),
 *   so two concurrent purchases cannot both spend the same balance.
 * - The debit and the ledger write are two statements. The window between
 *   them is logged with audit=debit_window markers; a ledger failure inside
 *   it is reported as CRITICAL and surfaced as ErrLedgerWriteFailed rather
 *   than swallowed.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/metrics"
	"github.com/kobocharge/vtu-backend/internal/plankey"
	"github.com/kobocharge/vtu-backend/internal/store"
	"github.com/kobocharge/vtu-backend/pkg/rabbitmq"
)

// VendorClient is the adapter contract each upstream VTU vendor implements.
// Every purchase call returns the vendor's own success flag inside the
// VendorResult; transport errors are returned as Go errors.
type VendorClient interface {
	Name() string
	FetchCatalog(ctx context.Context) (json.RawMessage, error)
	BuyData(ctx context.Context, network int, mobileNumber string, planID int) (*domain.VendorResult, error)
	BuyAirtime(ctx context.Context, network int, mobileNumber string, amount int64) (*domain.VendorResult, error)
	BuyElectricity(ctx context.Context, discoName string, amount int64, meterNumber, meterType string) (*domain.VendorResult, error)
	BuyCable(ctx context.Context, cableName, cablePlan, smartCardNumber string) (*domain.VendorResult, error)
	BuyEducationPin(ctx context.Context, examName string, quantity int) (*domain.VendorResult, error)
}

// DVAAssigner requests dedicated virtual accounts from the payment gateway.
type DVAAssigner interface {
	RequestAssignment(ctx context.Context, email, firstName, lastName, phone string) error
}

// Service implements the application's business logic.
type Service struct {
	repo          store.Repository
	vendors       map[string]VendorClient
	defaultVendor string
	assigner      DVAAssigner
	publisher     rabbitmq.Publisher
	codes         *CodeStore
	metrics       *metrics.Metrics
}

// NewService creates a new Service with its dependencies.
func NewService(
	repo store.Repository,
	vendors map[string]VendorClient,
	defaultVendor string,
	assigner DVAAssigner,
	publisher rabbitmq.Publisher,
	codes *CodeStore,
	m *metrics.Metrics,
) *Service {
	if publisher == nil {
		publisher = &rabbitmq.EventProducerFallback{}
	}
	return &Service{
		repo:          repo,
		vendors:       vendors,
		defaultVendor: defaultVendor,
		assigner:      assigner,
		publisher:     publisher,
		codes:         codes,
		metrics:       m,
	}
}

// vendorFor resolves the vendor client for a pricing rule's provider, falling
// back to the configured default for flows that do not carry a provider.
func (s *Service) vendorFor(provider string) (VendorClient, error) {
	if provider != "" {
		if v, ok := s.vendors[provider]; ok {
			return v, nil
		}
	}
	if v, ok := s.vendors[s.defaultVendor]; ok {
		return v, nil
	}
	return nil, ErrVendorUnavailable
}

// purchase captures everything the shared settlement tail needs to debit the
// wallet and write the ledger entry after a successful vendor call.
type purchase struct {
	txType    string
	provider  string
	planLabel string
	amount    int64
	fee       int64
	total     int64
	number    string
}

// settle runs the shared purchase skeleton: load the user, check funds, call
// the vendor, then debit and log. The vendor's raw response is returned to the
// caller on both the success and the structured-failure path.
func (s *Service) settle(ctx context.Context, userID uuid.UUID, p purchase, call func(context.Context) (*domain.VendorResult, error)) (*domain.VendorResult, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		s.countPurchase(p.txType, "user_not_found")
		return nil, err
	}

	// Funds are checked strictly before the vendor call; a short wallet never
	// reaches the vendor.
	if user.Balance < p.total {
		s.countPurchase(p.txType, "insufficient_funds")
		return nil, store.ErrInsufficientFunds
	}

	result, err := call(ctx)
	if err != nil {
		s.countPurchase(p.txType, "vendor_error")
		return nil, fmt.Errorf("vendor call failed: %w", err)
	}
	if !result.Status {
		// Vendor-reported failure: wallet untouched, no ledger entry.
		s.countPurchase(p.txType, "vendor_rejected")
		return result, &VendorRejectedError{Result: result}
	}

	log.Printf("level=info component=settlement audit=debit_window state=enter user_id=%s type=%s total=%d reference=%q",
		userID, p.txType, p.total, result.Reference)

	if err := s.repo.DebitWallet(ctx, userID, p.total); err != nil {
		// The vendor has already fulfilled; this is the reconciliation gap.
		log.Printf("level=error component=settlement msg=\"CRITICAL: vendor succeeded but debit failed; manual reconciliation required\" user_id=%s type=%s total=%d reference=%q err=%v",
			userID, p.txType, p.total, result.Reference, err)
		s.countPurchase(p.txType, "debit_failed")
		return result, fmt.Errorf("%w: %v", ErrLedgerWriteFailed, err)
	}

	entry := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Reference: nullableRef(result.Reference),
		Type:      p.txType,
		Provider:  p.provider,
		PlanLabel: p.planLabel,
		Amount:    p.amount,
		Fee:       p.fee,
		Total:     p.total,
		Status:    domain.TxStatusPending, // webhook finalizes
		Number:    p.number,
		Response:  result.Raw,
	}
	if err := s.repo.CreateTransaction(ctx, entry); err != nil {
		log.Printf("level=error component=settlement msg=\"CRITICAL: wallet debited but ledger write failed; manual reconciliation required\" user_id=%s type=%s total=%d reference=%q err=%v",
			userID, p.txType, p.total, result.Reference, err)
		s.countPurchase(p.txType, "ledger_failed")
		return result, fmt.Errorf("%w: %v", ErrLedgerWriteFailed, err)
	}

	log.Printf("level=info component=settlement audit=debit_window state=exit user_id=%s type=%s total=%d reference=%q",
		userID, p.txType, p.total, result.Reference)

	s.countPurchase(p.txType, "success")
	return result, nil
}

// BuyData purchases a data bundle priced by the pricing rule for the
// submitted canonical plan key.
func (s *Service) BuyData(ctx context.Context, userID uuid.UUID, req domain.BuyDataRequest) (*domain.VendorResult, error) {
	if req.Network == 0 || req.MobileNumber == "" || req.PlanKey == "" || req.PlanID == 0 {
		return nil, ErrMissingFields
	}

	rule, err := s.repo.FindPricingRuleByKey(ctx, req.PlanKey)
	if err != nil {
		if err == store.ErrPricingRuleNotFound {
			s.countPurchase(domain.TxTypeData, "unpriced")
			return nil, ErrUnpricedPlan
		}
		return nil, err
	}
	if !rule.IsActive {
		s.countPurchase(domain.TxTypeData, "inactive")
		return nil, ErrPlanInactive
	}

	vendor, err := s.vendorFor(rule.Provider)
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, userID, purchase{
		txType:    domain.TxTypeData,
		provider:  rule.Provider,
		planLabel: rule.PlanLabel,
		amount:    rule.SellingPrice,
		fee:       0,
		total:     rule.SellingPrice,
		number:    req.MobileNumber,
	}, func(ctx context.Context) (*domain.VendorResult, error) {
		return vendor.BuyData(ctx, req.Network, req.MobileNumber, req.PlanID)
	})
}

// BuyAirtime purchases an airtime top-up. Airtime is priced by the raw amount
// minus a configured percentage discount from the charge table.
func (s *Service) BuyAirtime(ctx context.Context, userID uuid.UUID, req domain.BuyAirtimeRequest) (*domain.VendorResult, error) {
	if req.Network == 0 || req.MobileNumber == "" || req.Amount <= 0 {
		return nil, ErrMissingFields
	}

	var discountPct int64
	if charge, err := s.repo.FindChargeByType(ctx, domain.ChargeAirtime); err == nil {
		discountPct = charge.Amount
	} else if err != store.ErrChargeNotFound {
		return nil, err
	}
	debitAmount := req.Amount - (discountPct*req.Amount)/100

	vendor, err := s.vendorFor("")
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, userID, purchase{
		txType:    domain.TxTypeAirtime,
		provider:  plankey.NetworkName(req.Network),
		planLabel: fmt.Sprintf("%d airtime", req.Amount),
		amount:    req.Amount,
		fee:       discountPct,
		total:     debitAmount,
		number:    req.MobileNumber,
	}, func(ctx context.Context) (*domain.VendorResult, error) {
		return vendor.BuyAirtime(ctx, req.Network, req.MobileNumber, req.Amount)
	})
}

// BuyElectricity pays an electricity bill. The required total is the request
// amount plus the configured flat electricity charge.
func (s *Service) BuyElectricity(ctx context.Context, userID uuid.UUID, req domain.BuyElectricityRequest) (*domain.VendorResult, error) {
	if req.DiscoName == "" || req.MeterNumber == "" || req.MeterType == "" || req.Amount <= 0 {
		return nil, ErrMissingFields
	}

	var chargeAmount int64
	if charge, err := s.repo.FindChargeByType(ctx, domain.ChargeElectricity); err == nil {
		chargeAmount = charge.Amount
	} else if err != store.ErrChargeNotFound {
		return nil, err
	}

	vendor, err := s.vendorFor("")
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, userID, purchase{
		txType:    domain.TxTypeElectricity,
		provider:  req.DiscoName,
		planLabel: fmt.Sprintf("%d electricity", req.Amount),
		amount:    req.Amount,
		fee:       chargeAmount,
		total:     req.Amount + chargeAmount,
		number:    req.MeterNumber,
	}, func(ctx context.Context) (*domain.VendorResult, error) {
		return vendor.BuyElectricity(ctx, req.DiscoName, req.Amount, req.MeterNumber, req.MeterType)
	})
}

// BuyCable purchases a cable TV subscription priced by the pricing rule for
// the submitted canonical plan key.
func (s *Service) BuyCable(ctx context.Context, userID uuid.UUID, req domain.BuyCableRequest) (*domain.VendorResult, error) {
	if req.SmartCardNumber == "" || req.CablePlan == "" || req.PlanKey == "" || req.CableName == "" {
		return nil, ErrMissingFields
	}

	rule, err := s.repo.FindPricingRuleByKey(ctx, req.PlanKey)
	if err != nil {
		if err == store.ErrPricingRuleNotFound {
			s.countPurchase(domain.TxTypeCable, "unpriced")
			return nil, ErrUnpricedPlan
		}
		return nil, err
	}
	if rule.SellingPrice <= 0 {
		s.countPurchase(domain.TxTypeCable, "unpriced")
		return nil, ErrUnpricedPlan
	}
	if !rule.IsActive {
		s.countPurchase(domain.TxTypeCable, "inactive")
		return nil, ErrPlanInactive
	}

	vendor, err := s.vendorFor(rule.Provider)
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, userID, purchase{
		txType:    domain.TxTypeCable,
		provider:  rule.Provider,
		planLabel: rule.PlanLabel,
		amount:    rule.SellingPrice,
		fee:       0,
		total:     rule.SellingPrice,
		number:    req.SmartCardNumber,
	}, func(ctx context.Context) (*domain.VendorResult, error) {
		return vendor.BuyCable(ctx, req.CableName, req.CablePlan, req.SmartCardNumber)
	})
}

// BuyEducationPin purchases exam result-checker pins priced from the exam table.
func (s *Service) BuyEducationPin(ctx context.Context, userID uuid.UUID, req domain.BuyEducationPinRequest) (*domain.VendorResult, error) {
	if req.ExamName == "" || req.Quantity <= 0 {
		return nil, ErrMissingFields
	}

	exam, err := s.repo.FindExamByName(ctx, req.ExamName)
	if err != nil {
		if err == store.ErrExamNotFound {
			s.countPurchase(domain.TxTypeEducationPin, "unpriced")
			return nil, ErrUnpricedPlan
		}
		return nil, err
	}
	total := exam.Amount * int64(req.Quantity)

	vendor, err := s.vendorFor("")
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, userID, purchase{
		txType:    domain.TxTypeEducationPin,
		provider:  vendor.Name(),
		planLabel: fmt.Sprintf("%s x%d", exam.Name, req.Quantity),
		amount:    exam.Amount,
		fee:       0,
		total:     total,
		number:    user.Phone,
	}, func(ctx context.Context) (*domain.VendorResult, error) {
		return vendor.BuyEducationPin(ctx, req.ExamName, req.Quantity)
	})
}

// TransactionsForUser returns a user's ledger entries.
func (s *Service) TransactionsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	return s.repo.FindTransactionsByUserID(ctx, userID)
}

// AllTransactions returns the full ledger for administrative review.
func (s *Service) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

func (s *Service) countPurchase(txType, outcome string) {
	if s.metrics != nil {
		s.metrics.PurchaseRequests.WithLabelValues(txType, outcome).Inc()
	}
}

// nullableRef converts an empty vendor reference to NULL so the ledger's
// unique reference index admits reference-less purchases.
func nullableRef(reference string) *string {
	if reference == "" {
		return nil
	}
	return &reference
}
