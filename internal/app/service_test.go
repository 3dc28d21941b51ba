package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/store"
)

// fakeRepo is an in-memory store.Repository for exercising the settlement and
// reconciliation flows without a database.
type fakeRepo struct {
	users        map[uuid.UUID]*domain.User
	accounts     map[uuid.UUID]*domain.DedicatedAccount
	rules        map[string]*domain.PricingRule
	charges      map[string]*domain.Charge
	exams        map[string]*domain.Exam
	transactions []*domain.Transaction

	debitErr  error
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[uuid.UUID]*domain.User),
		accounts: make(map[uuid.UUID]*domain.DedicatedAccount),
		rules:    make(map[string]*domain.PricingRule),
		charges:  make(map[string]*domain.Charge),
		exams:    make(map[string]*domain.Exam),
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, u *domain.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) FindUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeRepo) UpdateUserPassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeRepo) UpdateUserPIN(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.PINHash = &hash
	return nil
}

func (f *fakeRepo) MarkUserVerified(_ context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeRepo) SetUserActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeRepo) DeleteUser(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	delete(f.accounts, id)
	return nil
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeRepo) DebitWallet(_ context.Context, id uuid.UUID, amount int64) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if u.Balance < amount {
		return store.ErrInsufficientFunds
	}
	u.Balance -= amount
	return nil
}

func (f *fakeRepo) CreditWallet(_ context.Context, id uuid.UUID, amount int64) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Balance += amount
	return nil
}

func (f *fakeRepo) ReserveDVA(_ context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if u.DVAState != domain.DVAStateNone {
		return store.ErrDVAAlreadyRequested
	}
	u.DVAState = domain.DVAStateRequested
	return nil
}

func (f *fakeRepo) ReleaseDVAReservation(_ context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if u.DVAState == domain.DVAStateRequested {
		u.DVAState = domain.DVAStateNone
	}
	return nil
}

func (f *fakeRepo) SaveDedicatedAccount(_ context.Context, account *domain.DedicatedAccount) error {
	u, ok := f.users[account.UserID]
	if !ok {
		return store.ErrUserNotFound
	}
	f.accounts[account.UserID] = account
	u.DVAState = domain.DVAStateAssigned
	return nil
}

func (f *fakeRepo) FindUserByAccountNumber(_ context.Context, accountNumber string) (*domain.User, error) {
	for userID, acct := range f.accounts {
		if acct.AccountNumber == accountNumber {
			return f.FindUserByID(context.Background(), userID)
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeRepo) FindDedicatedAccountByUserID(_ context.Context, id uuid.UUID) (*domain.DedicatedAccount, error) {
	acct, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeRepo) FindPricingRuleByKey(_ context.Context, key string) (*domain.PricingRule, error) {
	r, ok := f.rules[key]
	if !ok {
		return nil, store.ErrPricingRuleNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRepo) ListPricingRules(_ context.Context) ([]domain.PricingRule, error) {
	out := make([]domain.PricingRule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) UpsertPricingRule(_ context.Context, rule *domain.PricingRule) (bool, error) {
	existing, ok := f.rules[rule.PlanKey]
	if ok {
		rule.ID = existing.ID
		f.rules[rule.PlanKey] = rule
		return false, nil
	}
	f.rules[rule.PlanKey] = rule
	return true, nil
}

func (f *fakeRepo) CreateTransaction(_ context.Context, tx *domain.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.transactions = append(f.transactions, tx)
	return nil
}

func (f *fakeRepo) FindTransactionByReference(_ context.Context, reference string) (*domain.Transaction, error) {
	for _, tx := range f.transactions {
		if tx.Reference != nil && *tx.Reference == reference {
			return tx, nil
		}
	}
	return nil, store.ErrTransactionNotFound
}

func (f *fakeRepo) SettlePendingTransaction(_ context.Context, reference, status string, response []byte) (*domain.Transaction, error) {
	for _, tx := range f.transactions {
		if tx.Reference == nil || *tx.Reference != reference {
			continue
		}
		if tx.Status != domain.TxStatusPending {
			return nil, store.ErrTransactionFinalized
		}
		tx.Status = status
		tx.Response = response
		return tx, nil
	}
	return nil, store.ErrTransactionNotFound
}

func (f *fakeRepo) FindTransactionsByUserID(_ context.Context, id uuid.UUID) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range f.transactions {
		if tx.UserID == id {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(f.transactions))
	for _, tx := range f.transactions {
		out = append(out, *tx)
	}
	return out, nil
}

func (f *fakeRepo) ListStalePendingTransactions(_ context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range f.transactions {
		if tx.Status == domain.TxStatusPending && tx.Reference != nil && tx.CreatedAt.Before(cutoff) {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeRepo) RecordFunding(_ context.Context, tx *domain.Transaction) (bool, error) {
	if tx.Reference != nil {
		for _, existing := range f.transactions {
			if existing.Reference != nil && *existing.Reference == *tx.Reference {
				return false, nil
			}
		}
	}
	f.transactions = append(f.transactions, tx)
	u, ok := f.users[tx.UserID]
	if !ok {
		return false, store.ErrUserNotFound
	}
	u.Balance += tx.Total
	return true, nil
}

func (f *fakeRepo) FindChargeByType(_ context.Context, chargeType string) (*domain.Charge, error) {
	c, ok := f.charges[chargeType]
	if !ok {
		return nil, store.ErrChargeNotFound
	}
	return c, nil
}

func (f *fakeRepo) UpsertCharge(_ context.Context, charge *domain.Charge) error {
	f.charges[charge.Type] = charge
	return nil
}

func (f *fakeRepo) FindExamByName(_ context.Context, name string) (*domain.Exam, error) {
	e, ok := f.exams[name]
	if !ok {
		return nil, store.ErrExamNotFound
	}
	return e, nil
}

func (f *fakeRepo) ListExams(_ context.Context) ([]domain.Exam, error) {
	out := make([]domain.Exam, 0, len(f.exams))
	for _, e := range f.exams {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeRepo) UpsertExam(_ context.Context, exam *domain.Exam) error {
	f.exams[exam.Name] = exam
	return nil
}

func (f *fakeRepo) ListProviders(_ context.Context) ([]domain.Provider, error) {
	return nil, nil
}

func (f *fakeRepo) UpsertProvider(_ context.Context, _ *domain.Provider) error {
	return nil
}

// fakeVendor counts calls and returns a canned result.
type fakeVendor struct {
	name   string
	result *domain.VendorResult
	err    error
	calls  int
}

func (v *fakeVendor) Name() string { return v.name }

func (v *fakeVendor) FetchCatalog(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (v *fakeVendor) call() (*domain.VendorResult, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.result, nil
}

func (v *fakeVendor) BuyData(context.Context, int, string, int) (*domain.VendorResult, error) {
	return v.call()
}

func (v *fakeVendor) BuyAirtime(context.Context, int, string, int64) (*domain.VendorResult, error) {
	return v.call()
}

func (v *fakeVendor) BuyElectricity(context.Context, string, int64, string, string) (*domain.VendorResult, error) {
	return v.call()
}

func (v *fakeVendor) BuyCable(context.Context, string, string, string) (*domain.VendorResult, error) {
	return v.call()
}

func (v *fakeVendor) BuyEducationPin(context.Context, string, int) (*domain.VendorResult, error) {
	return v.call()
}

func okResult(reference string) *domain.VendorResult {
	return &domain.VendorResult{
		OK:        true,
		Status:    true,
		Reference: reference,
		Message:   "successful",
		Raw:       json.RawMessage(`{"status":true}`),
	}
}

func newTestService(repo *fakeRepo, vendor *fakeVendor) *Service {
	vendors := map[string]VendorClient{vendor.name: vendor}
	return NewService(repo, vendors, vendor.name, nil, nil, nil, nil)
}

func seedUser(repo *fakeRepo, balance int64) *domain.User {
	u := &domain.User{
		ID:       uuid.New(),
		Name:     "Ada Obi",
		Email:    "ada@example.com",
		Phone:    "08030000000",
		Balance:  balance,
		IsActive: true,
		DVAState: domain.DVAStateNone,
	}
	repo.users[u.ID] = u
	return u
}

func TestBuyDataDebitsAndRecordsPending(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	repo.rules["alrahuz:MTN:SME:1GB:30"] = &domain.PricingRule{
		ID:           uuid.New(),
		PlanKey:      "alrahuz:MTN:SME:1GB:30",
		Provider:     domain.VendorAlrahuz,
		PlanLabel:    "MTN SME 1GB 30 days",
		SellingPrice: 300,
		IsActive:     true,
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-001")}
	svc := newTestService(repo, vendor)

	result, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network:      1,
		MobileNumber: "08030000000",
		PlanKey:      "alrahuz:MTN:SME:1GB:30",
		PlanID:       42,
	})
	if err != nil {
		t.Fatalf("BuyData returned error: %v", err)
	}
	if !result.Status {
		t.Fatal("expected vendor success result")
	}
	if got := repo.users[user.ID].Balance; got != 700 {
		t.Errorf("balance = %d, want 700", got)
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(repo.transactions))
	}
	tx := repo.transactions[0]
	if tx.Status != domain.TxStatusPending {
		t.Errorf("status = %q, want pending", tx.Status)
	}
	if tx.Total != 300 {
		t.Errorf("total = %d, want 300", tx.Total)
	}
	if tx.Reference == nil || *tx.Reference != "VND-001" {
		t.Errorf("reference = %v, want VND-001", tx.Reference)
	}
}

func TestBuyDataVendorRejectionLeavesWalletUntouched(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	repo.rules["alrahuz:MTN:SME:1GB:30"] = &domain.PricingRule{
		ID: uuid.New(), PlanKey: "alrahuz:MTN:SME:1GB:30", Provider: domain.VendorAlrahuz,
		PlanLabel: "MTN SME 1GB 30 days", SellingPrice: 300, IsActive: true,
	}
	vendor := &fakeVendor{
		name:   domain.VendorAlrahuz,
		result: &domain.VendorResult{OK: true, Status: false, Message: "insufficient vendor balance"},
	}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network: 1, MobileNumber: "08030000000", PlanKey: "alrahuz:MTN:SME:1GB:30", PlanID: 42,
	})
	var rejected *VendorRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error = %v, want VendorRejectedError", err)
	}
	if got := repo.users[user.ID].Balance; got != 1000 {
		t.Errorf("balance = %d, want unchanged 1000", got)
	}
	if len(repo.transactions) != 0 {
		t.Errorf("transactions = %d, want 0", len(repo.transactions))
	}
}

func TestBuyDataUnpricedPlanNeverCallsVendor(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-002")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network: 1, MobileNumber: "08030000000", PlanKey: "alrahuz:MTN:SME:2GB:30", PlanID: 43,
	})
	if !errors.Is(err, ErrUnpricedPlan) {
		t.Fatalf("error = %v, want ErrUnpricedPlan", err)
	}
	if vendor.calls != 0 {
		t.Errorf("vendor calls = %d, want 0", vendor.calls)
	}
}

func TestBuyDataInsufficientFundsNeverCallsVendor(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 100)
	repo.rules["alrahuz:MTN:SME:1GB:30"] = &domain.PricingRule{
		ID: uuid.New(), PlanKey: "alrahuz:MTN:SME:1GB:30", Provider: domain.VendorAlrahuz,
		PlanLabel: "MTN SME 1GB 30 days", SellingPrice: 300, IsActive: true,
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-003")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network: 1, MobileNumber: "08030000000", PlanKey: "alrahuz:MTN:SME:1GB:30", PlanID: 42,
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if vendor.calls != 0 {
		t.Errorf("vendor calls = %d, want 0", vendor.calls)
	}
}

func TestBuyDataInactivePlanRejected(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	repo.rules["alrahuz:MTN:SME:1GB:30"] = &domain.PricingRule{
		ID: uuid.New(), PlanKey: "alrahuz:MTN:SME:1GB:30", Provider: domain.VendorAlrahuz,
		PlanLabel: "MTN SME 1GB 30 days", SellingPrice: 300, IsActive: false,
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-004")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network: 1, MobileNumber: "08030000000", PlanKey: "alrahuz:MTN:SME:1GB:30", PlanID: 42,
	})
	if !errors.Is(err, ErrPlanInactive) {
		t.Fatalf("error = %v, want ErrPlanInactive", err)
	}
	if vendor.calls != 0 {
		t.Errorf("vendor calls = %d, want 0", vendor.calls)
	}
}

func TestBuyAirtimeAppliesDiscount(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	repo.charges[domain.ChargeAirtime] = &domain.Charge{
		ID: uuid.New(), Type: domain.ChargeAirtime, Amount: 2, // 2% discount
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-005")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyAirtime(context.Background(), user.ID, domain.BuyAirtimeRequest{
		Network: 1, MobileNumber: "08030000000", Amount: 500,
	})
	if err != nil {
		t.Fatalf("BuyAirtime returned error: %v", err)
	}
	// 500 - 2% of 500 = 490 debited
	if got := repo.users[user.ID].Balance; got != 510 {
		t.Errorf("balance = %d, want 510", got)
	}
	tx := repo.transactions[0]
	if tx.Amount != 500 || tx.Total != 490 {
		t.Errorf("amount/total = %d/%d, want 500/490", tx.Amount, tx.Total)
	}
}

func TestBuyElectricityChecksFundsAgainstTotalWithCharge(t *testing.T) {
	repo := newFakeRepo()
	// Balance covers the face amount but not amount+charge.
	user := seedUser(repo, 1000)
	repo.charges[domain.ChargeElectricity] = &domain.Charge{
		ID: uuid.New(), Type: domain.ChargeElectricity, Amount: 100,
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-006")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyElectricity(context.Background(), user.ID, domain.BuyElectricityRequest{
		DiscoName: "Ikeja Electric", MeterNumber: "45028", MeterType: "PREPAID", Amount: 1000,
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if vendor.calls != 0 {
		t.Errorf("vendor calls = %d, want 0", vendor.calls)
	}

	repo.users[user.ID].Balance = 1100
	_, err = svc.BuyElectricity(context.Background(), user.ID, domain.BuyElectricityRequest{
		DiscoName: "Ikeja Electric", MeterNumber: "45028", MeterType: "PREPAID", Amount: 1000,
	})
	if err != nil {
		t.Fatalf("BuyElectricity returned error: %v", err)
	}
	if got := repo.users[user.ID].Balance; got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestBuyEducationPinMultipliesQuantity(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 5000)
	repo.exams["WAEC"] = &domain.Exam{ID: uuid.New(), Name: "WAEC", Amount: 1200, IsActive: true}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-007")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyEducationPin(context.Background(), user.ID, domain.BuyEducationPinRequest{
		ExamName: "WAEC", Quantity: 3,
	})
	if err != nil {
		t.Fatalf("BuyEducationPin returned error: %v", err)
	}
	if got := repo.users[user.ID].Balance; got != 1400 {
		t.Errorf("balance = %d, want 1400", got)
	}
	if tx := repo.transactions[0]; tx.Total != 3600 {
		t.Errorf("total = %d, want 3600", tx.Total)
	}
}

func TestSettleEmptyVendorReferenceStoredAsNil(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	repo.rules["alrahuz:MTN:SME:1GB:30"] = &domain.PricingRule{
		ID: uuid.New(), PlanKey: "alrahuz:MTN:SME:1GB:30", Provider: domain.VendorAlrahuz,
		PlanLabel: "MTN SME 1GB 30 days", SellingPrice: 300, IsActive: true,
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network: 1, MobileNumber: "08030000000", PlanKey: "alrahuz:MTN:SME:1GB:30", PlanID: 42,
	})
	if err != nil {
		t.Fatalf("BuyData returned error: %v", err)
	}
	if repo.transactions[0].Reference != nil {
		t.Errorf("reference = %v, want nil", repo.transactions[0].Reference)
	}
}

func TestSettleLedgerFailureReportedNotSwallowed(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	repo.rules["alrahuz:MTN:SME:1GB:30"] = &domain.PricingRule{
		ID: uuid.New(), PlanKey: "alrahuz:MTN:SME:1GB:30", Provider: domain.VendorAlrahuz,
		PlanLabel: "MTN SME 1GB 30 days", SellingPrice: 300, IsActive: true,
	}
	repo.createErr = errors.New("disk full")
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-008")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network: 1, MobileNumber: "08030000000", PlanKey: "alrahuz:MTN:SME:1GB:30", PlanID: 42,
	})
	if !errors.Is(err, ErrLedgerWriteFailed) {
		t.Fatalf("error = %v, want ErrLedgerWriteFailed", err)
	}
	// The debit went through before the ledger failure.
	if got := repo.users[user.ID].Balance; got != 700 {
		t.Errorf("balance = %d, want 700", got)
	}
}
