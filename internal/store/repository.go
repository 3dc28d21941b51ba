/**
 * @description
 * This file defines the `Repository` interface, the contract for the data
 * access layer. The application service depends on this interface rather than
 * a concrete database implementation, which keeps the settlement and
 * reconciliation logic testable with in-memory fakes.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
)

// Repository defines the persistence operations required by the application.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateUserPIN(ctx context.Context, id uuid.UUID, pinHash string) error
	MarkUserVerified(ctx context.Context, id uuid.UUID) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]domain.User, error)

	// Wallet. DebitWallet applies an atomic conditional decrement: the balance
	// is checked and decremented under a row lock so two concurrent purchases
	// can never both pass the check against a stale balance.
	DebitWallet(ctx context.Context, userID uuid.UUID, amount int64) error
	CreditWallet(ctx context.Context, userID uuid.UUID, amount int64) error

	// Dedicated virtual accounts
	ReserveDVA(ctx context.Context, userID uuid.UUID) error
	ReleaseDVAReservation(ctx context.Context, userID uuid.UUID) error
	SaveDedicatedAccount(ctx context.Context, account *domain.DedicatedAccount) error
	FindUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error)
	FindDedicatedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.DedicatedAccount, error)

	// Pricing rules
	FindPricingRuleByKey(ctx context.Context, planKey string) (*domain.PricingRule, error)
	ListPricingRules(ctx context.Context) ([]domain.PricingRule, error)
	UpsertPricingRule(ctx context.Context, rule *domain.PricingRule) (created bool, err error)

	// Ledger
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	SettlePendingTransaction(ctx context.Context, reference, status string, response []byte) (*domain.Transaction, error)
	FindTransactionsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListStalePendingTransactions(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error)

	// RecordFunding inserts a funding ledger entry and credits the wallet in a
	// single database transaction. The insert is keyed on the gateway
	// reference; a duplicate delivery returns created=false and leaves the
	// balance untouched.
	RecordFunding(ctx context.Context, tx *domain.Transaction) (created bool, err error)

	// Charges and exams
	FindChargeByType(ctx context.Context, chargeType string) (*domain.Charge, error)
	UpsertCharge(ctx context.Context, charge *domain.Charge) error
	FindExamByName(ctx context.Context, name string) (*domain.Exam, error)
	ListExams(ctx context.Context) ([]domain.Exam, error)
	UpsertExam(ctx context.Context, exam *domain.Exam) error

	// Providers
	ListProviders(ctx context.Context) ([]domain.Provider, error)
	UpsertProvider(ctx context.Context, provider *domain.Provider) error
}
