/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL for users, wallets, dedicated accounts,
 * pricing rules, the transaction ledger, charges, exams, and providers.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 *
 * @notes
 * - DebitWallet locks the user row with FOR UPDATE and checks the balance
 *   inside the same transaction, so a concurrent purchase cannot observe a
 *   stale balance and overdraw the wallet.
 * - RecordFunding performs the ledger insert and the wallet credit in one
 *   database transaction; the insert is `ON CONFLICT (reference) DO NOTHING`,
 *   which makes redelivered funding webhooks a no-op.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kobocharge/vtu-backend/internal/domain"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrPricingRuleNotFound  = errors.New("pricing rule not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrAccountNotFound      = errors.New("dedicated account not found")
	ErrChargeNotFound       = errors.New("charge not found")
	ErrExamNotFound         = errors.New("exam not found")
	ErrDVAAlreadyRequested  = errors.New("dedicated account request already in flight")
	ErrTransactionFinalized = errors.New("transaction already in a terminal state")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, pin_hash, balance, is_admin, is_active, is_verified, dva_state, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash, &user.PINHash,
		&user.Balance, &user.IsAdmin, &user.IsActive, &user.IsVerified, &user.DVAState,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user row.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, balance, is_admin, is_active, is_verified, dva_state)
		VALUES ($1, $2, lower(btrim($3)), $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.Phone, user.PasswordHash,
		user.Balance, user.IsAdmin, user.IsActive, user.IsVerified, user.DVAState,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// FindUserByID retrieves a user from the database by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindUserByEmail retrieves a user from the database by their email.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower(btrim($1))`, email))
}

// UpdateUserPassword replaces the stored password hash for a user.
func (r *PostgresRepository) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserPIN replaces the stored transaction PIN hash for a user.
func (r *PostgresRepository) UpdateUserPIN(ctx context.Context, id uuid.UUID, pinHash string) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET pin_hash = $1, updated_at = NOW() WHERE id = $2`, pinHash, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MarkUserVerified flags a user's email as confirmed.
func (r *PostgresRepository) MarkUserVerified(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserActive toggles a user's active flag.
func (r *PostgresRepository) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user row. The ledger is retained: transactions keep
// their user_id but the foreign key is not cascading, so history survives
// account deletion.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns every user, newest first.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// DebitWallet performs an atomic conditional debit on a user's wallet.
func (r *PostgresRepository) DebitWallet(ctx context.Context, userID uuid.UUID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var balance int64
	// Use FOR UPDATE to lock the row, preventing race conditions.
	err = tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrUserNotFound
		}
		return err
	}

	if balance < amount {
		return ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `UPDATE users SET balance = balance - $1, updated_at = NOW() WHERE id = $2`, amount, userID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreditWallet performs an atomic credit on a user's wallet.
func (r *PostgresRepository) CreditWallet(ctx context.Context, userID uuid.UUID, amount int64) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, amount, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ReserveDVA moves a user from the `none` to the `requested` assignment state.
// The conditional WHERE makes concurrent reservation attempts race-safe: only
// one request can win the transition, the rest observe ErrDVAAlreadyRequested.
func (r *PostgresRepository) ReserveDVA(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET dva_state = $1, updated_at = NOW() WHERE id = $2 AND dva_state = $3`,
		domain.DVAStateRequested, userID, domain.DVAStateNone,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		var state string
		if err := r.db.QueryRow(ctx, `SELECT dva_state FROM users WHERE id = $1`, userID).Scan(&state); err != nil {
			if err == pgx.ErrNoRows {
				return ErrUserNotFound
			}
			return err
		}
		return ErrDVAAlreadyRequested
	}
	return nil
}

// ReleaseDVAReservation returns a user to the `none` state after a failed or
// abandoned assignment so they may retry.
func (r *PostgresRepository) ReleaseDVAReservation(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET dva_state = $1, updated_at = NOW() WHERE id = $2 AND dva_state = $3`,
		domain.DVAStateNone, userID, domain.DVAStateRequested,
	)
	return err
}

// SaveDedicatedAccount upserts the account descriptor for a user and marks the
// user's assignment state as `assigned` in the same database transaction.
func (r *PostgresRepository) SaveDedicatedAccount(ctx context.Context, account *domain.DedicatedAccount) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO dedicated_accounts (id, user_id, customer_code, account_number, account_name, bank_name, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			customer_code = EXCLUDED.customer_code,
			account_number = EXCLUDED.account_number,
			account_name = EXCLUDED.account_name,
			bank_name = EXCLUDED.bank_name,
			currency = EXCLUDED.currency,
			updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query,
		account.ID, account.UserID, account.CustomerCode, account.AccountNumber,
		account.AccountName, account.BankName, account.Currency,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET dva_state = $1, updated_at = NOW() WHERE id = $2`,
		domain.DVAStateAssigned, account.UserID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindUserByAccountNumber resolves a funding webhook's destination account
// number to the owning user.
func (r *PostgresRepository) FindUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = (SELECT user_id FROM dedicated_accounts WHERE account_number = $1)
	`
	return scanUser(r.db.QueryRow(ctx, query, accountNumber))
}

// FindDedicatedAccountByUserID returns a user's assigned account, if any.
func (r *PostgresRepository) FindDedicatedAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.DedicatedAccount, error) {
	var account domain.DedicatedAccount
	query := `
		SELECT id, user_id, customer_code, account_number, account_name, bank_name, currency, created_at, updated_at
		FROM dedicated_accounts
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&account.ID, &account.UserID, &account.CustomerCode, &account.AccountNumber,
		&account.AccountName, &account.BankName, &account.Currency, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindPricingRuleByKey retrieves the pricing rule for a canonical plan key.
func (r *PostgresRepository) FindPricingRuleByKey(ctx context.Context, planKey string) (*domain.PricingRule, error) {
	var rule domain.PricingRule
	query := `SELECT id, plan_key, provider, plan_label, selling_price, is_active, updated_at FROM pricing_rules WHERE plan_key = $1`
	err := r.db.QueryRow(ctx, query, planKey).Scan(
		&rule.ID, &rule.PlanKey, &rule.Provider, &rule.PlanLabel, &rule.SellingPrice, &rule.IsActive, &rule.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPricingRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// ListPricingRules returns every pricing rule.
func (r *PostgresRepository) ListPricingRules(ctx context.Context) ([]domain.PricingRule, error) {
	rows, err := r.db.Query(ctx, `SELECT id, plan_key, provider, plan_label, selling_price, is_active, updated_at FROM pricing_rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.PricingRule
	for rows.Next() {
		var rule domain.PricingRule
		if err := rows.Scan(&rule.ID, &rule.PlanKey, &rule.Provider, &rule.PlanLabel, &rule.SellingPrice, &rule.IsActive, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpsertPricingRule creates or updates the rule for a plan key and reports
// whether a new row was created. Price history is not retained: an update is
// last-write-wins on selling_price and is_active.
func (r *PostgresRepository) UpsertPricingRule(ctx context.Context, rule *domain.PricingRule) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var existingID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM pricing_rules WHERE plan_key = $1 FOR UPDATE`, rule.PlanKey).Scan(&existingID)
	switch {
	case err == pgx.ErrNoRows:
		_, err = tx.Exec(ctx, `
			INSERT INTO pricing_rules (id, plan_key, provider, plan_label, selling_price, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, rule.ID, rule.PlanKey, rule.Provider, rule.PlanLabel, rule.SellingPrice, rule.IsActive)
		if err != nil {
			return false, err
		}
		return true, tx.Commit(ctx)
	case err != nil:
		return false, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE pricing_rules
		SET selling_price = $1, is_active = $2, updated_at = NOW()
		WHERE id = $3
	`, rule.SellingPrice, rule.IsActive, existingID)
	if err != nil {
		return false, err
	}
	rule.ID = existingID
	return false, tx.Commit(ctx)
}

const transactionColumns = `id, user_id, reference, type, provider, plan_label, amount, fee, total, status, number, response, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Reference, &tx.Type, &tx.Provider, &tx.PlanLabel,
		&tx.Amount, &tx.Fee, &tx.Total, &tx.Status, &tx.Number, &tx.Response,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// CreateTransaction appends a ledger entry. A nil Reference stores SQL NULL so
// the unique index still admits multiple reference-less purchase rows.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, reference, type, provider, plan_label, amount, fee, total, status, number, response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		tx.ID, tx.UserID, tx.Reference, tx.Type, tx.Provider, tx.PlanLabel,
		tx.Amount, tx.Fee, tx.Total, tx.Status, tx.Number, tx.Response,
	)
	return err
}

// FindTransactionByReference looks up a ledger entry by its vendor reference.
func (r *PostgresRepository) FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE reference = $1`, reference))
}

// SettlePendingTransaction transitions a pending ledger entry to a terminal
// status and stores the vendor's final payload. The `status = 'pending'`
// guard makes the transition monotonic: a row already in a terminal state is
// never touched, and the caller observes ErrTransactionFinalized.
func (r *PostgresRepository) SettlePendingTransaction(ctx context.Context, reference, status string, response []byte) (*domain.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $1, response = COALESCE($2, response), updated_at = NOW()
		WHERE reference = $3 AND status = $4
		RETURNING ` + transactionColumns + `
	`
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, status, response, reference, domain.TxStatusPending))
	if err == ErrTransactionNotFound {
		// Distinguish "no such reference" from "already terminal".
		if _, lookupErr := r.FindTransactionByReference(ctx, reference); lookupErr == nil {
			return nil, ErrTransactionFinalized
		}
		return nil, ErrTransactionNotFound
	}
	return tx, err
}

// FindTransactionsByUserID returns a user's ledger entries, newest first.
func (r *PostgresRepository) FindTransactionsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactions returns the full ledger, newest first.
func (r *PostgresRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListStalePendingTransactions returns referenced pending entries created
// before the cutoff. These are purchases whose vendor webhook never arrived.
func (r *PostgresRepository) ListStalePendingTransactions(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE status = 'pending' AND reference IS NOT NULL AND created_at < $1
		ORDER BY created_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

// RecordFunding inserts a funding ledger entry and credits the wallet in one
// database transaction, keyed on the gateway reference for idempotency.
func (r *PostgresRepository) RecordFunding(ctx context.Context, fundingTx *domain.Transaction) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO transactions (id, user_id, reference, type, provider, plan_label, amount, fee, total, status, number, response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (reference) DO NOTHING
	`
	result, err := tx.Exec(ctx, query,
		fundingTx.ID, fundingTx.UserID, fundingTx.Reference, fundingTx.Type, fundingTx.Provider,
		fundingTx.PlanLabel, fundingTx.Amount, fundingTx.Fee, fundingTx.Total, fundingTx.Status,
		fundingTx.Number, fundingTx.Response,
	)
	if err != nil {
		return false, err
	}
	if result.RowsAffected() == 0 {
		// Duplicate delivery; the original already credited the wallet.
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance + $1, updated_at = NOW() WHERE id = $2`,
		fundingTx.Total, fundingTx.UserID,
	); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

// FindChargeByType returns the configured fee row for a charge type.
func (r *PostgresRepository) FindChargeByType(ctx context.Context, chargeType string) (*domain.Charge, error) {
	var charge domain.Charge
	err := r.db.QueryRow(ctx,
		`SELECT id, type, amount, updated_at FROM charges WHERE type = $1`, chargeType,
	).Scan(&charge.ID, &charge.Type, &charge.Amount, &charge.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrChargeNotFound
		}
		return nil, err
	}
	return &charge, nil
}

// UpsertCharge creates or replaces the fee row for a charge type.
func (r *PostgresRepository) UpsertCharge(ctx context.Context, charge *domain.Charge) error {
	query := `
		INSERT INTO charges (id, type, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (type) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, charge.ID, charge.Type, charge.Amount)
	return err
}

// FindExamByName returns an active exam product by name.
func (r *PostgresRepository) FindExamByName(ctx context.Context, name string) (*domain.Exam, error) {
	var exam domain.Exam
	err := r.db.QueryRow(ctx,
		`SELECT id, name, amount, is_active FROM exams WHERE name = $1 AND is_active = TRUE`, name,
	).Scan(&exam.ID, &exam.Name, &exam.Amount, &exam.IsActive)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// ListExams returns every exam product.
func (r *PostgresRepository) ListExams(ctx context.Context) ([]domain.Exam, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, amount, is_active FROM exams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []domain.Exam
	for rows.Next() {
		var exam domain.Exam
		if err := rows.Scan(&exam.ID, &exam.Name, &exam.Amount, &exam.IsActive); err != nil {
			return nil, err
		}
		exams = append(exams, exam)
	}
	return exams, rows.Err()
}

// UpsertExam creates or replaces an exam product by name.
func (r *PostgresRepository) UpsertExam(ctx context.Context, exam *domain.Exam) error {
	query := `
		INSERT INTO exams (id, name, amount, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET amount = EXCLUDED.amount, is_active = EXCLUDED.is_active
	`
	_, err := r.db.Exec(ctx, query, exam.ID, exam.Name, exam.Amount, exam.IsActive)
	return err
}

// ListProviders returns the vendor catalog in fallback priority order.
func (r *PostgresRepository) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, is_active, priority FROM providers ORDER BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []domain.Provider
	for rows.Next() {
		var provider domain.Provider
		if err := rows.Scan(&provider.ID, &provider.Name, &provider.IsActive, &provider.Priority); err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

// UpsertProvider creates or replaces a vendor catalog entry by name.
func (r *PostgresRepository) UpsertProvider(ctx context.Context, provider *domain.Provider) error {
	query := `
		INSERT INTO providers (id, name, is_active, priority)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET is_active = EXCLUDED.is_active, priority = EXCLUDED.priority
	`
	_, err := r.db.Exec(ctx, query, provider.ID, provider.Name, provider.IsActive, provider.Priority)
	return err
}
