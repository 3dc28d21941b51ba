/**
 * @description
 * This file contains the webhook reconciliation logic: crediting wallets from
 * payment gateway `charge.success` events, completing or rolling back
 * dedicated-account assignments, and finalizing pending purchase ledger
 * entries from vendor delivery confirmations.
 *
 * @notes
 * - Funding is idempotent on the gateway reference: the ledger insert and the
 *   balance credit happen in one database transaction keyed on the reference,
 *   so a redelivered event can never credit twice.
 * - Vendor settlement is monotonic: only a `pending` ledger entry can move, and
 *   a redelivery after a terminal status is acknowledged without mutation.
 * - Gateway amounts arrive in kobo and are converted to whole naira here; the
 *   rest of the system never sees kobo.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/store"
)

// HandleGatewayEvent dispatches a verified payment-gateway webhook event.
// Unrecognized event types are logged and acknowledged.
func (s *Service) HandleGatewayEvent(ctx context.Context, event domain.GatewayEvent) error {
	s.countWebhook("gateway", event.Event)

	switch event.Event {
	case domain.EventChargeSuccess:
		return s.handleChargeSuccess(ctx, event.Data)
	case domain.EventDVAAssignSuccess:
		return s.handleDVAAssignSuccess(ctx, event.Data)
	case domain.EventDVAAssignFailed:
		return s.handleDVAAssignFailed(ctx, event.Data)
	default:
		log.Printf("level=info component=reconciler msg=\"ignoring unhandled gateway event\" event=%s", event.Event)
		return nil
	}
}

// handleChargeSuccess credits the wallet of the user who owns the destination
// dedicated account. The net credit is the gateway amount (converted from
// kobo) minus the configured flat funding fee.
func (s *Service) handleChargeSuccess(ctx context.Context, data json.RawMessage) error {
	var charge domain.ChargeSuccessData
	if err := json.Unmarshal(data, &charge); err != nil {
		return fmt.Errorf("failed to decode charge.success data: %w", err)
	}
	if charge.Reference == "" {
		return fmt.Errorf("charge.success event carries no reference")
	}

	accountNumber := charge.AccountNumber()
	if accountNumber == "" {
		return fmt.Errorf("charge.success %s carries no destination account number", charge.Reference)
	}

	user, err := s.repo.FindUserByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Printf("level=warn component=reconciler msg=\"funding for unknown account\" account_number=%s reference=%s",
				accountNumber, charge.Reference)
			return nil
		}
		return err
	}

	amount := charge.Amount / 100 // kobo -> naira

	var fee int64
	if c, err := s.repo.FindChargeByType(ctx, domain.ChargeFunding); err == nil {
		fee = c.Amount
	} else if !errors.Is(err, store.ErrChargeNotFound) {
		return err
	}
	credit := amount - fee
	if credit <= 0 {
		log.Printf("level=warn component=reconciler msg=\"funding below fee, skipping credit\" user_id=%s amount=%d fee=%d reference=%s",
			user.ID, amount, fee, charge.Reference)
		return nil
	}

	entry := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    user.ID,
		Reference: &charge.Reference,
		Type:      domain.TxTypeWallet,
		Provider:  domain.VendorPaystack,
		PlanLabel: "wallet funding",
		Amount:    amount,
		Fee:       fee,
		Total:     credit,
		Status:    domain.TxStatusSuccess,
		Number:    accountNumber,
		Response:  data,
	}
	created, err := s.repo.RecordFunding(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to record funding %s: %w", charge.Reference, err)
	}
	if !created {
		log.Printf("level=info component=reconciler msg=\"duplicate funding delivery ignored\" reference=%s", charge.Reference)
		return nil
	}

	if s.metrics != nil {
		s.metrics.WalletCredits.Inc()
	}
	log.Printf("level=info component=reconciler msg=\"wallet funded\" user_id=%s amount=%d fee=%d reference=%s",
		user.ID, credit, fee, charge.Reference)

	if err := s.publisher.Publish(ctx, domain.EventKeyWalletFunded, domain.WalletFundedPayload{
		UserID:    user.ID,
		Amount:    credit,
		Reference: charge.Reference,
	}); err != nil {
		log.Printf("level=error component=reconciler msg=\"failed to publish wallet.funded\" err=%v", err)
	}
	return nil
}

// handleDVAAssignSuccess stores the assigned account and flips the user's
// assignment state to assigned.
func (s *Service) handleDVAAssignSuccess(ctx context.Context, data json.RawMessage) error {
	var assign domain.DVAAssignData
	if err := json.Unmarshal(data, &assign); err != nil {
		return fmt.Errorf("failed to decode assignment data: %w", err)
	}
	if assign.Customer.Email == "" || assign.DedicatedAccount.AccountNumber == "" {
		return fmt.Errorf("assignment event missing customer email or account number")
	}

	user, err := s.repo.FindUserByEmail(ctx, assign.Customer.Email)
	if err != nil {
		return fmt.Errorf("failed to resolve assignment for %s: %w", assign.Customer.Email, err)
	}

	account := &domain.DedicatedAccount{
		ID:            uuid.New(),
		UserID:        user.ID,
		CustomerCode:  assign.Customer.CustomerCode,
		AccountNumber: assign.DedicatedAccount.AccountNumber,
		AccountName:   assign.DedicatedAccount.AccountName,
		BankName:      assign.DedicatedAccount.Bank.Name,
		Currency:      assign.DedicatedAccount.Currency,
	}
	if err := s.repo.SaveDedicatedAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to save dedicated account for %s: %w", user.ID, err)
	}

	log.Printf("level=info component=reconciler msg=\"dedicated account assigned\" user_id=%s account_number=%s bank=%q",
		user.ID, account.AccountNumber, account.BankName)

	if err := s.publisher.Publish(ctx, domain.EventKeyDVAAssigned, domain.DVAAssignedPayload{
		UserID:        user.ID,
		AccountNumber: account.AccountNumber,
		BankName:      account.BankName,
	}); err != nil {
		log.Printf("level=error component=reconciler msg=\"failed to publish dva.assigned\" err=%v", err)
	}
	return nil
}

// handleDVAAssignFailed releases the user's assignment reservation so a retry
// is possible.
func (s *Service) handleDVAAssignFailed(ctx context.Context, data json.RawMessage) error {
	var assign domain.DVAAssignData
	if err := json.Unmarshal(data, &assign); err != nil {
		return fmt.Errorf("failed to decode assignment failure data: %w", err)
	}
	if assign.Customer.Email == "" {
		return fmt.Errorf("assignment failure event missing customer email")
	}

	user, err := s.repo.FindUserByEmail(ctx, assign.Customer.Email)
	if err != nil {
		return fmt.Errorf("failed to resolve failed assignment for %s: %w", assign.Customer.Email, err)
	}
	if err := s.repo.ReleaseDVAReservation(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to release assignment reservation for %s: %w", user.ID, err)
	}

	log.Printf("level=warn component=reconciler msg=\"dedicated account assignment failed, reservation released\" user_id=%s", user.ID)
	return nil
}

// HandleVendorEvent finalizes the pending ledger entry named by a vendor
// delivery-confirmation webhook. A redelivery after the entry reached a
// terminal status is a no-op acknowledged as success; an unknown reference is
// reported as store.ErrTransactionNotFound so the transport layer can answer
// with a 404.
func (s *Service) HandleVendorEvent(ctx context.Context, payload domain.VendorWebhookPayload) error {
	reference := payload.Transaction.Reference
	if reference == "" {
		return ErrMissingFields
	}
	s.countWebhook("vendor", payload.Transaction.Status)

	status := domain.TxStatusFailed
	if payload.Transaction.Status == "success" {
		status = domain.TxStatusSuccess
	}

	response, _ := json.Marshal(payload)
	settled, err := s.repo.SettlePendingTransaction(ctx, reference, status, response)
	if err != nil {
		if errors.Is(err, store.ErrTransactionFinalized) {
			log.Printf("level=info component=reconciler msg=\"vendor redelivery for finalized entry ignored\" reference=%s", reference)
			return nil
		}
		return err
	}

	log.Printf("level=info component=reconciler msg=\"purchase settled\" reference=%s status=%s user_id=%s",
		reference, status, settled.UserID)

	if err := s.publisher.Publish(ctx, domain.EventKeyPurchaseSettled, domain.PurchaseSettledPayload{
		UserID:    settled.UserID,
		Reference: reference,
		Type:      settled.Type,
		Status:    status,
		Total:     settled.Total,
	}); err != nil {
		log.Printf("level=error component=reconciler msg=\"failed to publish purchase.settled\" err=%v", err)
	}
	return nil
}

func (s *Service) countWebhook(source, event string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(source, event).Inc()
	}
}
