package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/store"
)

func chargeSuccessEvent(reference, accountNumber string, amountKobo int64) domain.GatewayEvent {
	data := fmt.Sprintf(`{
		"reference": %q,
		"amount": %d,
		"authorization": {"receiver_bank_account_number": %q}
	}`, reference, amountKobo, accountNumber)
	return domain.GatewayEvent{Event: domain.EventChargeSuccess, Data: json.RawMessage(data)}
}

func seedFundedUser(repo *fakeRepo, accountNumber string) *domain.User {
	user := seedUser(repo, 0)
	user.DVAState = domain.DVAStateAssigned
	repo.accounts[user.ID] = &domain.DedicatedAccount{
		ID:            uuid.New(),
		UserID:        user.ID,
		AccountNumber: accountNumber,
		BankName:      "Wema Bank",
		Currency:      "NGN",
	}
	return user
}

func TestChargeSuccessCreditsOnceOnDoubleDelivery(t *testing.T) {
	repo := newFakeRepo()
	user := seedFundedUser(repo, "9912345678")
	repo.charges[domain.ChargeFunding] = &domain.Charge{
		ID: uuid.New(), Type: domain.ChargeFunding, Amount: 20,
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	event := chargeSuccessEvent("FW-1", "9912345678", 50000) // 500 naira in kobo
	if err := svc.HandleGatewayEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery returned error: %v", err)
	}
	if err := svc.HandleGatewayEvent(context.Background(), event); err != nil {
		t.Fatalf("second delivery returned error: %v", err)
	}

	// 500 naira minus the 20 naira funding fee, credited exactly once.
	if got := repo.users[user.ID].Balance; got != 480 {
		t.Errorf("balance = %d, want 480", got)
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(repo.transactions))
	}
	tx := repo.transactions[0]
	if tx.Type != domain.TxTypeWallet || tx.Status != domain.TxStatusSuccess {
		t.Errorf("type/status = %s/%s, want wallet/success", tx.Type, tx.Status)
	}
	if tx.Amount != 500 || tx.Fee != 20 || tx.Total != 480 {
		t.Errorf("amount/fee/total = %d/%d/%d, want 500/20/480", tx.Amount, tx.Fee, tx.Total)
	}
}

func TestChargeSuccessUnknownAccountIgnored(t *testing.T) {
	repo := newFakeRepo()
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	event := chargeSuccessEvent("FW-2", "0000000000", 50000)
	if err := svc.HandleGatewayEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown account returned error: %v", err)
	}
	if len(repo.transactions) != 0 {
		t.Errorf("transactions = %d, want 0", len(repo.transactions))
	}
}

func TestDVAAssignSuccessSavesAccountAndAdvancesState(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 0)
	user.DVAState = domain.DVAStateRequested
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	data := fmt.Sprintf(`{
		"customer": {"email": %q, "customer_code": "CUS_x1"},
		"dedicated_account": {
			"account_number": "9900112233",
			"account_name": "Ada Obi",
			"currency": "NGN",
			"bank": {"name": "Wema Bank"}
		}
	}`, user.Email)
	event := domain.GatewayEvent{Event: domain.EventDVAAssignSuccess, Data: json.RawMessage(data)}
	if err := svc.HandleGatewayEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleGatewayEvent returned error: %v", err)
	}

	if got := repo.users[user.ID].DVAState; got != domain.DVAStateAssigned {
		t.Errorf("dva_state = %q, want assigned", got)
	}
	acct := repo.accounts[user.ID]
	if acct == nil || acct.AccountNumber != "9900112233" || acct.BankName != "Wema Bank" {
		t.Errorf("saved account = %+v, want 9900112233 at Wema Bank", acct)
	}
}

func TestDVAAssignFailedReleasesReservation(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 0)
	user.DVAState = domain.DVAStateRequested
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	data := fmt.Sprintf(`{"customer": {"email": %q}}`, user.Email)
	event := domain.GatewayEvent{Event: domain.EventDVAAssignFailed, Data: json.RawMessage(data)}
	if err := svc.HandleGatewayEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleGatewayEvent returned error: %v", err)
	}
	if got := repo.users[user.ID].DVAState; got != domain.DVAStateNone {
		t.Errorf("dva_state = %q, want none", got)
	}
}

func TestVendorEventFinalizesPendingEntry(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 0)
	ref := "VND-100"
	repo.transactions = append(repo.transactions, &domain.Transaction{
		ID: uuid.New(), UserID: user.ID, Reference: &ref,
		Type: domain.TxTypeData, Status: domain.TxStatusPending, Total: 300,
	})
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	var payload domain.VendorWebhookPayload
	payload.Transaction.Reference = ref
	payload.Transaction.Status = "success"
	if err := svc.HandleVendorEvent(context.Background(), payload); err != nil {
		t.Fatalf("HandleVendorEvent returned error: %v", err)
	}
	if got := repo.transactions[0].Status; got != domain.TxStatusSuccess {
		t.Errorf("status = %q, want success", got)
	}

	// Redelivery after the terminal status is acknowledged without mutation.
	payload.Transaction.Status = "failed"
	if err := svc.HandleVendorEvent(context.Background(), payload); err != nil {
		t.Fatalf("redelivery returned error: %v", err)
	}
	if got := repo.transactions[0].Status; got != domain.TxStatusSuccess {
		t.Errorf("status after redelivery = %q, want success", got)
	}
}

func TestVendorEventUnknownReference(t *testing.T) {
	repo := newFakeRepo()
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	var payload domain.VendorWebhookPayload
	payload.Transaction.Reference = "NO-SUCH-REF"
	payload.Transaction.Status = "success"
	err := svc.HandleVendorEvent(context.Background(), payload)
	if !errors.Is(err, store.ErrTransactionNotFound) {
		t.Fatalf("error = %v, want ErrTransactionNotFound", err)
	}
}

func TestVendorEventFailureStatusMarksFailed(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 0)
	ref := "VND-101"
	repo.transactions = append(repo.transactions, &domain.Transaction{
		ID: uuid.New(), UserID: user.ID, Reference: &ref,
		Type: domain.TxTypeData, Status: domain.TxStatusPending, Total: 300,
	})
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	var payload domain.VendorWebhookPayload
	payload.Transaction.Reference = ref
	payload.Transaction.Status = "failed"
	if err := svc.HandleVendorEvent(context.Background(), payload); err != nil {
		t.Fatalf("HandleVendorEvent returned error: %v", err)
	}
	if got := repo.transactions[0].Status; got != domain.TxStatusFailed {
		t.Errorf("status = %q, want failed", got)
	}
}
