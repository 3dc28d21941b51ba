package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
)

// checkableVendor is a fakeVendor that also answers status lookups.
type checkableVendor struct {
	fakeVendor
	lookup  json.RawMessage
	lookups int
}

func (v *checkableVendor) GetTransaction(context.Context, string) (json.RawMessage, error) {
	v.lookups++
	return v.lookup, nil
}

func stalePending(userID uuid.UUID, reference, provider string) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Reference: &reference,
		Type:      domain.TxTypeData,
		Provider:  provider,
		Status:    domain.TxStatusPending,
		Total:     300,
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestSweepSettlesStaleEntryFromVendorLookup(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 0)
	repo.transactions = append(repo.transactions, stalePending(user.ID, "VND-300", domain.VendorSmePlug))

	vendor := &checkableVendor{
		fakeVendor: fakeVendor{name: domain.VendorSmePlug},
		lookup:     json.RawMessage(`{"status":true,"data":{"status":"success"}}`),
	}
	vendors := map[string]VendorClient{vendor.name: vendor}
	svc := NewService(repo, vendors, vendor.name, nil, nil, nil, nil)

	if err := svc.SweepStaleSettlements(context.Background()); err != nil {
		t.Fatalf("sweep returned error: %v", err)
	}
	if vendor.lookups != 1 {
		t.Errorf("lookups = %d, want 1", vendor.lookups)
	}
	if got := repo.transactions[0].Status; got != domain.TxStatusSuccess {
		t.Errorf("status = %q, want success", got)
	}
}

func TestSweepLeavesInFlightEntryPending(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 0)
	repo.transactions = append(repo.transactions, stalePending(user.ID, "VND-301", domain.VendorSmePlug))

	vendor := &checkableVendor{
		fakeVendor: fakeVendor{name: domain.VendorSmePlug},
		lookup:     json.RawMessage(`{"status":true,"data":{"status":"processing"}}`),
	}
	vendors := map[string]VendorClient{vendor.name: vendor}
	svc := NewService(repo, vendors, vendor.name, nil, nil, nil, nil)

	if err := svc.SweepStaleSettlements(context.Background()); err != nil {
		t.Fatalf("sweep returned error: %v", err)
	}
	if got := repo.transactions[0].Status; got != domain.TxStatusPending {
		t.Errorf("status = %q, want pending", got)
	}
}

func TestSweepSkipsFreshAndUncheckableEntries(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 0)

	fresh := stalePending(user.ID, "VND-302", domain.VendorSmePlug)
	fresh.CreatedAt = time.Now()
	repo.transactions = append(repo.transactions, fresh)
	// Vendor without a status lookup endpoint.
	repo.transactions = append(repo.transactions, stalePending(user.ID, "VND-303", domain.VendorAlrahuz))

	checkable := &checkableVendor{
		fakeVendor: fakeVendor{name: domain.VendorSmePlug},
		lookup:     json.RawMessage(`{"status":true,"data":{"status":"success"}}`),
	}
	plain := &fakeVendor{name: domain.VendorAlrahuz}
	vendors := map[string]VendorClient{checkable.name: checkable, plain.name: plain}
	svc := NewService(repo, vendors, plain.name, nil, nil, nil, nil)

	if err := svc.SweepStaleSettlements(context.Background()); err != nil {
		t.Fatalf("sweep returned error: %v", err)
	}
	if checkable.lookups != 0 {
		t.Errorf("lookups = %d, want 0", checkable.lookups)
	}
	for i, tx := range repo.transactions {
		if tx.Status != domain.TxStatusPending {
			t.Errorf("transaction %d status = %q, want pending", i, tx.Status)
		}
	}
}
