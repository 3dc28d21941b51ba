package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kobocharge/vtu-backend/internal/domain"
)

func TestUpsertPlanPriceCreateThenUpdate(t *testing.T) {
	repo := newFakeRepo()
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	req := domain.UpsertPricingRuleRequest{
		PlanKey:      "alrahuz:MTN:SME:1GB:30",
		Provider:     domain.VendorAlrahuz,
		PlanLabel:    "MTN SME 1GB 30 days",
		SellingPrice: 300,
	}
	created, err := svc.UpsertPlanPrice(context.Background(), req)
	if err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}
	if !created.Created {
		t.Error("first upsert: Created = false, want true")
	}

	req.SellingPrice = 350
	updated, err := svc.UpsertPlanPrice(context.Background(), req)
	if err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}
	if updated.Created {
		t.Error("second upsert: Created = true, want false")
	}
	if updated.Rule.ID != created.Rule.ID {
		t.Errorf("rule ID changed across update: %s -> %s", created.Rule.ID, updated.Rule.ID)
	}
	if got := repo.rules[req.PlanKey].SellingPrice; got != 350 {
		t.Errorf("stored selling price = %d, want 350", got)
	}
}

func TestUpsertPlanPriceDoesNotTouchPriorLedgerEntries(t *testing.T) {
	repo := newFakeRepo()
	user := seedUser(repo, 1000)
	repo.rules["alrahuz:MTN:SME:1GB:30"] = &domain.PricingRule{
		ID: uuid.New(), PlanKey: "alrahuz:MTN:SME:1GB:30", Provider: domain.VendorAlrahuz,
		PlanLabel: "MTN SME 1GB 30 days", SellingPrice: 300, IsActive: true,
	}
	vendor := &fakeVendor{name: domain.VendorAlrahuz, result: okResult("VND-200")}
	svc := newTestService(repo, vendor)

	_, err := svc.BuyData(context.Background(), user.ID, domain.BuyDataRequest{
		Network: 1, MobileNumber: "08030000000", PlanKey: "alrahuz:MTN:SME:1GB:30", PlanID: 42,
	})
	if err != nil {
		t.Fatalf("BuyData returned error: %v", err)
	}

	_, err = svc.UpsertPlanPrice(context.Background(), domain.UpsertPricingRuleRequest{
		PlanKey:      "alrahuz:MTN:SME:1GB:30",
		Provider:     domain.VendorAlrahuz,
		PlanLabel:    "MTN SME 1GB 30 days",
		SellingPrice: 500,
	})
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	// The ledger entry keeps the price at purchase time.
	if got := repo.transactions[0].Total; got != 300 {
		t.Errorf("ledger total = %d, want 300", got)
	}
}

func TestUpsertPlanPriceValidation(t *testing.T) {
	repo := newFakeRepo()
	vendor := &fakeVendor{name: domain.VendorAlrahuz}
	svc := newTestService(repo, vendor)

	cases := []struct {
		name string
		req  domain.UpsertPricingRuleRequest
	}{
		{"missing key", domain.UpsertPricingRuleRequest{Provider: "alrahuz", PlanLabel: "x", SellingPrice: 100}},
		{"missing provider", domain.UpsertPricingRuleRequest{PlanKey: "a:b:c", PlanLabel: "x", SellingPrice: 100}},
		{"missing label", domain.UpsertPricingRuleRequest{PlanKey: "a:b:c", Provider: "alrahuz", SellingPrice: 100}},
		{"zero price", domain.UpsertPricingRuleRequest{PlanKey: "a:b:c", Provider: "alrahuz", PlanLabel: "x"}},
		{"negative price", domain.UpsertPricingRuleRequest{PlanKey: "a:b:c", Provider: "alrahuz", PlanLabel: "x", SellingPrice: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpsertPlanPrice(context.Background(), tc.req); err != ErrMissingFields {
				t.Errorf("error = %v, want ErrMissingFields", err)
			}
			if len(repo.rules) != 0 {
				t.Errorf("rules written = %d, want 0", len(repo.rules))
			}
		})
	}
}
