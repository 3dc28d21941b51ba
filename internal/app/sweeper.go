/**
 * @description
 * This file contains the stale-settlement sweep: a scheduled job that finds
 * pending ledger entries whose vendor webhook never arrived and requeries the
 * vendor for their final status. Vendors that expose a transaction lookup
 * endpoint implement StatusChecker; entries on other vendors are only counted
 * and logged for operator attention.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: Job scheduling.
 * - internal/store: stale entry query and monotonic settlement.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/store"
	"github.com/robfig/cron/v3"
)

// StatusChecker is implemented by vendor clients that can be queried for the
// final status of a purchase by reference.
type StatusChecker interface {
	GetTransaction(ctx context.Context, reference string) (json.RawMessage, error)
}

// staleAfter is how long a pending entry may wait for its webhook before the
// sweep requeries the vendor.
const staleAfter = 15 * time.Minute

// SweepStaleSettlements requeries the vendor for every referenced pending
// entry older than the staleness window and finalizes those the vendor
// reports as terminal. Entries the vendor still reports in flight are left
// pending for the next sweep.
func (s *Service) SweepStaleSettlements(ctx context.Context) error {
	stale, err := s.repo.ListStalePendingTransactions(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	log.Printf("level=info component=sweeper msg=\"requerying stale pending entries\" count=%d", len(stale))

	for i := range stale {
		tx := &stale[i]
		vendor, ok := s.vendors[tx.Provider]
		if !ok {
			continue
		}
		checker, ok := vendor.(StatusChecker)
		if !ok {
			log.Printf("level=warn component=sweeper msg=\"vendor has no status lookup; entry needs manual review\" reference=%s provider=%s",
				*tx.Reference, tx.Provider)
			continue
		}

		raw, err := checker.GetTransaction(ctx, *tx.Reference)
		if err != nil {
			log.Printf("level=error component=sweeper msg=\"status lookup failed\" reference=%s err=%v", *tx.Reference, err)
			continue
		}

		status := parseVendorStatus(raw)
		if status != domain.TxStatusSuccess && status != domain.TxStatusFailed {
			continue
		}

		if _, err := s.repo.SettlePendingTransaction(ctx, *tx.Reference, status, raw); err != nil {
			if errors.Is(err, store.ErrTransactionFinalized) {
				// A webhook landed between the query and the update.
				continue
			}
			log.Printf("level=error component=sweeper msg=\"settlement failed\" reference=%s err=%v", *tx.Reference, err)
			continue
		}
		log.Printf("level=info component=sweeper msg=\"stale entry settled from vendor lookup\" reference=%s status=%s",
			*tx.Reference, status)

		if err := s.publisher.Publish(ctx, domain.EventKeyPurchaseSettled, domain.PurchaseSettledPayload{
			UserID:    tx.UserID,
			Reference: *tx.Reference,
			Type:      tx.Type,
			Status:    status,
			Total:     tx.Total,
		}); err != nil {
			log.Printf("level=error component=sweeper msg=\"failed to publish purchase.settled\" err=%v", err)
		}
	}
	return nil
}

// parseVendorStatus extracts the terminal status from a vendor transaction
// lookup response. Vendors report the delivery status either at the top level
// or nested under data.
func parseVendorStatus(raw []byte) string {
	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	status := envelope.Data.Status
	if status == "" {
		status = envelope.Status
	}
	switch status {
	case "success", "successful", "delivered":
		return domain.TxStatusSuccess
	case "failed", "reversed":
		return domain.TxStatusFailed
	default:
		return ""
	}
}

// StartSettlementSweeper schedules the stale-settlement sweep at the given
// interval and returns the running scheduler for shutdown.
func (s *Service) StartSettlementSweeper(every time.Duration) *cron.Cron {
	c := cron.New()
	c.Schedule(cron.Every(every), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.SweepStaleSettlements(ctx); err != nil {
			log.Printf("level=error component=sweeper msg=\"sweep failed\" err=%v", err)
		}
	}))
	c.Start()
	return c
}
