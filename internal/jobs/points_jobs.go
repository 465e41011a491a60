package jobs

import (
	"context"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
)

// ReconcileRefunds re-dispatches deposit refunds for recently cancelled
// meetups whose participants have no refund row. Refund tasks are
// deduplicated by ID: one that is still queued is left alone and one that
// was archived after exhausting its retries is run again.
func (jr *JobRunner) ReconcileRefunds() {
	jr.runWithRecovery("ReconcileRefunds", func() {
		ctx := context.Background()
		since := jr.clock.Now().Add(-time.Duration(jr.config.Scheduler.RefundLookbackDays) * 24 * time.Hour)

		meetups, err := jr.store.MeetupRepository.ListCancelledSince(ctx, since)
		if err != nil {
			logger.Error("Failed to list cancelled meetups", "error", err)
			return
		}

		dispatched := 0
		for _, m := range meetups {
			missing, err := jr.store.PointsRepository.ListMissingRefunds(ctx, m.ID)
			if err != nil {
				logger.Error("Failed to list missing refunds", "meetup_id", m.ID, "error", err)
				continue
			}
			for _, userID := range missing {
				req := domain.RefundRequest{UserID: userID, MeetupID: m.ID, Amount: m.DepositPoints}
				if err := jr.services.Dispatcher.DispatchRefund(ctx, req); err != nil {
					logger.Error("Failed to dispatch refund", "meetup_id", m.ID, "user_id", userID, "error", err)
					continue
				}
				dispatched++
			}
		}

		logger.Info("Reconciled refunds", "cancelled_meetups", len(meetups), "dispatched", dispatched)
	})
}
