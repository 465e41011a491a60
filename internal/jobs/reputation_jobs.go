package jobs

import (
	"context"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
)

// ReconcileReputation re-applies reputation events that were lost when the
// score update failed after the approval, review or settlement it belongs
// to had committed. Events are keyed, so anything already applied is a
// no-op.
func (jr *JobRunner) ReconcileReputation() {
	jr.runWithRecovery("ReconcileReputation", func() {
		ctx := context.Background()
		since := jr.clock.Now().Add(-time.Duration(jr.config.Scheduler.ReputationLookbackDays) * 24 * time.Hour)
		limit := int32(jr.config.Scheduler.SettleBatchSize)

		approvals := jr.reconcileApprovals(ctx, since, limit)
		reviews := jr.reconcileReviews(ctx, since, limit)
		meetups := jr.reconcileSettlements(ctx, since, limit)

		logger.Info("Reconciled reputation",
			"approvals", approvals,
			"reviews", reviews,
			"settled_meetups", meetups)
	})
}

func (jr *JobRunner) reconcileApprovals(ctx context.Context, since time.Time, limit int32) int {
	participants, err := jr.store.ParticipantRepository.ListUnscoredApprovals(ctx, since, limit)
	if err != nil {
		logger.Error("Failed to list unscored approvals", "error", err)
		return 0
	}
	applied := 0
	for _, p := range participants {
		if jr.apply(ctx, domain.NewApprovedEvent(p.MeetupID, p.UserID)) {
			applied++
		}
	}
	return applied
}

func (jr *JobRunner) reconcileReviews(ctx context.Context, since time.Time, limit int32) int {
	reviews, err := jr.store.ReviewRepository.ListUnscored(ctx, since, limit)
	if err != nil {
		logger.Error("Failed to list unscored reviews", "error", err)
		return 0
	}
	applied := 0
	for i := range reviews {
		rv := &reviews[i]
		written := jr.apply(ctx, domain.NewReviewWrittenEvent(rv))
		received := jr.apply(ctx, domain.NewReviewReceivedEvent(rv))
		if written || received {
			applied++
		}
	}
	return applied
}

func (jr *JobRunner) reconcileSettlements(ctx context.Context, since time.Time, limit int32) int {
	meetups, err := jr.store.MeetupRepository.ListSettledUnscored(ctx, since, limit)
	if err != nil {
		logger.Error("Failed to list unscored settlements", "error", err)
		return 0
	}
	rescored := 0
	for i := range meetups {
		m := &meetups[i]
		if _, err := jr.services.Penalty.RescoreSettledMeetup(ctx, m); err != nil {
			logger.Error("Failed to rescore settled meetup", "meetup_id", m.ID, "error", err)
			continue
		}
		rescored++
	}
	return rescored
}

// apply reports whether ev changed the score.
func (jr *JobRunner) apply(ctx context.Context, ev *domain.ReputationEvent) bool {
	applied, err := jr.services.Reputation.Apply(ctx, ev)
	if err != nil {
		logger.Error("Failed to apply reputation event", "event", ev.Key, "error", err)
		return false
	}
	if applied {
		logger.Warn("Applied missing reputation event", "event", ev.Key, "user_id", ev.UserID)
	}
	return applied
}
