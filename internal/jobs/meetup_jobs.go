package jobs

import (
	"context"

	"ricemeet-backend/internal/logger"
)

// SettleEndedMeetups settles meetups that ended more than the no-show grace
// period ago: attendees get completion credit and approved participants
// who never checked in get a no-show penalty.
func (jr *JobRunner) SettleEndedMeetups() {
	jr.runWithRecovery("SettleEndedMeetups", func() {
		ctx := context.Background()
		cutoff := jr.clock.Now().Add(-jr.config.Attendance.NoShowGrace())

		meetups, err := jr.store.MeetupRepository.ListEndedUnsettled(ctx, cutoff, int32(jr.config.Scheduler.SettleBatchSize))
		if err != nil {
			logger.Error("Failed to list ended meetups", "error", err)
			return
		}

		settled, noShows := 0, 0
		for i := range meetups {
			m := &meetups[i]
			n, err := jr.services.Penalty.SettleEndedMeetup(ctx, m)
			if err != nil {
				// Unsettled meetups are retried by the next run. Scoring gaps
				// on settled ones are filled by ReconcileReputation.
				logger.Error("Failed to settle meetup", "meetup_id", m.ID, "error", err)
				continue
			}
			settled++
			noShows += n
		}

		logger.Info("Settled ended meetups",
			"candidates", len(meetups),
			"settled", settled,
			"no_shows", noShows)
	})
}
