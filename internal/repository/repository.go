package repository

import (
	"context"
	"time"

	"ricemeet-backend/internal/domain"
)

type MeetupRepository interface {
	// Create stores the meetup and its host as an approved participant.
	Create(ctx context.Context, m *domain.Meetup) error
	GetByID(ctx context.Context, id int32) (*domain.Meetup, error)
	// UpdateStatus moves the meetup from one status to another only if it is
	// still in from. Returns ErrConflict otherwise.
	UpdateStatus(ctx context.Context, id int32, from, to domain.MeetupStatus, endedAt *time.Time) (*domain.Meetup, error)
	ListEndedUnsettled(ctx context.Context, endedBefore time.Time, limit int32) ([]domain.Meetup, error)
	// Settle stamps settled_at and returns the participant list in one
	// transaction. Attendance can no longer be written once it commits.
	// Returns ErrConflict if the meetup was already settled.
	Settle(ctx context.Context, id int32, at time.Time) ([]domain.Participant, error)
	// ListSettledUnscored returns meetups settled since the given time that
	// still lack a hosted, completed or no-show reputation event.
	ListSettledUnscored(ctx context.Context, since time.Time, limit int32) ([]domain.Meetup, error)
	ListCancelledSince(ctx context.Context, since time.Time) ([]domain.Meetup, error)
}

type ParticipantRepository interface {
	// Create inserts a join request. Returns ErrDuplicate if a row for the pair exists.
	Create(ctx context.Context, p *domain.Participant) error
	Get(ctx context.Context, meetupID, userID int32) (*domain.Participant, error)
	ListByMeetup(ctx context.Context, meetupID int32) ([]domain.Participant, error)
	// Approve approves a requested participant and increments the meetup
	// count in one transaction, flipping Recruiting to Full at capacity.
	Approve(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error)
	Reject(ctx context.Context, meetupID, userID int32) (*domain.Participant, error)
	// Cancel withdraws a participant. If they were approved the meetup count
	// is decremented and Full flips back to Recruiting.
	Cancel(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error)
	// MarkAttended sets attended for an approved participant that has not
	// attended yet on a meetup that is not settled. Returns false when
	// another write or the settlement got there first.
	MarkAttended(ctx context.Context, rec *domain.AttendanceRecord) (bool, error)
	// ListUnscoredApprovals returns approved guests of meetups created since
	// the given time that have no approved reputation event.
	ListUnscoredApprovals(ctx context.Context, since time.Time, limit int32) ([]domain.Participant, error)
}

type ConfirmationRepository interface {
	// Create stores a one-directional confirmation. Returns false if it already existed.
	Create(ctx context.Context, c *domain.MutualConfirmation) (bool, error)
	ListForPair(ctx context.Context, meetupID, userA, userB int32) ([]domain.MutualConfirmation, error)
}

type ReviewRepository interface {
	// Create returns ErrDuplicate for an existing (meetup, reviewer, reviewee).
	Create(ctx context.Context, r *domain.Review) error
	Exists(ctx context.Context, meetupID, reviewerID, revieweeID int32) (bool, error)
	ListByMeetup(ctx context.Context, meetupID int32) ([]domain.Review, error)
	ListByReviewee(ctx context.Context, revieweeID int32, limit, offset int32) ([]domain.Review, int32, error)
	// ListUnscored returns reviews created since the given time whose
	// review_written or review_received event is missing.
	ListUnscored(ctx context.Context, since time.Time, limit int32) ([]domain.Review, error)
}

type ReputationRepository interface {
	Get(ctx context.Context, userID int32) (*domain.ReputationScore, error)
	// Apply records ev and writes score in one transaction. score.Version is
	// the version that was read; zero means no row existed. Returns
	// ErrDuplicate if ev.Key was already applied and ErrConflict if the
	// stored version moved.
	Apply(ctx context.Context, score *domain.ReputationScore, ev *domain.ReputationEvent) error
	ListPenalties(ctx context.Context, userID int32) ([]domain.PenaltyEvent, error)
}

type PointsRepository interface {
	// CreateTransaction inserts a ledger row. Returns false if a row for the
	// same (user, meetup, type) already exists.
	CreateTransaction(ctx context.Context, tx *domain.PointsTransaction) (bool, error)
	GetBalance(ctx context.Context, userID int32) (int32, error)
	ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PointsTransaction, int32, error)
	// ListMissingRefunds returns approved participants of a cancelled meetup
	// that have no refund row yet.
	ListMissingRefunds(ctx context.Context, meetupID int32) ([]int32, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}
