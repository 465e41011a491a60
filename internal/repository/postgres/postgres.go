package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"ricemeet-backend/internal/repository"
)

// uniqueViolation is the SQLSTATE postgres reports for unique constraint failures.
const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.MeetupRepository
	repository.ParticipantRepository
	repository.ConfirmationRepository
	repository.ReviewRepository
	repository.ReputationRepository
	repository.PointsRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		MeetupRepository:       NewMeetupRepository(db),
		ParticipantRepository:  NewParticipantRepository(db),
		ConfirmationRepository: NewConfirmationRepository(db),
		ReviewRepository:       NewReviewRepository(db),
		ReputationRepository:   NewReputationRepository(db),
		PointsRepository:       NewPointsRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// DB exposes the underlying handle for jobs that run ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}
