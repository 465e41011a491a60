package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

const participantColumns = `id, meetup_id, user_id, status, joined_at, attended, attended_at,
	attendance_method, attendance_distance_meters`

type participantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) repository.ParticipantRepository {
	return &participantRepository{db: db}
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	p := &domain.Participant{}
	var attendedAt sql.NullTime
	var method sql.NullString
	var distance sql.NullInt32
	err := row.Scan(&p.ID, &p.MeetupID, &p.UserID, &p.Status, &p.JoinedAt, &p.Attended, &attendedAt, &method, &distance)
	if err != nil {
		return nil, err
	}
	if attendedAt.Valid {
		p.AttendedAt = &attendedAt.Time
	}
	if method.Valid {
		p.AttendanceMethod = domain.AttendanceMethod(method.String)
	}
	if distance.Valid {
		p.AttendanceDistanceMeters = &distance.Int32
	}
	return p, nil
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `INSERT INTO meetup_participants (meetup_id, user_id, status, joined_at, attended)
	          VALUES ($1, $2, $3, $4, FALSE) RETURNING id`
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, p.MeetupID, p.UserID, p.Status, p.JoinedAt).Scan(&p.ID)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *participantRepository) Get(ctx context.Context, meetupID, userID int32) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM meetup_participants WHERE meetup_id = $1 AND user_id = $2`
	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, meetupID, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func scanParticipants(rows *sql.Rows) ([]domain.Participant, error) {
	defer rows.Close()
	var participants []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) ListByMeetup(ctx context.Context, meetupID int32) ([]domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM meetup_participants WHERE meetup_id = $1 ORDER BY joined_at ASC`
	rows, err := r.db.QueryContext(ctx, query, meetupID)
	if err != nil {
		return nil, err
	}
	return scanParticipants(rows)
}

func (r *participantRepository) Approve(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	logger.EnterMethod("participantRepository.Approve", "meetupID", meetupID, "userID", userID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// The row lock serializes concurrent approvals for the same meetup.
	var status domain.MeetupStatus
	var maxParticipants, current int32
	lockQuery := `SELECT status, max_participants, current_participants FROM meetups WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lockQuery, meetupID).Scan(&status, &maxParticipants, &current); err != nil {
		return nil, nil, notFound(err)
	}
	if status == domain.MeetupStatusFull || current >= maxParticipants {
		logger.ExitMethodWithError("participantRepository.Approve", repository.ErrCapacityReached, "current", current, "max", maxParticipants)
		return nil, nil, repository.ErrCapacityReached
	}
	if status != domain.MeetupStatusRecruiting {
		return nil, nil, repository.ErrConflict
	}

	now := time.Now()
	approveQuery := `UPDATE meetup_participants SET status = $1
	                 WHERE meetup_id = $2 AND user_id = $3 AND status = $4
	                 RETURNING ` + participantColumns
	p, err := scanParticipant(tx.QueryRowContext(ctx, approveQuery, domain.ParticipantStatusApproved, meetupID, userID, domain.ParticipantStatusRequested))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, repository.ErrConflict
	}
	if err != nil {
		return nil, nil, err
	}

	countQuery := `UPDATE meetups
	               SET current_participants = current_participants + 1,
	                   status = CASE WHEN current_participants + 1 >= max_participants THEN $1 ELSE status END,
	                   updated_on = $2
	               WHERE id = $3
	               RETURNING ` + meetupColumns
	m, err := scanMeetup(tx.QueryRowContext(ctx, countQuery, domain.MeetupStatusFull, now, meetupID))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	logger.ExitMethod("participantRepository.Approve", "current", m.CurrentParticipants, "status", m.Status)
	return p, m, nil
}

func (r *participantRepository) Reject(ctx context.Context, meetupID, userID int32) (*domain.Participant, error) {
	query := `UPDATE meetup_participants SET status = $1
	          WHERE meetup_id = $2 AND user_id = $3 AND status = $4
	          RETURNING ` + participantColumns
	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, domain.ParticipantStatusRejected, meetupID, userID, domain.ParticipantStatusRequested))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrConflict
	}
	return p, err
}

func (r *participantRepository) Cancel(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	logger.EnterMethod("participantRepository.Cancel", "meetupID", meetupID, "userID", userID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT id FROM meetups WHERE id = $1 FOR UPDATE`, meetupID); err != nil {
		return nil, nil, err
	}

	var previous domain.ParticipantStatus
	statusQuery := `SELECT status FROM meetup_participants WHERE meetup_id = $1 AND user_id = $2 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, statusQuery, meetupID, userID).Scan(&previous); err != nil {
		return nil, nil, notFound(err)
	}
	if previous != domain.ParticipantStatusRequested && previous != domain.ParticipantStatusApproved {
		return nil, nil, repository.ErrConflict
	}

	cancelQuery := `UPDATE meetup_participants SET status = $1 WHERE meetup_id = $2 AND user_id = $3
	                RETURNING ` + participantColumns
	p, err := scanParticipant(tx.QueryRowContext(ctx, cancelQuery, domain.ParticipantStatusCancelled, meetupID, userID))
	if err != nil {
		return nil, nil, err
	}

	var m *domain.Meetup
	if previous == domain.ParticipantStatusApproved {
		countQuery := `UPDATE meetups
		               SET current_participants = current_participants - 1,
		                   status = CASE WHEN status = $1 THEN $2 ELSE status END,
		                   updated_on = $3
		               WHERE id = $4
		               RETURNING ` + meetupColumns
		m, err = scanMeetup(tx.QueryRowContext(ctx, countQuery, domain.MeetupStatusFull, domain.MeetupStatusRecruiting, time.Now(), meetupID))
	} else {
		m, err = scanMeetup(tx.QueryRowContext(ctx, `SELECT `+meetupColumns+` FROM meetups WHERE id = $1`, meetupID))
	}
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	logger.ExitMethod("participantRepository.Cancel", "previous", previous, "current", m.CurrentParticipants)
	return p, m, nil
}

func (r *participantRepository) MarkAttended(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	// The attended = FALSE guard makes the first writer win across all methods.
	// The settled_at guard waits on a running settlement and loses to it.
	query := `UPDATE meetup_participants
	          SET attended = TRUE, attended_at = $1, attendance_method = $2, attendance_distance_meters = $3
	          WHERE meetup_id = $4 AND user_id = $5 AND status = $6 AND attended = FALSE
	            AND EXISTS (SELECT 1 FROM meetups WHERE id = $4 AND settled_at IS NULL FOR SHARE)`
	logger.DatabaseCall("UPDATE", "meetup_participants", "meetupID", rec.MeetupID, "userID", rec.UserID, "method", rec.Method)
	result, err := r.db.ExecContext(ctx, query, rec.AttendedAt, rec.Method, rec.DistanceMeters, rec.MeetupID, rec.UserID, domain.ParticipantStatusApproved)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return false, err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *participantRepository) ListUnscoredApprovals(ctx context.Context, since time.Time, limit int32) ([]domain.Participant, error) {
	// The host joins approved at creation and earns no approved event.
	query := `SELECT ` + participantColumns + ` FROM meetup_participants
	          WHERE status = $1
	            AND meetup_id IN (SELECT m.id FROM meetups m WHERE m.created_on >= $2)
	            AND user_id <> (SELECT m.host_id FROM meetups m WHERE m.id = meetup_participants.meetup_id)
	            AND NOT EXISTS (SELECT 1 FROM reputation_events e
	                            WHERE e.user_id = meetup_participants.user_id
	                              AND e.event_key = 'approved:' || meetup_participants.meetup_id || ':' || meetup_participants.user_id)
	          ORDER BY id ASC LIMIT $3`
	logger.DatabaseCall("SELECT", "meetup_participants", "since", since, "limit", limit)
	rows, err := r.db.QueryContext(ctx, query, domain.ParticipantStatusApproved, since, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	return scanParticipants(rows)
}
