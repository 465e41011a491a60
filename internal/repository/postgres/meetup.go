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

const meetupColumns = `id, host_id, title, status, start_at, latitude, longitude, check_in_radius_meters,
	duration_minutes, max_participants, current_participants, deposit_points, ended_at, settled_at, created_on, updated_on`

type meetupRepository struct {
	db *sql.DB
}

func NewMeetupRepository(db *sql.DB) repository.MeetupRepository {
	return &meetupRepository{db: db}
}

func scanMeetup(row rowScanner) (*domain.Meetup, error) {
	m := &domain.Meetup{}
	var lat, lng sql.NullFloat64
	var endedAt, settledAt sql.NullTime
	err := row.Scan(&m.ID, &m.HostID, &m.Title, &m.Status, &m.StartAt, &lat, &lng, &m.CheckInRadiusMeters,
		&m.DurationMinutes, &m.MaxParticipants, &m.CurrentParticipants, &m.DepositPoints, &endedAt, &settledAt,
		&m.CreatedOn, &m.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		m.Latitude = &lat.Float64
		m.Longitude = &lng.Float64
	}
	if endedAt.Valid {
		m.EndedAt = &endedAt.Time
	}
	if settledAt.Valid {
		m.SettledAt = &settledAt.Time
	}
	return m, nil
}

func scanMeetups(rows *sql.Rows) ([]domain.Meetup, error) {
	defer rows.Close()
	var meetups []domain.Meetup
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, err
		}
		meetups = append(meetups, *m)
	}
	return meetups, rows.Err()
}

func (r *meetupRepository) Create(ctx context.Context, m *domain.Meetup) error {
	logger.EnterMethod("meetupRepository.Create", "hostID", m.HostID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	m.Status = domain.MeetupStatusRecruiting
	m.CurrentParticipants = 1
	m.CreatedOn = now
	m.UpdatedOn = now

	query := `INSERT INTO meetups (host_id, title, status, start_at, latitude, longitude, check_in_radius_meters,
	          duration_minutes, max_participants, current_participants, deposit_points, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	logger.DatabaseCall("INSERT", "meetups", "hostID", m.HostID)
	err = tx.QueryRowContext(ctx, query, m.HostID, m.Title, m.Status, m.StartAt, m.Latitude, m.Longitude,
		m.CheckInRadiusMeters, m.DurationMinutes, m.MaxParticipants, m.CurrentParticipants, m.DepositPoints,
		now, now).Scan(&m.ID)
	logger.DatabaseResult("INSERT", 1, err, "meetupID", m.ID)
	if err != nil {
		logger.ExitMethodWithError("meetupRepository.Create", err)
		return err
	}

	hostQuery := `INSERT INTO meetup_participants (meetup_id, user_id, status, joined_at, attended)
	              VALUES ($1, $2, $3, $4, FALSE)`
	if _, err := tx.ExecContext(ctx, hostQuery, m.ID, m.HostID, domain.ParticipantStatusApproved, now); err != nil {
		logger.ExitMethodWithError("meetupRepository.Create", err, "reason", "host participant insert failed")
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("meetupRepository.Create", "meetupID", m.ID)
	return nil
}

func (r *meetupRepository) GetByID(ctx context.Context, id int32) (*domain.Meetup, error) {
	query := `SELECT ` + meetupColumns + ` FROM meetups WHERE id = $1`
	m, err := scanMeetup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (r *meetupRepository) UpdateStatus(ctx context.Context, id int32, from, to domain.MeetupStatus, endedAt *time.Time) (*domain.Meetup, error) {
	logger.DatabaseCall("UPDATE", "meetups", "meetupID", id, "from", from, "to", to)
	query := `UPDATE meetups SET status = $1, ended_at = COALESCE($2, ended_at), updated_on = $3
	          WHERE id = $4 AND status = $5
	          RETURNING ` + meetupColumns
	m, err := scanMeetup(r.db.QueryRowContext(ctx, query, to, endedAt, time.Now(), id, from))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("UPDATE", 0, nil, "meetupID", id)
		return nil, repository.ErrConflict
	}
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "meetupID", id)
		return nil, err
	}
	logger.DatabaseResult("UPDATE", 1, nil, "meetupID", id)
	return m, nil
}

func (r *meetupRepository) ListEndedUnsettled(ctx context.Context, endedBefore time.Time, limit int32) ([]domain.Meetup, error) {
	query := `SELECT ` + meetupColumns + ` FROM meetups
	          WHERE status = $1 AND settled_at IS NULL AND ended_at < $2
	          ORDER BY ended_at ASC LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, domain.MeetupStatusEnded, endedBefore, limit)
	if err != nil {
		return nil, err
	}
	return scanMeetups(rows)
}

func (r *meetupRepository) Settle(ctx context.Context, id int32, at time.Time) ([]domain.Participant, error) {
	logger.EnterMethod("meetupRepository.Settle", "meetupID", id)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Stamping settled_at takes the row lock that MarkAttended's FOR SHARE
	// guard waits on, so the participant list below is final.
	stampQuery := `UPDATE meetups SET settled_at = $1 WHERE id = $2 AND settled_at IS NULL`
	logger.DatabaseCall("UPDATE", "meetups", "meetupID", id)
	result, err := tx.ExecContext(ctx, stampQuery, at, id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		logger.ExitMethodWithError("meetupRepository.Settle", repository.ErrConflict, "reason", "already settled")
		return nil, repository.ErrConflict
	}

	listQuery := `SELECT ` + participantColumns + ` FROM meetup_participants WHERE meetup_id = $1 ORDER BY joined_at ASC`
	participantRows, err := tx.QueryContext(ctx, listQuery, id)
	if err != nil {
		return nil, err
	}
	participants, err := scanParticipants(participantRows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	logger.ExitMethod("meetupRepository.Settle", "participants", len(participants))
	return participants, nil
}

func (r *meetupRepository) ListSettledUnscored(ctx context.Context, since time.Time, limit int32) ([]domain.Meetup, error) {
	query := `SELECT ` + meetupColumns + ` FROM meetups
	          WHERE settled_at >= $1
	            AND (NOT EXISTS (SELECT 1 FROM reputation_events e
	                             WHERE e.user_id = meetups.host_id AND e.event_key = 'hosted:' || meetups.id)
	              OR EXISTS (SELECT 1 FROM meetup_participants p
	                         WHERE p.meetup_id = meetups.id AND p.status = $2
	                           AND (p.attended OR p.user_id <> meetups.host_id)
	                           AND NOT EXISTS (SELECT 1 FROM reputation_events e
	                                           WHERE e.user_id = p.user_id
	                                             AND e.event_key IN ('completed:' || meetups.id || ':' || p.user_id,
	                                                                 'no_show:' || meetups.id || ':' || p.user_id))))
	          ORDER BY settled_at ASC LIMIT $3`
	logger.DatabaseCall("SELECT", "meetups", "since", since, "limit", limit)
	rows, err := r.db.QueryContext(ctx, query, since, domain.ParticipantStatusApproved, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	return scanMeetups(rows)
}

func (r *meetupRepository) ListCancelledSince(ctx context.Context, since time.Time) ([]domain.Meetup, error) {
	query := `SELECT ` + meetupColumns + ` FROM meetups
	          WHERE status = $1 AND updated_on >= $2 AND deposit_points > 0
	          ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, domain.MeetupStatusCancelled, since)
	if err != nil {
		return nil, err
	}
	return scanMeetups(rows)
}
