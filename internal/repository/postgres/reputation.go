package postgres

import (
	"context"
	"database/sql"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

const reputationColumns = `user_id, value, version, meetups_joined, meetups_hosted, meetups_attended,
	attendance_streak, reviews_written, reviews_received, positive_reviews, quality_reviews,
	no_show_count, report_count, updated_on`

type reputationRepository struct {
	db *sql.DB
}

func NewReputationRepository(db *sql.DB) repository.ReputationRepository {
	return &reputationRepository{db: db}
}

func (r *reputationRepository) Get(ctx context.Context, userID int32) (*domain.ReputationScore, error) {
	s := &domain.ReputationScore{}
	query := `SELECT ` + reputationColumns + ` FROM reputation_scores WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &s.Value, &s.Version, &s.MeetupsJoined,
		&s.MeetupsHosted, &s.MeetupsAttended, &s.AttendanceStreak, &s.ReviewsWritten, &s.ReviewsReceived,
		&s.PositiveReviews, &s.QualityReviews, &s.NoShowCount, &s.ReportCount, &s.UpdatedOn)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *reputationRepository) Apply(ctx context.Context, s *domain.ReputationScore, ev *domain.ReputationEvent) error {
	logger.EnterMethod("reputationRepository.Apply", "userID", s.UserID, "event", ev.Key, "version", s.Version)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if ev.AppliedOn.IsZero() {
		ev.AppliedOn = now
	}

	eventQuery := `INSERT INTO reputation_events (user_id, event_key, meetup_id, kind, rating, delta, applied_on)
	               VALUES ($1, $2, $3, $4, $5, $6, $7)
	               ON CONFLICT (user_id, event_key) DO NOTHING`
	result, err := tx.ExecContext(ctx, eventQuery, ev.UserID, ev.Key, ev.MeetupID, ev.Kind, ev.Rating, ev.Delta, ev.AppliedOn)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		logger.ExitMethod("reputationRepository.Apply", "event", ev.Key, "result", "already applied")
		return repository.ErrDuplicate
	}

	if s.Version == 0 {
		insertQuery := `INSERT INTO reputation_scores (` + reputationColumns + `)
		                VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		                ON CONFLICT (user_id) DO NOTHING`
		result, err = tx.ExecContext(ctx, insertQuery, s.UserID, s.Value, s.MeetupsJoined, s.MeetupsHosted,
			s.MeetupsAttended, s.AttendanceStreak, s.ReviewsWritten, s.ReviewsReceived, s.PositiveReviews,
			s.QualityReviews, s.NoShowCount, s.ReportCount, now)
	} else {
		updateQuery := `UPDATE reputation_scores
		                SET value = $1, version = version + 1, meetups_joined = $2, meetups_hosted = $3,
		                    meetups_attended = $4, attendance_streak = $5, reviews_written = $6,
		                    reviews_received = $7, positive_reviews = $8, quality_reviews = $9,
		                    no_show_count = $10, report_count = $11, updated_on = $12
		                WHERE user_id = $13 AND version = $14`
		result, err = tx.ExecContext(ctx, updateQuery, s.Value, s.MeetupsJoined, s.MeetupsHosted,
			s.MeetupsAttended, s.AttendanceStreak, s.ReviewsWritten, s.ReviewsReceived, s.PositiveReviews,
			s.QualityReviews, s.NoShowCount, s.ReportCount, now, s.UserID, s.Version)
	}
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		logger.ExitMethodWithError("reputationRepository.Apply", repository.ErrConflict, "userID", s.UserID)
		return repository.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.Version++
	s.UpdatedOn = now
	logger.ExitMethod("reputationRepository.Apply", "userID", s.UserID, "value", s.Value)
	return nil
}

func (r *reputationRepository) ListPenalties(ctx context.Context, userID int32) ([]domain.PenaltyEvent, error) {
	query := `SELECT user_id, meetup_id, kind, delta, applied_on FROM reputation_events
	          WHERE user_id = $1 AND kind IN ($2, $3)
	          ORDER BY applied_on DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, domain.PenaltyKindNoShow, domain.PenaltyKindReport)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var penalties []domain.PenaltyEvent
	for rows.Next() {
		var p domain.PenaltyEvent
		if err := rows.Scan(&p.UserID, &p.MeetupID, &p.Kind, &p.Delta, &p.AppliedAt); err != nil {
			return nil, err
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}
