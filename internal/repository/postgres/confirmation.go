package postgres

import (
	"context"
	"database/sql"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/repository"
)

type confirmationRepository struct {
	db *sql.DB
}

func NewConfirmationRepository(db *sql.DB) repository.ConfirmationRepository {
	return &confirmationRepository{db: db}
}

func (r *confirmationRepository) Create(ctx context.Context, c *domain.MutualConfirmation) (bool, error) {
	if c.CreatedOn.IsZero() {
		c.CreatedOn = time.Now()
	}
	query := `INSERT INTO mutual_confirmations (meetup_id, confirmer_id, target_id, created_on)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (meetup_id, confirmer_id, target_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, c.MeetupID, c.ConfirmerID, c.TargetID, c.CreatedOn)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *confirmationRepository) ListForPair(ctx context.Context, meetupID, userA, userB int32) ([]domain.MutualConfirmation, error) {
	query := `SELECT meetup_id, confirmer_id, target_id, created_on FROM mutual_confirmations
	          WHERE meetup_id = $1
	            AND ((confirmer_id = $2 AND target_id = $3) OR (confirmer_id = $3 AND target_id = $2))
	          ORDER BY created_on ASC`
	rows, err := r.db.QueryContext(ctx, query, meetupID, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []domain.MutualConfirmation
	for rows.Next() {
		var c domain.MutualConfirmation
		if err := rows.Scan(&c.MeetupID, &c.ConfirmerID, &c.TargetID, &c.CreatedOn); err != nil {
			return nil, err
		}
		facts = append(facts, c)
	}
	return facts, rows.Err()
}
