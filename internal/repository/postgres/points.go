package postgres

import (
	"context"
	"database/sql"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

type pointsRepository struct {
	db *sql.DB
}

func NewPointsRepository(db *sql.DB) repository.PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) CreateTransaction(ctx context.Context, tx *domain.PointsTransaction) (bool, error) {
	logger.EnterMethod("pointsRepository.CreateTransaction", "userID", tx.UserID, "meetupID", tx.MeetupID, "type", tx.Type, "amount", tx.Amount)
	if tx.CreatedOn.IsZero() {
		tx.CreatedOn = time.Now()
	}

	query := `INSERT INTO points_transactions (user_id, meetup_id, amount, type, description, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id, meetup_id, type) DO NOTHING
	          RETURNING id`
	logger.DatabaseCall("INSERT", "points_transactions", "userID", tx.UserID, "meetupID", tx.MeetupID)
	err := r.db.QueryRowContext(ctx, query, tx.UserID, tx.MeetupID, tx.Amount, tx.Type, tx.Description, tx.CreatedOn).Scan(&tx.ID)
	if err == sql.ErrNoRows {
		logger.ExitMethod("pointsRepository.CreateTransaction", "result", "already recorded")
		return false, nil
	}
	if err != nil {
		logger.ExitMethodWithError("pointsRepository.CreateTransaction", err)
		return false, err
	}
	logger.ExitMethod("pointsRepository.CreateTransaction", "transactionID", tx.ID)
	return true, nil
}

func (r *pointsRepository) GetBalance(ctx context.Context, userID int32) (int32, error) {
	var balance int32
	query := `SELECT COALESCE(SUM(amount), 0) FROM points_transactions WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	return balance, err
}

func (r *pointsRepository) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PointsTransaction, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var count int32
	countQuery := `SELECT count(*) FROM points_transactions WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, meetup_id, amount, type, description, created_on
	          FROM points_transactions WHERE user_id = $1
	          ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.PointsTransaction
	for rows.Next() {
		var t domain.PointsTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.MeetupID, &t.Amount, &t.Type, &t.Description, &t.CreatedOn); err != nil {
			return nil, 0, err
		}
		txs = append(txs, t)
	}
	return txs, count, rows.Err()
}

func (r *pointsRepository) ListMissingRefunds(ctx context.Context, meetupID int32) ([]int32, error) {
	query := `SELECT p.user_id FROM meetup_participants p
	          JOIN meetups m ON m.id = p.meetup_id
	          WHERE p.meetup_id = $1 AND p.status = $2 AND p.user_id <> m.host_id
	            AND NOT EXISTS (
	                SELECT 1 FROM points_transactions t
	                WHERE t.user_id = p.user_id AND t.meetup_id = p.meetup_id AND t.type = $3)
	          ORDER BY p.user_id`
	rows, err := r.db.QueryContext(ctx, query, meetupID, domain.ParticipantStatusApproved, domain.PointsTransactionRefund)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
