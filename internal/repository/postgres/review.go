package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

const reviewColumns = `id, meetup_id, reviewer_id, reviewee_id, rating, content, tags, is_anonymous, created_on`

type reviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

func scanReview(row rowScanner) (*domain.Review, error) {
	rv := &domain.Review{}
	err := row.Scan(&rv.ID, &rv.MeetupID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating, &rv.Content,
		pq.Array(&rv.Tags), &rv.IsAnonymous, &rv.CreatedOn)
	return rv, err
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	logger.EnterMethod("reviewRepository.Create", "meetupID", rv.MeetupID, "reviewerID", rv.ReviewerID, "revieweeID", rv.RevieweeID)
	if rv.CreatedOn.IsZero() {
		rv.CreatedOn = time.Now()
	}
	if rv.Tags == nil {
		rv.Tags = []string{}
	}

	query := `INSERT INTO reviews (meetup_id, reviewer_id, reviewee_id, rating, content, tags, is_anonymous, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rv.MeetupID, rv.ReviewerID, rv.RevieweeID, rv.Rating, rv.Content,
		pq.Array(rv.Tags), rv.IsAnonymous, rv.CreatedOn).Scan(&rv.ID)
	if isUniqueViolation(err) {
		logger.ExitMethodWithError("reviewRepository.Create", repository.ErrDuplicate)
		return repository.ErrDuplicate
	}
	if err != nil {
		logger.ExitMethodWithError("reviewRepository.Create", err)
		return err
	}
	logger.ExitMethod("reviewRepository.Create", "reviewID", rv.ID)
	return nil
}

func (r *reviewRepository) Exists(ctx context.Context, meetupID, reviewerID, revieweeID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE meetup_id = $1 AND reviewer_id = $2 AND reviewee_id = $3)`
	err := r.db.QueryRowContext(ctx, query, meetupID, reviewerID, revieweeID).Scan(&exists)
	return exists, err
}

func (r *reviewRepository) ListByMeetup(ctx context.Context, meetupID int32) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE meetup_id = $1 ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, meetupID)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

func (r *reviewRepository) ListByReviewee(ctx context.Context, revieweeID int32, limit, offset int32) ([]domain.Review, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM reviews WHERE reviewee_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, revieweeID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE reviewee_id = $1
	          ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, revieweeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return reviews, count, nil
}

func (r *reviewRepository) ListUnscored(ctx context.Context, since time.Time, limit int32) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r
	          WHERE r.created_on >= $1
	            AND (NOT EXISTS (SELECT 1 FROM reputation_events e
	                             WHERE e.user_id = r.reviewer_id AND e.event_key = 'review_written:' || r.id)
	              OR NOT EXISTS (SELECT 1 FROM reputation_events e
	                             WHERE e.user_id = r.reviewee_id AND e.event_key = 'review_received:' || r.id))
	          ORDER BY r.id ASC LIMIT $2`
	logger.DatabaseCall("SELECT", "reviews", "since", since, "limit", limit)
	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	return scanReviews(rows)
}

func scanReviews(rows *sql.Rows) ([]domain.Review, error) {
	defer rows.Close()
	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}
