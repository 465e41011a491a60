package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/repository"
	"ricemeet-backend/internal/repository/postgres"
)

func TestReviewRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewReviewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rv := &domain.Review{MeetupID: 3, ReviewerID: 5, RevieweeID: 6, Rating: 5, Content: "great", Tags: []string{"on_time"}}
		mock.ExpectQuery("INSERT INTO reviews").
			WithArgs(int32(3), int32(5), int32(6), int32(5), "great", sqlmock.AnyArg(), false, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))

		require.NoError(t, repo.Create(ctx, rv))
		assert.Equal(t, int32(31), rv.ID)
	})

	t.Run("Duplicate", func(t *testing.T) {
		rv := &domain.Review{MeetupID: 3, ReviewerID: 5, RevieweeID: 6, Rating: 4}
		mock.ExpectQuery("INSERT INTO reviews").
			WillReturnError(&pq.Error{Code: "23505"})

		assert.ErrorIs(t, repo.Create(ctx, rv), repository.ErrDuplicate)
	})
}

func TestReviewRepository_ListByReviewee(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewReviewRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM reviews").
		WithArgs(int32(6)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE reviewee_id = \\$1").
		WithArgs(int32(6), int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "meetup_id", "reviewer_id", "reviewee_id", "rating", "content", "tags", "is_anonymous", "created_on"}).
			AddRow(int32(31), int32(3), int32(5), int32(6), int32(5), "great", "{on_time,friendly}", true, time.Now()))

	reviews, total, err := repo.ListByReviewee(context.Background(), 6, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	require.Len(t, reviews, 1)
	assert.Equal(t, []string{"on_time", "friendly"}, reviews[0].Tags)
	assert.True(t, reviews[0].IsAnonymous)
}

func TestReviewRepository_ListUnscored(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewReviewRepository(db)
	since := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM reviews r (.+)'review_written:' \\|\\| r.id(.+)'review_received:' \\|\\| r.id").
		WithArgs(since, int32(50)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "meetup_id", "reviewer_id", "reviewee_id", "rating", "content", "tags", "is_anonymous", "created_on"}).
			AddRow(int32(31), int32(3), int32(5), int32(6), int32(4), "", "{}", false, time.Now()))

	reviews, err := repo.ListUnscored(context.Background(), since, 50)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, int32(31), reviews[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
