package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/repository"
	"ricemeet-backend/internal/service"
)

func TestReputationService_GetRiceIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("New user starts at base", func(t *testing.T) {
		repo := new(MockReputationRepo)
		svc := service.NewReputationService(repo)
		repo.On("Get", mock.Anything, guestID).Return(nil, repository.ErrNotFound)

		idx, err := svc.GetRiceIndex(ctx, guestID)
		require.NoError(t, err)
		assert.Equal(t, domain.BaseReputationScore, idx.Value)
		assert.Equal(t, guestID, idx.UserID)
		assert.NotEmpty(t, idx.Tier)
	})

	t.Run("Repository failure", func(t *testing.T) {
		repo := new(MockReputationRepo)
		svc := service.NewReputationService(repo)
		repo.On("Get", mock.Anything, guestID).Return(nil, errors.New("db down"))

		_, err := svc.GetRiceIndex(ctx, guestID)
		assert.Error(t, err)
	})
}

func TestReputationService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates score for new user", func(t *testing.T) {
		repo := new(MockReputationRepo)
		svc := service.NewReputationService(repo)
		repo.On("Get", mock.Anything, guestID).Return(nil, repository.ErrNotFound)
		repo.On("Apply", mock.Anything, mock.MatchedBy(func(s *domain.ReputationScore) bool {
			return s.Version == 0 && s.UserID == guestID
		}), mock.Anything).Return(nil)

		applied, err := svc.Apply(ctx, domain.NewCompletedEvent(10, guestID))
		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("Duplicate key is a no-op", func(t *testing.T) {
		repo := new(MockReputationRepo)
		svc := service.NewReputationService(repo)
		repo.On("Get", mock.Anything, guestID).Return(&domain.ReputationScore{UserID: guestID, Value: 50, Version: 3}, nil)
		repo.On("Apply", mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		applied, err := svc.Apply(ctx, domain.NewCompletedEvent(10, guestID))
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("Retries on version conflict", func(t *testing.T) {
		repo := new(MockReputationRepo)
		svc := service.NewReputationService(repo)
		repo.On("Get", mock.Anything, guestID).Return(&domain.ReputationScore{UserID: guestID, Value: 50, Version: 3}, nil).Once()
		repo.On("Get", mock.Anything, guestID).Return(&domain.ReputationScore{UserID: guestID, Value: 52, Version: 4}, nil).Once()
		repo.On("Apply", mock.Anything, mock.MatchedBy(func(s *domain.ReputationScore) bool { return s.Version == 3 }), mock.Anything).Return(repository.ErrConflict)
		repo.On("Apply", mock.Anything, mock.MatchedBy(func(s *domain.ReputationScore) bool { return s.Version == 4 }), mock.Anything).Return(nil)

		applied, err := svc.Apply(ctx, domain.NewCompletedEvent(10, guestID))
		require.NoError(t, err)
		assert.True(t, applied)
		repo.AssertNumberOfCalls(t, "Apply", 2)
	})

	t.Run("Gives up after repeated conflicts", func(t *testing.T) {
		repo := new(MockReputationRepo)
		svc := service.NewReputationService(repo)
		repo.On("Get", mock.Anything, guestID).Return(&domain.ReputationScore{UserID: guestID, Value: 50, Version: 3}, nil)
		repo.On("Apply", mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrConflict)

		_, err := svc.Apply(ctx, domain.NewCompletedEvent(10, guestID))
		require.Error(t, err)
		assert.True(t, errors.Is(err, repository.ErrConflict))
		repo.AssertNumberOfCalls(t, "Apply", 5)
	})

	t.Run("No-show lowers the score", func(t *testing.T) {
		repo := new(MockReputationRepo)
		svc := service.NewReputationService(repo)
		repo.On("Get", mock.Anything, guestID).Return(&domain.ReputationScore{UserID: guestID, Value: 60, Version: 1}, nil)
		repo.On("Apply", mock.Anything, mock.MatchedBy(func(s *domain.ReputationScore) bool {
			return s.Value < 60 && s.NoShowCount == 1
		}), mock.Anything).Return(nil)

		ev := domain.NewPenaltyReputationEvent(domain.PenaltyKindNoShow, 10, guestID)
		applied, err := svc.Apply(ctx, ev)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Less(t, ev.Delta, 0.0)
	})
}
