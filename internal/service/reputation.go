package service

import (
	"context"
	"errors"
	"fmt"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
	"ricemeet-backend/internal/utils"
)

// maxScoreAttempts bounds the optimistic retries of one score update.
const maxScoreAttempts = 5

type reputationService struct {
	reputationRepo repository.ReputationRepository
}

func NewReputationService(reputationRepo repository.ReputationRepository) ReputationService {
	return &reputationService{reputationRepo: reputationRepo}
}

func (s *reputationService) GetRiceIndex(ctx context.Context, userID int32) (*domain.RiceIndex, error) {
	score, err := s.current(ctx, userID)
	if err != nil {
		return nil, err
	}
	return utils.RiceIndex(score), nil
}

// current returns the stored score, or the base score for a user without one.
func (s *reputationService) current(ctx context.Context, userID int32) (*domain.ReputationScore, error) {
	score, err := s.reputationRepo.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewReputationScore(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reputation of user %d: %w", userID, err)
	}
	return score, nil
}

func (s *reputationService) Apply(ctx context.Context, ev *domain.ReputationEvent) (bool, error) {
	logger.EnterMethod("reputationService.Apply", "userID", ev.UserID, "event", ev.Key)

	for attempt := 1; attempt <= maxScoreAttempts; attempt++ {
		score, err := s.current(ctx, ev.UserID)
		if err != nil {
			logger.ExitMethodWithError("reputationService.Apply", err)
			return false, err
		}
		before := score.Value
		ev.Delta = utils.ApplyReputationEvent(score, ev)

		err = s.reputationRepo.Apply(ctx, score, ev)
		switch {
		case err == nil:
			logger.ExitMethod("reputationService.Apply", "before", before, "after", score.Value, "delta", ev.Delta)
			return true, nil
		case errors.Is(err, repository.ErrDuplicate):
			logger.ExitMethod("reputationService.Apply", "result", "already applied")
			return false, nil
		case errors.Is(err, repository.ErrConflict):
			logger.Debug("Reputation version moved, retrying", "userID", ev.UserID, "attempt", attempt)
			continue
		default:
			logger.ExitMethodWithError("reputationService.Apply", err)
			return false, fmt.Errorf("apply %s: %w", ev.Key, err)
		}
	}

	err := fmt.Errorf("apply %s after %d attempts: %w", ev.Key, maxScoreAttempts, repository.ErrConflict)
	logger.ExitMethodWithError("reputationService.Apply", err)
	return false, err
}
