package service

import (
	"context"
	"fmt"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

type pointsService struct {
	pointsRepo repository.PointsRepository
}

func NewPointsService(pointsRepo repository.PointsRepository) PointsService {
	return &pointsService{pointsRepo: pointsRepo}
}

func (s *pointsService) Refund(ctx context.Context, req domain.RefundRequest) (bool, error) {
	if req.Amount <= 0 {
		return false, nil
	}
	tx := &domain.PointsTransaction{
		UserID:      req.UserID,
		MeetupID:    req.MeetupID,
		Amount:      req.Amount,
		Type:        domain.PointsTransactionRefund,
		Description: fmt.Sprintf("Deposit refund for cancelled meetup %d", req.MeetupID),
	}
	created, err := s.pointsRepo.CreateTransaction(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("record refund: %w", err)
	}
	logger.Info("Refund processed", "userID", req.UserID, "meetupID", req.MeetupID, "amount", req.Amount, "created", created)
	return created, nil
}

func (s *pointsService) Penalize(ctx context.Context, req domain.PenaltyRequest) (bool, error) {
	if req.Amount <= 0 {
		return false, nil
	}
	tx := &domain.PointsTransaction{
		UserID:      req.UserID,
		MeetupID:    req.MeetupID,
		Amount:      -req.Amount,
		Type:        domain.PenaltyTransactionType(req.Kind),
		Description: fmt.Sprintf("%s penalty for meetup %d", req.Kind, req.MeetupID),
	}
	created, err := s.pointsRepo.CreateTransaction(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("record penalty: %w", err)
	}
	logger.Info("Penalty processed", "userID", req.UserID, "meetupID", req.MeetupID, "kind", req.Kind, "created", created)
	return created, nil
}

func (s *pointsService) GetBalance(ctx context.Context, userID int32) (int32, error) {
	return s.pointsRepo.GetBalance(ctx, userID)
}

func (s *pointsService) GetTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PointsTransaction, int32, error) {
	return s.pointsRepo.ListTransactions(ctx, userID, page, pageSize)
}
