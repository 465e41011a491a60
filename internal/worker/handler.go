package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/service"
)

// PointsHandler applies queued refunds and penalties to the points ledger.
// Both ledger writes are idempotent, so redelivery is harmless.
type PointsHandler struct {
	points service.PointsService
}

func NewPointsHandler(points service.PointsService) *PointsHandler {
	return &PointsHandler{points: points}
}

func (h *PointsHandler) ProcessRefund(ctx context.Context, t *asynq.Task) error {
	var req domain.RefundRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		logger.Error("Failed to unmarshal refund payload", "error", err)
		return fmt.Errorf("unmarshal refund payload: %v: %w", err, asynq.SkipRetry)
	}

	retry, _ := asynq.GetRetryCount(ctx)
	logger.EnterMethod("PointsHandler.ProcessRefund", "meetupID", req.MeetupID, "userID", req.UserID, "retry", retry)
	created, err := h.points.Refund(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("PointsHandler.ProcessRefund", err)
		return err
	}
	logger.ExitMethod("PointsHandler.ProcessRefund", "created", created)
	return nil
}

func (h *PointsHandler) ProcessPenalty(ctx context.Context, t *asynq.Task) error {
	var req domain.PenaltyRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		logger.Error("Failed to unmarshal penalty payload", "error", err)
		return fmt.Errorf("unmarshal penalty payload: %v: %w", err, asynq.SkipRetry)
	}
	if !req.Kind.Valid() {
		return fmt.Errorf("unknown penalty kind %q: %w", req.Kind, asynq.SkipRetry)
	}

	retry, _ := asynq.GetRetryCount(ctx)
	logger.EnterMethod("PointsHandler.ProcessPenalty", "meetupID", req.MeetupID, "userID", req.UserID, "kind", req.Kind, "retry", retry)
	created, err := h.points.Penalize(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("PointsHandler.ProcessPenalty", err)
		return err
	}
	logger.ExitMethod("PointsHandler.ProcessPenalty", "created", created)
	return nil
}

// Register wires the handler into mux.
func (h *PointsHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRefund, h.ProcessRefund)
	mux.HandleFunc(TypePenalty, h.ProcessPenalty)
}
