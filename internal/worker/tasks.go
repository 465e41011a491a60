// Package worker moves points ledger writes off the request path. State
// transitions enqueue refund and penalty tasks; the asynq server applies
// them with retries.
package worker

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"ricemeet-backend/internal/domain"
)

const (
	TypeRefund  = "points:refund"
	TypePenalty = "points:penalty"

	QueueDefault = "default"
)

// RefundTaskID keys a refund task so a deposit is queued at most once per
// (meetup, user) while the task is retained.
func RefundTaskID(meetupID, userID int32) string {
	return fmt.Sprintf("refund:%d:%d", meetupID, userID)
}

func PenaltyTaskID(kind domain.PenaltyKind, meetupID, userID int32) string {
	return fmt.Sprintf("penalty:%s:%d:%d", kind, meetupID, userID)
}

func NewRefundTask(req domain.RefundRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRefund, payload), nil
}

func NewPenaltyTask(req domain.PenaltyRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePenalty, payload), nil
}
