package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
)

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is the part of *asynq.Inspector used to look behind a task
// ID conflict.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	RunTask(queue, id string) error
}

// Dispatcher implements service.PointsDispatcher on top of asynq.
type Dispatcher struct {
	client    Enqueuer
	inspector TaskInspector
	maxRetry  int
}

// NewDispatcher returns a dispatcher. inspector may be nil, in which case a
// conflicting task ID is only logged.
func NewDispatcher(client Enqueuer, inspector TaskInspector, maxRetry int) *Dispatcher {
	if maxRetry <= 0 {
		maxRetry = 10
	}
	return &Dispatcher{client: client, inspector: inspector, maxRetry: maxRetry}
}

func (d *Dispatcher) DispatchRefund(_ context.Context, req domain.RefundRequest) error {
	task, err := NewRefundTask(req)
	if err != nil {
		return fmt.Errorf("build refund task: %w", err)
	}
	return d.enqueue(task, RefundTaskID(req.MeetupID, req.UserID))
}

func (d *Dispatcher) DispatchPenalty(_ context.Context, req domain.PenaltyRequest) error {
	task, err := NewPenaltyTask(req)
	if err != nil {
		return fmt.Errorf("build penalty task: %w", err)
	}
	return d.enqueue(task, PenaltyTaskID(req.Kind, req.MeetupID, req.UserID))
}

func (d *Dispatcher) enqueue(task *asynq.Task, taskID string) error {
	logger.ExternalServiceCall("asynq", "Enqueue", "type", task.Type(), "taskID", taskID)

	info, err := d.client.Enqueue(task,
		asynq.TaskID(taskID),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(d.maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return d.resolveConflict(taskID)
	}
	logger.ExternalServiceResult("asynq", "Enqueue", err, "taskID", taskID)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskID, err)
	}
	logger.Debug("Task enqueued", "taskID", info.ID, "queue", info.Queue)
	return nil
}

// resolveConflict handles an ID that is still held by an earlier task. A
// pending or retrying task will write the ledger row itself. An archived one
// ran out of retries and is put back on the queue.
func (d *Dispatcher) resolveConflict(taskID string) error {
	if d.inspector == nil {
		logger.Warn("Task ID already in use, not re-enqueued", "taskID", taskID)
		return nil
	}
	logger.ExternalServiceCall("asynq", "GetTaskInfo", "taskID", taskID)
	info, err := d.inspector.GetTaskInfo(QueueDefault, taskID)
	logger.ExternalServiceResult("asynq", "GetTaskInfo", err, "taskID", taskID)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", taskID, err)
	}
	if info.State != asynq.TaskStateArchived {
		logger.Debug("Task already enqueued", "taskID", taskID, "state", info.State.String())
		return nil
	}

	logger.Warn("Re-running archived task", "taskID", taskID, "lastErr", info.LastErr)
	if err := d.inspector.RunTask(QueueDefault, taskID); err != nil {
		return fmt.Errorf("run archived %s: %w", taskID, err)
	}
	return nil
}
