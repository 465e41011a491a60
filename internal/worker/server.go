package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"ricemeet-backend/internal/logger"
)

// Server runs the asynq worker that drains the points queue.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewServer(redisOpt asynq.RedisClientOpt, concurrency int, handler *PointsHandler) *Server {
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("Task failed", "type", task.Type(), "retry", retry, "maxRetry", maxRetry, "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	handler.Register(mux)
	return &Server{server: srv, mux: mux}
}

// Start blocks until the server stops. Call it in its own goroutine.
func (s *Server) Start() error {
	logger.Info("Worker server starting")
	if err := s.server.Run(s.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
		return err
	}
	logger.Info("Worker server stopped")
	return nil
}

func (s *Server) Shutdown() {
	logger.Info("Shutting down worker server")
	s.server.Shutdown()
}
