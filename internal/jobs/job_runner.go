package jobs

import (
	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/config"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository/postgres"
	"ricemeet-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    *postgres.Store
	services *Services
	config   *config.Config
	clock    clock.Clock
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Penalty    service.PenaltyService
	Reputation service.ReputationService
	Dispatcher service.PointsDispatcher
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store *postgres.Store, services *Services, cfg *config.Config, clk clock.Clock) *JobRunner {
	if clk == nil {
		clk = clock.Real()
	}
	return &JobRunner{
		store:    store,
		services: services,
		config:   cfg,
		clock:    clk,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SettleEndedMeetups()
	jr.ReconcileRefunds()
	jr.ReconcileReputation()
}
