package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"

	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/config"
	"ricemeet-backend/internal/jobs"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository/postgres"
	"ricemeet-backend/internal/scheduler"
	"ricemeet-backend/internal/service"
	"ricemeet-backend/internal/worker"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'settle-ended-meetups', 'reconcile-refunds', 'reconcile-reputation', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Ricemeet Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Ledger writes go through the same queue the API server uses
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	taskClient := asynq.NewClient(redisOpt)
	defer taskClient.Close()
	taskInspector := asynq.NewInspector(redisOpt)
	defer taskInspector.Close()
	dispatcher := worker.NewDispatcher(taskClient, taskInspector, cfg.Worker.MaxRetry)

	// Initialize Services
	clk := clock.Real()
	reputationSvc := service.NewReputationService(store.ReputationRepository)
	penaltySvc := service.NewPenaltyService(
		store.MeetupRepository,
		store.ParticipantRepository,
		store.ReputationRepository,
		reputationSvc,
		dispatcher,
		service.NewNotificationSink(store.NotificationRepository),
		clk,
		service.PenaltyPolicy{
			NoShowPoints: int32(cfg.Points.NoShowPenalty),
			ReportPoints: int32(cfg.Points.ReportPenalty),
		},
	)

	jobServices := &jobs.Services{
		Penalty:    penaltySvc,
		Reputation: reputationSvc,
		Dispatcher: dispatcher,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, jobServices, cfg, clk)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "settle-ended-meetups":
		jobRunner.SettleEndedMeetups()
	case "reconcile-refunds":
		jobRunner.ReconcileRefunds()
	case "reconcile-reputation":
		jobRunner.ReconcileReputation()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - settle-ended-meetups\n")
		fmt.Printf("  - reconcile-refunds\n")
		fmt.Printf("  - reconcile-reputation\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
