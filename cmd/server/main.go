package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"

	httpapi "ricemeet-backend/internal/api/http"
	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/config"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository/postgres"
	"ricemeet-backend/internal/security"
	"ricemeet-backend/internal/service"
	"ricemeet-backend/internal/worker"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Ricemeet Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Redis configuration", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	qrTokens, err := security.NewQRTokenManager(cfg.JWT.Secret, cfg.Attendance.QRTokenTTL())
	if err != nil {
		log.Fatalf("Failed to initialize QR token manager: %v", err)
	}

	// Initialize task queue
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	taskClient := asynq.NewClient(redisOpt)
	defer taskClient.Close()
	taskInspector := asynq.NewInspector(redisOpt)
	defer taskInspector.Close()
	dispatcher := worker.NewDispatcher(taskClient, taskInspector, cfg.Worker.MaxRetry)

	// Initialize Services
	clk := clock.Real()
	events := service.NewNotificationSink(store.NotificationRepository)
	reputationSvc := service.NewReputationService(store.ReputationRepository)
	pointsSvc := service.NewPointsService(store.PointsRepository)
	noteSvc := service.NewNotificationService(store.NotificationRepository)
	meetupSvc := service.NewMeetupService(
		store.MeetupRepository,
		store.ParticipantRepository,
		reputationSvc,
		dispatcher,
		events,
		clk,
		int32(cfg.Attendance.DefaultRadiusMeters),
	)
	attendanceSvc := service.NewAttendanceService(
		store.MeetupRepository,
		store.ParticipantRepository,
		store.ConfirmationRepository,
		qrTokens,
		events,
		clk,
		service.AttendancePolicy{
			WindowBefore: cfg.Attendance.WindowBefore(),
			WindowAfter:  cfg.Attendance.WindowAfter(),
		},
	)
	reviewSvc := service.NewReviewService(
		store.MeetupRepository,
		store.ParticipantRepository,
		store.ReviewRepository,
		reputationSvc,
		events,
		clk,
	)
	penaltySvc := service.NewPenaltyService(
		store.MeetupRepository,
		store.ParticipantRepository,
		store.ReputationRepository,
		reputationSvc,
		dispatcher,
		events,
		clk,
		service.PenaltyPolicy{
			NoShowPoints: int32(cfg.Points.NoShowPenalty),
			ReportPoints: int32(cfg.Points.ReportPenalty),
		},
	)

	// Rate limiter for check-in attempts
	var limiter *httpapi.RateLimiter
	if !cfg.RateLimit.Disabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer redisClient.Close()
		limiter = httpapi.NewRateLimiter(httpapi.NewRedisCounter(redisClient), cfg.RateLimit.CheckInPerMinute, time.Minute)
	} else {
		logger.Warn("Check-in rate limiting disabled")
	}

	// Set up HTTP server
	handler := httpapi.NewHandler(httpapi.Services{
		Meetup:       meetupSvc,
		Attendance:   attendanceSvc,
		Review:       reviewSvc,
		Reputation:   reputationSvc,
		Penalty:      penaltySvc,
		Points:       pointsSvc,
		Notification: noteSvc,
	}, db)
	router := httpapi.NewRouter(handler, httpapi.NewAuthMiddleware(tokenManager), limiter)
	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Set up points worker
	workerSrv := worker.NewServer(redisOpt, cfg.Worker.Concurrency, worker.NewPointsHandler(pointsSvc))

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := workerSrv.Start(); err != nil {
			errCh <- fmt.Errorf("worker server: %w", err)
		}
	}()

	// Wait for interrupt signal or a server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("Received signal", "signal", sig.String())
	case err := <-errCh:
		logger.Error("Server failed", "error", err)
	}

	// Graceful shutdown
	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	workerSrv.Shutdown()
	logger.Info("Server stopped. Goodbye!")
}
