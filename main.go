package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/config"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/database"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/handlers"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/llm"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/notify"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/repositories"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/services/workqueue"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Local development secrets; missing file is fine in deployed environments
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Database),
		zap.String("ai_model", cfg.AI.Model),
		zap.Bool("monitoring", cfg.Monitoring.IsAvailable()),
		zap.Int("max_concurrent_checks", cfg.Worker.MaxConcurrentChecks))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connStr := cfg.Database.ConnectionString()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint:    cfg.AI.Endpoint,
		Model:       cfg.AI.Model,
		APIKey:      cfg.AI.APIKey,
		Temperature: cfg.AI.Temperature,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create classifier client", zap.Error(err))
	}

	notifier := notify.NewCheckNotifier(cfg.Monitoring, logger)

	queue := workqueue.New(logger,
		workqueue.WithMaxConcurrent(cfg.Worker.MaxConcurrentChecks),
		workqueue.WithRetryConfig(workqueue.DefaultRetryConfig()))

	medicationRepo := repositories.NewMedicationRepository(db)
	userMedRepo := repositories.NewUserMedicationRepository(db)
	interactionRepo := repositories.NewInteractionRepository(db)
	alertRepo := repositories.NewInteractionAlertRepository(db)

	checker := services.NewInteractionChecker(medicationRepo, interactionRepo, llmClient, logger)
	alertService := services.NewInteractionAlertService(alertRepo, logger)

	checkTaskFactory := func(userMedicationID int64) workqueue.Task {
		return services.NewCheckInteractionsTask(userMedicationID, userMedRepo, checker, alertService, notifier, logger)
	}
	userMedicationService := services.NewUserMedicationService(userMedRepo, medicationRepo, queue, checkTaskFactory, logger)

	mux := http.NewServeMux()
	requireUser := handlers.RequireUser(logger)
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewUserMedicationHandler(userMedicationService, logger).RegisterRoutes(mux, requireUser)
	handlers.NewAlertHandler(alertService, logger).RegisterRoutes(mux, requireUser)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting dosetrack-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// Stop background checks; in-flight attempts see the cancelled context.
	queue.Cancel()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
