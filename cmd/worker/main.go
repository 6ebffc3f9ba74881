package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triple-t/railbot/internal/config"
	"github.com/triple-t/railbot/internal/infrastructure/ptx"
	"github.com/triple-t/railbot/internal/pkg/logger"
	"github.com/triple-t/railbot/internal/repository/postgres"
	"github.com/triple-t/railbot/internal/usecase"
	"github.com/triple-t/railbot/internal/worker"
	"github.com/triple-t/railbot/internal/worker/ingest"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Railbot Ingest Worker")
	log.Info("Configuration loaded",
		zap.String("run_at", cfg.Ingest.RunAt),
		zap.Int("tra_window_days", cfg.Ingest.TRAWindowDays),
		zap.Int("thsr_window_days", cfg.Ingest.THSRWindowDays),
		zap.Bool("run_on_startup", cfg.Ingest.RunOnStartup))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Migrate schema
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migrateCancel()
	if err := db.Migrate(migrateCtx); err != nil {
		log.Fatal("Schema migration failed", zap.Error(err))
	}

	// 5. Initialize repositories
	timetableRepo := postgres.NewTimetableRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	feed := ptx.NewClient(&cfg.Feed, log)

	// 6. Initialize use cases
	ingestUC := usecase.NewIngestUseCase(feed, timetableRepo, ledgerRepo, log)

	// 7. Initialize workers
	ingestWorker := ingest.NewWorker(cfg.Ingest, ingestUC, log)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(ingestWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker stopped")
}
