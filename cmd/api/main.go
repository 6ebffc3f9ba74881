package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triple-t/railbot/internal/config"
	httpDelivery "github.com/triple-t/railbot/internal/delivery/http"
	"github.com/triple-t/railbot/internal/delivery/http/handler"
	"github.com/triple-t/railbot/internal/infrastructure/line"
	"github.com/triple-t/railbot/internal/pkg/logger"
	"github.com/triple-t/railbot/internal/repository/cache"
	"github.com/triple-t/railbot/internal/repository/postgres"
	"github.com/triple-t/railbot/internal/usecase"
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

	log.Info("Starting Railbot API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

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

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Migrate schema and verify health
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Schema migration failed", zap.Error(err))
	}

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}

	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize Repositories
	timetableRepo := postgres.NewTimetableRepository(db)
	stateRepo := postgres.NewStateRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	replySink := line.NewClient(&cfg.Line, log)

	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	matchUC := usecase.NewMatchUseCase(timetableRepo, log)
	conversationUC := usecase.NewConversationUseCase(
		stateRepo,
		activityRepo,
		cacheRepo,
		matchUC,
		cfg.Cache.ResultTTL,
		log,
	)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP Handlers
	webhookHandler := handler.NewWebhookHandler(
		cfg.Line.ChannelSecret,
		conversationUC,
		replySink,
		log,
	)

	// 9. Initialize HTTP Server
	server := httpDelivery.NewServer(cfg, log, webhookHandler, db, redisClient)

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped")
}
