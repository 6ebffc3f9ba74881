package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/triple-t/railbot/internal/config"
	"github.com/triple-t/railbot/internal/delivery/http/handler"
	"github.com/triple-t/railbot/internal/delivery/http/middleware"
	"github.com/triple-t/railbot/internal/repository/cache"
	"github.com/triple-t/railbot/internal/repository/postgres"
	"go.uber.org/zap"
)

// Server is the Fiber HTTP surface: the LINE webhook callback plus health
// and index endpoints.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	webhookHandler *handler.WebhookHandler
	db             *postgres.DB
	redis          *cache.Redis
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	webhookHandler *handler.WebhookHandler,
	db *postgres.DB,
	redis *cache.Redis,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Railbot",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		webhookHandler: webhookHandler,
		db:             db,
		redis:          redis,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello From Triple T. This is a train timetable bot.")
	})

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx := c.Context()
		if err := s.db.Health(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  "database unreachable",
			})
		}
		if err := s.redis.Health(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  "cache unreachable",
			})
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	s.app.Post("/callback", s.webhookHandler.Callback)
}

func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": err.Error(),
			},
		})
	}
}
