package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"taskdesk/internal/config"
	"taskdesk/internal/handler"
	"taskdesk/internal/middleware"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/repository"
	"taskdesk/internal/scheduler"
	"taskdesk/internal/service"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.Debug); err != nil {
		logger.Error("failed to initialise logger", zap.Error(err))
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := config.NewDB(cfg)
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repository.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate database", zap.Error(err))
		os.Exit(1)
	}

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var minioClient *minio.Client
	if cfg.MinIOEndpoint != "" {
		minioClient, err = config.NewMinIOClient(cfg)
		if err != nil {
			logger.Warn("minio unavailable, uploads disabled", zap.Error(err))
			minioClient = nil
		}
	}

	sender, err := service.NewMailSender(cfg)
	if err != nil {
		logger.Error("failed to configure mail sender", zap.Error(err))
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, redisClient, minioClient, sender, cfg)
	handlers := handler.NewHandlers(services, cfg)

	go services.Outbox.Run(ctx)

	var jobs *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		jobs = scheduler.New(services.Reminder, services.Outbox, services.Sessions,
			scheduler.WithSweepSchedule(cfg.ReminderSweepSchedule),
			scheduler.WithOutboxSchedule(cfg.OutboxSchedule),
			scheduler.WithSessionSchedule(cfg.SessionCleanupSchedule),
		)
		if err := jobs.Start(); err != nil {
			logger.Error("failed to start scheduler", zap.Error(err))
			os.Exit(1)
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    12 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.Metrics())
	app.Use(middleware.RequestLogger("/health", "/metrics"))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: cfg.CORSOrigins != "" && cfg.CORSOrigins != "*",
	}))

	handler.SetupRoutes(app, handlers, services.Auth)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if jobs != nil {
			<-jobs.Stop().Done()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("failed to start server", zap.Error(err))
		os.Exit(1)
	}
}
