package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/database"
	"github.com/noah-isme/gema-grader/internal/export"
	"github.com/noah-isme/gema-grader/internal/grading"
	"github.com/noah-isme/gema-grader/internal/handler"
	"github.com/noah-isme/gema-grader/internal/middleware"
	"github.com/noah-isme/gema-grader/internal/repository"
	"github.com/noah-isme/gema-grader/internal/router"
	"github.com/noah-isme/gema-grader/internal/service"
	"github.com/noah-isme/gema-grader/pkg/ai"
	"github.com/noah-isme/gema-grader/pkg/envelope"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	model, err := ai.New(ctx, ai.Config{
		Provider:        cfg.AIProvider,
		Model:           cfg.AIModel,
		MaxTokens:       cfg.AIMaxTokens,
		Temperature:     float32(cfg.AITemperature),
		GeminiAPIKey:    cfg.GeminiAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.AIProvider).Msg("failed to create model client")
	}

	var localHistory repository.LocalHistoryRepository
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer closeRedis(redisClient, logger)
		localHistory = repository.NewLocalHistoryRepository(redisClient, cfg.HistoryKey, cfg.HistoryLimit)
	} else {
		logger.Warn().Msg("redis not configured, local history disabled")
	}

	var (
		cloudHistory repository.CloudHistoryRepository
		sealer       *envelope.Sealer
	)
	if cfg.DatabaseURL != "" && cfg.HistorySecret != "" {
		db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		sealer, err = envelope.NewSealer(cfg.HistorySecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create history sealer")
		}
		cloudHistory = repository.NewCloudHistoryRepository(db)
	} else {
		logger.Warn().Msg("database or history secret not configured, cloud history disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	synthesizer := grading.NewSynthesizer(model, cfg.SynthesisTimeout, logger)
	orchestrator := grading.NewOrchestrator(model, grading.NewParser(logger), grading.OrchestratorConfig{
		Concurrency: cfg.GradingConcurrency,
		CallTimeout: cfg.GradingCallTimeout,
	}, logger)

	historyService := service.NewHistoryService(localHistory, cloudHistory, sealer, logger)
	gradingService := service.NewGradingService(
		synthesizer,
		orchestrator,
		export.NewWorkbookExporter(),
		historyService,
		service.NewBatchNotifier(natsConn, cfg.NATSSubject),
		logger,
	)

	gradingHandler := handler.NewGradingHandler(gradingService, validate, cfg.MaxSubmissions, logger)
	historyHandler := handler.NewHistoryHandler(historyService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.UploadLimitBytes(),
		ReadTimeout:  time.Minute,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, SkipCORS: router.SkipCORS})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler: gradingHandler,
		HistoryHandler: historyHandler,
		JWTMiddleware:  middleware.JWTIdentity(cfg.JWTSecret),
		GradeLimiter:   middleware.RateLimit("grade", cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func closeRedis(client *redis.Client, logger zerolog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close redis client")
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
