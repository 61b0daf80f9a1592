package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/cache"
	"github.com/SAP-F-2025/feedback-analytics/internal/config"
	"github.com/SAP-F-2025/feedback-analytics/internal/dataset"
	"github.com/SAP-F-2025/feedback-analytics/internal/handlers"
	"github.com/SAP-F-2025/feedback-analytics/internal/llm"
	"github.com/SAP-F-2025/feedback-analytics/internal/metrics"
	"github.com/SAP-F-2025/feedback-analytics/internal/middleware"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/repositories"
	"github.com/SAP-F-2025/feedback-analytics/internal/repositories/postgres"
	"github.com/SAP-F-2025/feedback-analytics/internal/services"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
	"github.com/SAP-F-2025/feedback-analytics/internal/validator"
	"github.com/SAP-F-2025/feedback-analytics/pkg"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment, os.Stdout)
	slogger := utils.ToSlogLogger(logger)
	slog.SetDefault(slogger)

	if err := run(cfg, logger, slogger); err != nil {
		slogger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger, slogger *slog.Logger) error {
	cacheService, err := newCache(cfg, slogger)
	if err != nil {
		return err
	}

	var contactRepo repositories.ContactRepository
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		slogger.Warn("Database unavailable, contact form disabled", "error", err)
	} else {
		contactRepo = postgres.NewContactPostgreSQL(db)
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	sessions := session.NewManager(cacheService, cfg.SessionTTL, func() (*models.Dataset, error) {
		return dataset.LoadFile(cfg.DefaultDatasetPath)
	}, slogger)
	if _, err := sessions.DefaultDataset(); err != nil {
		slogger.Warn("Default dataset not loaded, sessions need an upload", "path", cfg.DefaultDatasetPath, "error", err)
	}

	m := metrics.New()
	serviceManager := services.NewServiceManager(services.Dependencies{
		Sessions:    sessions,
		Cache:       cacheService,
		Publisher:   publisher,
		Metrics:     m,
		Validator:   validator.New(),
		Logger:      slogger,
		ContactRepo: contactRepo,
		LLMFactory: llm.NewOpenAIFactory(llm.OpenAIConfig{
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		}),
		Chat: services.ChatOptions{
			APIKey:      cfg.OpenAI.APIKey,
			Temperature: cfg.OpenAI.Temperature,
			ContextRows: cfg.Chat.ContextRows,
		},
		MaxUploadBytes:   cfg.MaxUploadBytes,
		AnalysisCacheTTL: cfg.AnalysisCacheTTL,
	})

	var tokenParser middleware.TokenParser
	if cfg.Auth.Enabled {
		tokenParser = middleware.NewCasdoorParser(cfg.Auth)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		return err
	}
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(gin.Recovery(), utils.ContextLogger(logger), utils.LoggerMiddleware(logger))

	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router, handlers.RouteOptions{
		Sessions:    sessions,
		Metrics:     m,
		Auth:        tokenParser,
		ChatLimiter: middleware.NewRateLimiter(cfg.Chat.RateRPS, cfg.Chat.RateBurst, slogger),
		Logger:      logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slogger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newCache connects to Redis, falling back to an in-process cache outside production
func newCache(cfg *config.Config, logger *slog.Logger) (cache.CacheService, error) {
	client, err := pkg.NewRedisClient(cfg)
	if err == nil {
		return cache.NewRedisCache(client, logger), nil
	}
	if cfg.IsProduction() {
		return nil, err
	}
	logger.Warn("Redis unavailable, using in-memory cache", "error", err)
	return cache.NewMemoryCache(), nil
}
