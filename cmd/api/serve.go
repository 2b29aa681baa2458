package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/sus/internal/auth"
	"github.com/SergeiKhy/sus/internal/config"
	"github.com/SergeiKhy/sus/internal/handler"
	"github.com/SergeiKhy/sus/internal/middleware"
	"github.com/SergeiKhy/sus/internal/repository"
	"github.com/SergeiKhy/sus/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Инициализация логгера
	logger, level, err := newLogger(cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Хранилище ссылок (postgres или sqlite)
	linkRepo, closeStore, err := openStore(ctx, cfg.DB, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer closeStore()

	// Подключение к Redis
	redis, err := repository.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to Redis", zap.Error(err))
		return err
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев и сервиса
	cacheRepo := repository.NewCacheRepository(redis)
	sessions := auth.NewSessionManager(cfg.Session, repository.NewSessionRepository(redis))
	linkService := service.NewLinkService(linkRepo, cacheRepo, logger)

	// Без OAuth-клиента вход недоступен, сессии выпускаются командой token
	var provider handler.IdentityProvider
	if cfg.OAuth.ClientID != "" {
		oauthProvider := auth.NewOAuthProvider(cfg.OAuth)
		provider = oauthProvider
		logger.Info("OAuth sign-in enabled", zap.String("provider", oauthProvider.ID()))
	} else {
		logger.Warn("OAUTH_CLIENT_ID is not set, sign-in is disabled")
	}

	rateLimiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	// Настройка роутера
	router := handler.NewRouter(handler.RouterConfig{
		LinkService: linkService,
		Sessions:    sessions,
		Provider:    provider,
		Store:       linkRepo,
		RateLimiter: rateLimiter,
		BaseURL:     cfg.App.BaseURL,
		Logger:      logger,
	})

	// LOG_LEVEL меняется без перезапуска
	config.Watch(func(updated *config.Config) {
		newLevel := parseLevel(updated.App.LogLevel, level.Level())
		if newLevel != level.Level() {
			level.SetLevel(newLevel)
			logger.Info("Log level changed", zap.String("level", newLevel.String()))
		}
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port), zap.String("base_url", cfg.App.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful Shutdown
	select {
	case err := <-serverErr:
		logger.Error("Failed to start server", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}
