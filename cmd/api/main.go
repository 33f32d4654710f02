package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
	httpHandler "github.com/yokitheyo/avatarservice/internal/handler/http"
	"github.com/yokitheyo/avatarservice/internal/handler/middleware"
	"github.com/yokitheyo/avatarservice/internal/infrastructure/auth"
	infradatabase "github.com/yokitheyo/avatarservice/internal/infrastructure/database"
	"github.com/yokitheyo/avatarservice/internal/infrastructure/kafka"
	"github.com/yokitheyo/avatarservice/internal/infrastructure/storage"
	"github.com/yokitheyo/avatarservice/internal/repository/postgres"
	"github.com/yokitheyo/avatarservice/internal/retry"
	"github.com/yokitheyo/avatarservice/internal/usecase"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Avatar API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	database, err := infradatabase.Connect(&cfg.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}
	defer infradatabase.Close(database)

	zlog.Logger.Info().Msg("Running database migrations...")
	if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Migrations failed")
	}

	storageService, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	authenticator, err := auth.New(&cfg.Auth)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize authenticator")
	}

	kafkaProducer := kafka.NewProducer(&cfg.Kafka)
	defer kafkaProducer.Close()

	profiles := postgres.NewProfileRepository(database, retry.DefaultStrategy)
	jobs := postgres.NewAvatarJobRepository(database, retry.DefaultStrategy)

	accountUsecase := usecase.NewAccountUsecase(profiles)
	avatarUsecase := usecase.NewAvatarUsecase(profiles, jobs, storageService, kafkaProducer, usecase.AvatarOptions{
		MaxUploadSize:       int64(cfg.Server.MaxUploadSizeMB) * 1024 * 1024,
		AllowedContentTypes: cfg.Avatar.AllowedContentTypes,
		MaxDPR:              cfg.Avatar.MaxDPR,
	})

	engine := ginext.New(cfg.Server.GinMode)
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})

	authMiddleware := middleware.AuthMiddleware(authenticator)
	httpHandler.NewAccountHandler(accountUsecase).RegisterRoutes(engine, authMiddleware)
	httpHandler.NewAvatarHandler(avatarUsecase, cfg.Server.MaxUploadSizeMB).RegisterRoutes(engine, authMiddleware)

	if cfg.Storage.Type == "local" {
		engine.Static("/media", cfg.Storage.LocalPath)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	zlog.Logger.Info().Msg("API shutdown complete")
}
