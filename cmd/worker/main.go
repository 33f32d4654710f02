package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/avatarservice/internal/config"
	infradatabase "github.com/yokitheyo/avatarservice/internal/infrastructure/database"
	"github.com/yokitheyo/avatarservice/internal/infrastructure/kafka"
	"github.com/yokitheyo/avatarservice/internal/infrastructure/storage"
	"github.com/yokitheyo/avatarservice/internal/repository/postgres"
	"github.com/yokitheyo/avatarservice/internal/retry"
	"github.com/yokitheyo/avatarservice/internal/usecase"
	"github.com/yokitheyo/avatarservice/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Avatar Worker")

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
		zlog.Logger.Warn().Err(err).Msg("Migrations warning (might be already applied)")
	}

	storageService, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	jobs := postgres.NewAvatarJobRepository(database, retry.DefaultStrategy)
	profiles := postgres.NewProfileRepository(database, retry.DefaultStrategy)
	renderUsecase := usecase.NewRenderUsecase(jobs, profiles, storageService, cfg.Avatar.Config)
	avatarWorker := worker.NewAvatarWorker(renderUsecase)

	kafkaConsumer := kafka.NewConsumer(&cfg.Kafka, avatarWorker.HandleTask)
	defer kafkaConsumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := kafkaConsumer.Start(ctx); err != nil {
			zlog.Logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")
	<-done

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
