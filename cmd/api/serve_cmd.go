package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/personnel-api/internal/config"
	"github.com/personnel-api/internal/database"
	"github.com/personnel-api/internal/handler"
	"github.com/personnel-api/internal/repository"
	"github.com/personnel-api/internal/service"
	"github.com/personnel-api/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(envFiles *[]string) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFiles...)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, !skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply migrations on startup")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	logger := newLogger(cfg)

	// Подключение к БД
	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	// Запуск миграций
	if migrate {
		if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			return err
		}
	}

	pictures, err := storage.NewFSPictureStorage(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return err
	}

	// Инициализация репозиториев
	subRepo := repository.NewSubdivisionRepository(db)
	workerRepo := repository.NewWorkerRepository(db)

	// Инициализация сервисов
	subService := service.NewSubdivisionService(subRepo, time.Now)
	workerService := service.NewWorkerService(workerRepo, subRepo, pictures, time.Now)

	// Инициализация хендлеров
	subHandler := handler.NewSubdivisionHandler(subService, logger)
	workerHandler := handler.NewWorkerHandler(workerService, cfg.Uploads.MaxBytes, logger)

	// Настройка роутера
	router := handler.NewRouter(handler.RouterConfig{
		MetricsPath: cfg.Server.MetricsPath,
		UploadsDir:  cfg.Uploads.Dir,
	}, subHandler, workerHandler, logger)

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		select {
		case <-quit:
		case <-ctx.Done():
		}
		logger.Info("server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("could not gracefully shutdown the server", slog.Any("error", err))
		}
		close(done)
	}()

	logger.Info("server is starting",
		slog.String("port", cfg.Server.Port),
		slog.String("db_driver", cfg.Database.Driver),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
