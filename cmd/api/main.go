package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"upload-coordinator/internal/adapters/eventbroker"
	natsbroker "upload-coordinator/internal/adapters/eventbroker/nats"
	"upload-coordinator/internal/adapters/handlers/http/chi"
	"upload-coordinator/internal/adapters/handlers/http/chi/v1/upload"
	"upload-coordinator/internal/adapters/repository/memory"
	"upload-coordinator/internal/adapters/repository/postgres"
	redisstore "upload-coordinator/internal/adapters/repository/redis"
	"upload-coordinator/internal/adapters/storage/minio"
	"upload-coordinator/internal/adapters/storage/s3"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/port"
	"upload-coordinator/internal/core/service/cleanup"
	uploadservice "upload-coordinator/internal/core/service/upload"
	"upload-coordinator/internal/logging"

	"github.com/redis/go-redis/v9"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Env.Env, cfg.Env.LogLevel)
	slog.SetDefault(logger)

	//storage
	objects, err := initObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init object store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}

	//session store
	sessions, closeSessions, err := initSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init session store", "backend", cfg.SessionStore.Backend, "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	//events
	publisher, err := initPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to init event publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	uploadService := uploadservice.NewUploadService(sessions, objects, publisher, cfg.Upload, logger)
	cleanupService := cleanup.NewCleanupService(sessions, objects, cfg.Upload.SessionTTL, logger)

	//http
	uploadHandler := upload.NewUploadHandlerV1(uploadService, upload.Limits{
		MaxJSONBody: int64(cfg.Server.MaxJSONBodySize),
		MaxPartBody: int64(cfg.Upload.MaxChunkSize),
	}, logger)

	router := chi.NewRouter(logger, uploadHandler, cfg.Env.Env, cfg.Server.RequestTimeout)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// stale multipart cleanup, disabled when UPLOAD_SWEEP_EVERY is 0
	if cfg.Upload.SweepEvery > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			initCleanupTask(ctx, cleanupService, cfg.Upload.SweepEvery, logger)
		}()
	}

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}

func initObjectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return s3.NewAdapter(ctx, cfg.S3, logger)
	default:
		return minio.NewAdapter(ctx, cfg.Minio, logger)
	}
}

func initSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.SessionStore, func(), error) {
	switch cfg.SessionStore.Backend {
	case "memory":
		logger.Warn("in-memory session store, sessions are lost on restart")
		return memory.NewSessionStore(), func() {}, nil

	case "postgres":
		db, err := initDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("db connection established")
		return postgres.NewSQLSessionStore(db), func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil

	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("redis connection established", "addr", cfg.Redis.Addr)
		return redisstore.NewSessionStore(client, cfg.Redis.KeyPrefix), func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis", "error", err)
			}
		}, nil
	}
}

func initPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (port.EventPublisher, error) {
	if cfg.URL == "" {
		logger.Info("NATS_URL not set, session events disabled")
		return eventbroker.NopPublisher{}, nil
	}
	return natsbroker.NewNATSPublisher(ctx, cfg, logger)
}

func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

func initCleanupTask(ctx context.Context, service port.CleanupService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("cleanup task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			report, err := service.CleanupStaleUploads(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("failed to cleanup stale uploads", "error", err)
			} else {
				logger.Info("cleanup task completed",
					"aborted", report.Aborted,
					"skipped", report.Skipped,
					"purged", report.Purged)
			}
		case <-ctx.Done():
			logger.Info("cleanup task stopped")
			return
		}
	}

}
