package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	donationapp "github.com/sharehub/backend/internal/application/donation"
	"github.com/sharehub/backend/internal/infrastructure/config"
	"github.com/sharehub/backend/internal/infrastructure/logger"
	"github.com/sharehub/backend/internal/infrastructure/notification"
	"github.com/sharehub/backend/internal/infrastructure/persistence"
	"github.com/sharehub/backend/internal/infrastructure/storage"
	"github.com/sharehub/backend/internal/interfaces/http/handler"
	"github.com/sharehub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromLogConfig(cfg.Log, cfg.App.Env))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting donation API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	// PostgreSQL schemas are managed by cmd/migrate
	if cfg.Database.IsSQLite() {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	ctx := context.Background()

	images, err := newImageStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	queue, err := notification.NewQueue(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize notification queue", zap.Error(err))
	}
	defer func() { _ = queue.Close() }()

	mailer, err := notification.NewMailer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	dispatcher := notification.NewDispatcher(queue, mailer, log, notification.DispatcherConfig{
		Workers:     cfg.Notification.Workers,
		SendTimeout: cfg.Notification.SendTimeout,
	})
	if cfg.Notification.Enabled {
		if err := dispatcher.Start(ctx); err != nil {
			log.Fatal("Failed to start notification dispatcher", zap.Error(err))
		}
	}

	service := donationapp.NewService(
		persistence.NewGormDonationRepository(db.DB),
		donationapp.NewUploadHandler(images, cfg.Upload.MaxFileSize),
		queue,
		log.Named("donation"),
	)
	service.SetConfig(donationapp.ServiceConfig{
		NotifyOnCreate: cfg.Notification.Enabled,
		EmailSubject:   cfg.Notification.Subject,
	})

	engine := router.NewEngine(router.EngineConfig{
		HTTP:   cfg.HTTP,
		Upload: cfg.Upload,
		Logger: log,
		Health: handler.NewHealthHandler(db).Check,
	}, handler.NewDonationHandler(service))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("base_path", cfg.HTTP.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn("Notification dispatcher did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newImageStore builds the upload backend selected by upload.backend
func newImageStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (donationapp.ImageStore, error) {
	if cfg.Upload.Backend == "s3" {
		store, err := storage.NewS3ImageStore(ctx, &cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("Using S3 image storage", zap.String("bucket", store.Bucket()))
		return store, nil
	}

	store, err := storage.NewFileSystemImageStore(cfg.Upload.Dir, cfg.Upload.PublicPath, cfg.Notification.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("Using filesystem image storage", zap.String("dir", store.Dir()))
	return store, nil
}
