package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"filebox-backend/internal/api"
	"filebox-backend/internal/auth"
	"filebox-backend/internal/config"
	"filebox-backend/internal/logging"
	"filebox-backend/internal/repository"
	"filebox-backend/internal/service"
	"filebox-backend/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	// Load .env BEFORE reading the configuration; existing variables win
	dotenvErr := config.LoadDotEnv()

	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	if dotenvErr != nil {
		logger.WithError(dotenvErr).Debug("no .env file loaded, using the existing environment")
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	// Credential store (migrations run on open)
	store, err := repository.Open(initCtx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to open credential store")
	}
	defer store.Close()
	logger.WithField("driver", cfg.StoreDriver).Info("credential store ready")

	// File storage
	files, err := storage.New(initCtx, storage.Config{
		Driver:          cfg.StorageDriver,
		UploadDir:       cfg.UploadDir,
		Bucket:          cfg.AWSBucketName,
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		Prefix:          cfg.S3Prefix,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize file storage")
	}
	logger.WithField("driver", cfg.StorageDriver).Info("file storage ready")

	// Sessions
	sessions, err := auth.NewSessionStore(cfg.SessionDriver, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize session store")
	}

	// Services
	userService := service.NewUserService(store, logger)
	fileService, err := service.NewFileService(files, cfg.DownloadPolicy, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize file service")
	}

	// HTTP layer
	handler := api.NewHandler(userService, fileService, sessions, logger, api.Options{
		SignupRolePolicy:   cfg.SignupRolePolicy,
		CookieSecure:       cfg.CookieSecure,
		SessionTTL:         cfg.SessionTTL,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Minute, // uploads
		WriteTimeout: 5 * time.Minute, // downloads
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if mem, ok := sessions.(*auth.MemorySessionStore); ok {
		go sweepSessions(ctx, mem, logger)
	}

	go func() {
		logger.Infof("server listening on http://localhost:%d", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		return
	}
	logger.Info("server stopped")
}

func sweepSessions(ctx context.Context, store *auth.MemorySessionStore, logger logrus.FieldLogger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debugf("expired sessions removed: %d", n)
			}
		}
	}
}
