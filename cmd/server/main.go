package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/postboard/backend/internal/handlers"
	"github.com/anonto42/postboard/backend/internal/router"
	"github.com/anonto42/postboard/backend/pkg/config"
	"github.com/anonto42/postboard/backend/pkg/firebase"
	"github.com/anonto42/postboard/backend/pkg/storage"
	"github.com/anonto42/postboard/backend/validators"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}

// run starts the server and blocks until ctx is cancelled or the listener
// fails. Every exit path returns so deferred cleanup runs.
func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := config.SetupLogging(cfg); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB()

	images, err := newImageStore(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("initialize image storage: %w", err)
	}

	// Firebase login is optional
	var firebaseAuth handlers.IDTokenVerifier
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Info("Firebase credentials not configured, federated login disabled.")
	case err != nil:
		return fmt.Errorf("initialize firebase: %w", err)
	default:
		firebaseAuth = firebaseApp.AuthClient
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	logger := log.StandardLogger()
	router.SetupMiddleware(e, logger)
	if err := router.SetupRoutes(e, router.Deps{
		DB:            db.Postgres,
		Images:        images,
		FirebaseAuth:  firebaseAuth,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTTTL,
		MediaURL:      cfg.Storage.PublicURL,
		FeedLimit:     cfg.FeedLimit,
		AuthRateLimit: cfg.AuthRateLimit,
		Logger:        logger,
	}); err != nil {
		return fmt.Errorf("set up routes: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Starting server")
		serveErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newImageStore builds the image store selected by STORAGE_DRIVER.
func newImageStore(ctx context.Context, cfg *config.Config, db *config.DB) (storage.ImageStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageMinio:
		return storage.NewMinioStore(ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseSSL)
	case config.StorageGridFS:
		return storage.NewGridFSStore(db.Mongo.Database(cfg.Mongo.Database), cfg.Mongo.GridFSBucket)
	default:
		return storage.NewLocalStore(cfg.Storage.LocalDir)
	}
}
