package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rentflow-api/api/swagger"
	"github.com/noah-isme/rentflow-api/internal/handler"
	internalmiddleware "github.com/noah-isme/rentflow-api/internal/middleware"
	"github.com/noah-isme/rentflow-api/internal/repository"
	"github.com/noah-isme/rentflow-api/internal/service"
	"github.com/noah-isme/rentflow-api/pkg/cache"
	"github.com/noah-isme/rentflow-api/pkg/config"
	"github.com/noah-isme/rentflow-api/pkg/database"
	"github.com/noah-isme/rentflow-api/pkg/export"
	"github.com/noah-isme/rentflow-api/pkg/logger"
	"github.com/noah-isme/rentflow-api/pkg/messaging"
	corsmiddleware "github.com/noah-isme/rentflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rentflow-api/pkg/middleware/requestid"
)

// @title Rentflow API
// @version 0.1.0
// @description Lease, vacate and rent ledger workflow
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metrics := service.NewMetricsService()

	store, err := repository.OpenSnapshotStore(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	users, err := openUsers(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return err
	}

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("snapshot cache disabled; redis unavailable", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(repository.NewSnapshotCacheRepository(client, cfg.Cache.Key), metrics, cfg.Cache.SnapshotTTL, logr)
		}
	}

	var (
		dispatcher *service.EventDispatcher
		nc         *nats.Conn
	)
	var workflow *service.WorkflowService
	if cfg.Events.Enabled {
		nc, err = messaging.NewNATS(cfg.NATS, "rentflow-api", logr)
		if err != nil {
			_ = store.Close()
			return err
		}
		dispatcher = service.NewEventDispatcher(nc, service.EventDispatcherConfig{
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			Workers:       cfg.Events.Workers,
			Retries:       cfg.Events.Retries,
		}, metrics, logr)
		dispatcher.Start(ctx)
		workflow = service.NewWorkflowService(store, cacheSvc, dispatcher, metrics, validate, logr)
	} else {
		workflow = service.NewWorkflowService(store, cacheSvc, nil, metrics, validate, logr)
	}

	if err := workflow.Init(ctx); err != nil {
		shutdown(logr, workflow, dispatcher, nc)
		return fmt.Errorf("init workflow: %w", err)
	}

	auth := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	exporter := service.NewExportService(workflow, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/health", "/ready", "/metrics"))

	handler.RegisterRoutes(r, cfg.APIPrefix, auth, handler.Handlers{
		Auth:     handler.NewAuthHandler(auth),
		Snapshot: handler.NewSnapshotHandler(workflow),
		Lease:    handler.NewLeaseHandler(workflow),
		Vacate:   handler.NewVacateHandler(workflow),
		Ledger:   handler.NewLedgerHandler(workflow, exporter),
		Admin:    handler.NewAdminHandler(workflow),
		Metrics: handler.NewMetricsHandler(metrics, func(ctx context.Context) error {
			_, err := store.Load(ctx)
			return err
		}),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			shutdown(logr, workflow, dispatcher, nc)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	shutdown(logr, workflow, dispatcher, nc)
	return nil
}

func openUsers(ctx context.Context, cfg *config.Config) (service.UserSource, error) {
	switch cfg.Auth.UserSource {
	case config.UserSourceDatabase:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect user database: %w", err)
		}
		users := repository.NewUserRepository(db)
		if err := users.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return users, nil
	case config.UserSourceFile, "":
		directory, err := repository.LoadUserDirectory(cfg.Auth.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("load users file: %w", err)
		}
		return directory, nil
	default:
		return nil, fmt.Errorf("unknown user source %q", cfg.Auth.UserSource)
	}
}

// shutdown flushes queued events before the store closes.
func shutdown(logr *zap.Logger, workflow *service.WorkflowService, dispatcher *service.EventDispatcher, nc *nats.Conn) {
	if dispatcher != nil {
		dispatcher.Stop()
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logr.Warn("nats drain failed", zap.Error(err))
		}
	}
	if err := workflow.Close(); err != nil {
		logr.Warn("snapshot store close failed", zap.Error(err))
	}
}
