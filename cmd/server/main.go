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

	"obra-patrimonio/internal/blob"
	"obra-patrimonio/internal/config"
	"obra-patrimonio/internal/database"
	"obra-patrimonio/internal/handlers"
	"obra-patrimonio/internal/logger"
	"obra-patrimonio/internal/middleware"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/server"
	"obra-patrimonio/internal/service"
	"obra-patrimonio/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "obra-patrimonio")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, lg)
	if err != nil {
		lg.Fatal("open database", zap.Error(err))
	}
	if err := database.SeedStatuses(db, cfg.StatusLabels, lg); err != nil {
		lg.Fatal("seed statuses", zap.Error(err))
	}
	if err := database.SeedSites(db, cfg.SiteCodes, lg); err != nil {
		lg.Fatal("seed sites", zap.Error(err))
	}

	var kv store.KV = store.NewMemoryKV()
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		kv = store.NewRedisKV(redisClient, "obra:")
		lg.Info("read cache backed by redis", zap.String("addr", cfg.RedisAddr))
	}
	gormStore := store.NewGormStore(db)
	cached := store.NewCached(gormStore, kv, cfg.CacheTTL, lg)

	ctx := context.Background()
	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		lg.Fatal("init blob storage", zap.Error(err))
	}

	reg, err := service.New(service.Options{
		Store:         cached,
		Fresh:         cached.Inner(),
		Blobs:         uploader,
		Labels:        registry.StatusLabels{Available: cfg.StatusAvailable, External: cfg.StatusExternal},
		AdminPassword: cfg.AdminPassword,
		Logger:        lg,
	})
	if err != nil {
		lg.Fatal("init registry", zap.Error(err))
	}

	tokens := middleware.NewTokens(cfg.JWTSecret, middleware.TokenTTL)
	r, err := server.NewRouter(cfg, handlers.New(reg, tokens, lg), tokens, lg)
	if err != nil {
		lg.Fatal("init router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DBDriver),
			zap.String("blob_backend", cfg.BlobBackend))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newUploader(ctx context.Context, cfg *config.Config) (blob.Uploader, error) {
	switch cfg.BlobBackend {
	case "drive":
		return blob.NewDriveStore(ctx, cfg.DriveCredentialsPath, cfg.DriveCredentialsJSON, cfg.DriveFolderID)
	case "local":
		return blob.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}
}
