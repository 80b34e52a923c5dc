package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/valponomarev/ImageViewer/internal/api"
	"github.com/valponomarev/ImageViewer/internal/blobcache"
	"github.com/valponomarev/ImageViewer/internal/config"
	"github.com/valponomarev/ImageViewer/internal/manifest"
	"github.com/valponomarev/ImageViewer/internal/netmon"
	"github.com/valponomarev/ImageViewer/internal/pipeline"
	"github.com/valponomarev/ImageViewer/internal/service"
	"github.com/valponomarev/ImageViewer/internal/storage"
)

const (
	configAppName = "app"
	configExt     = "env"
	configDir     = "config"
)

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout", "app_log.log"}
	cfg.ErrorOutputPaths = []string{"stderr", "app_log.log"}
	return cfg.Build()
}

func main() {
	zapLogger, err := newLogger()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "can init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	logger := zapLogger.Named("server")

	logger.Info("running server", zap.Int("pid", os.Getpid()))

	cfg, err := config.LoadAppConfig(configAppName, configExt, configDir)
	if err != nil || cfg == nil {
		logger.Fatal("cant read config, check file", zap.Error(err), zap.String("name", configAppName))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal("cant create data dir", zap.Error(err), zap.String("dir", cfg.DataDir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cache, err := blobcache.New(cfg.CacheDir)
	if err != nil {
		logger.Fatal("cant open blob cache", zap.Error(err), zap.String("dir", cfg.CacheDir))
	}

	store, err := newRecordStore(cfg)
	if err != nil {
		_ = cache.Close()
		logger.Fatal("cant open record store", zap.Error(err), zap.String("mode", cfg.StorageMode))
	}

	monitor, err := netmon.NewProbeMonitor(&netmon.ProbeConfig{
		Client:   &http.Client{Timeout: cfg.ProbeTimeout},
		URL:      cfg.ProbeURL,
		Interval: cfg.ProbeInterval,
	}, logger.Named("netmon"))
	if err != nil {
		logger.Fatal("cant create connectivity monitor", zap.Error(err))
	}
	monitor.Start(ctx)

	fetcher, err := manifest.NewFetcher(monitor, cache, &manifest.FetcherConfig{
		Client:    &http.Client{Timeout: cfg.FetchTimeout},
		URL:       cfg.ManifestURL,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		logger.Fatal("cant create manifest fetcher", zap.Error(err))
	}

	acquirer, err := pipeline.NewAcquirer(monitor, cache, store, logger.Named("pipeline"), &pipeline.Options{
		Client:         &http.Client{Timeout: cfg.FetchTimeout},
		UserAgent:      cfg.UserAgent,
		MaxConcurrent:  cfg.MaxConcurrentFetches,
		PreviewWidth:   cfg.PreviewWidth,
		PreviewHeight:  cfg.PreviewHeight,
		PreviewQuality: cfg.PreviewQuality,
	})
	if err != nil {
		logger.Fatal("cant create acquirer", zap.Error(err))
	}

	svc, err := service.NewImageService(store, cache, fetcher, acquirer, monitor, logger.Named("service"))
	if err != nil {
		logger.Fatal("cant create image service", zap.Error(err))
	}

	coord := service.NewRetryCoordinator(svc, monitor, cfg.SyncTimeout, logger.Named("retry"))
	coord.Start(ctx)

	if !svc.IsManifestCached() {
		go func() {
			syncCtx, canc := context.WithTimeout(ctx, cfg.SyncTimeout)
			defer canc()
			if err := svc.Sync(syncCtx); err != nil {
				logger.Warn("initial sync failed", zap.Error(err))
			}
		}()
	}

	srv, err := api.NewServer(&api.ServerOptions{
		Images: svc,
		Logger: logger,
		Addr:   cfg.ServerAddr,
	})
	if err != nil {
		logger.Fatal("cant create api server", zap.Error(err))
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.ServerAddr))
		if err := srv.Run(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				return
			}
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
	}

	offCtx, offCanc := context.WithTimeout(context.Background(), 30*time.Second)
	defer offCanc()
	if err := srv.Shutdown(offCtx); err != nil {
		logger.Error("cant shutdown server", zap.Error(err))
	}

	coord.Stop()
	monitor.Stop()
	if err := store.Close(); err != nil {
		logger.Error("cant close record store", zap.Error(err))
	}
	if err := cache.Close(); err != nil {
		logger.Error("cant close blob cache", zap.Error(err))
	}
	logger.Info("shutdown done")
}

func newRecordStore(cfg *config.AppConfig) (storage.RecordStore, error) {
	switch strings.ToLower(cfg.StorageMode) {
	case "memory":
		return storage.NewMemoryRecordStore(), nil
	case "bbolt":
		return storage.NewBoltRecordStore(filepath.Join(cfg.DataDir, "images.db"))
	}
	return nil, errors.New("unknown storage mode")
}
