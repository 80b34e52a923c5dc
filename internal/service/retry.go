package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ConnectivityStream delivers availability transitions.
type ConnectivityStream interface {
	Subscribe(ctx context.Context) <-chan bool
}

// RetryCoordinator re-runs the full sync when connectivity returns and
// the manifest was never cached. A manifest that is cached but has
// failed items is NOT auto-retried; those go through RetryOne or an
// explicit RetryAll.
type RetryCoordinator struct {
	svc         *ImageService
	events      ConnectivityStream
	logger      *zap.Logger
	syncTimeout time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewRetryCoordinator(svc *ImageService, events ConnectivityStream, syncTimeout time.Duration, logger *zap.Logger) *RetryCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryCoordinator{
		svc:         svc,
		events:      events,
		logger:      logger,
		syncTimeout: syncTimeout,
	}
}

func (rc *RetryCoordinator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	rc.cancel = cancel

	ch := rc.events.Subscribe(runCtx)
	rc.wg.Add(1)
	go func() {
		defer rc.wg.Done()
		for available := range ch {
			if !available {
				continue
			}
			if rc.svc.IsManifestCached() {
				continue
			}
			rc.logger.Info("connectivity restored, syncing manifest")

			syncCtx, syncCancel := context.WithTimeout(runCtx, rc.syncTimeout)
			if err := rc.svc.Sync(syncCtx); err != nil {
				rc.logger.Warn("auto sync failed", zap.Error(err))
			}
			syncCancel()
		}
	}()
}

func (rc *RetryCoordinator) Stop() {
	rc.once.Do(func() {
		if rc.cancel != nil {
			rc.cancel()
		}
		rc.wg.Wait()
	})
}
