// Package service orchestrates manifest sync, per-image retry, and
// cache lifecycle on top of the store, the blob cache, and the pipeline.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/valponomarev/ImageViewer/internal/core"
	"github.com/valponomarev/ImageViewer/internal/manifest"
	"github.com/valponomarev/ImageViewer/internal/storage"
)

type ManifestSource interface {
	Fetch(ctx context.Context) (string, error)
}

type Acquirer interface {
	AcquireAll(ctx context.Context, urls []string) error
	AcquireOne(ctx context.Context, url string) error
}

type Connectivity interface {
	Available() bool
}

// BlobStore is the slice of the blob cache the service needs.
type BlobStore interface {
	ReadManifest() (string, error)
	HasManifest() bool
	ReadBlob(name string) ([]byte, error)
	ClearAll() error
}

type ImageService struct {
	store    storage.RecordStore
	blobs    BlobStore
	fetcher  ManifestSource
	acquirer Acquirer
	conn     Connectivity
	logger   *zap.Logger
}

func NewImageService(
	store storage.RecordStore,
	blobs BlobStore,
	fetcher ManifestSource,
	acquirer Acquirer,
	conn Connectivity,
	logger *zap.Logger,
) (*ImageService, error) {
	if store == nil {
		return nil, errors.New("service: required record store")
	}
	if blobs == nil {
		return nil, errors.New("service: required blob store")
	}
	if fetcher == nil {
		return nil, errors.New("service: required manifest fetcher")
	}
	if acquirer == nil {
		return nil, errors.New("service: required acquirer")
	}
	if conn == nil {
		return nil, errors.New("service: required connectivity monitor")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ImageService{
		store:    store,
		blobs:    blobs,
		fetcher:  fetcher,
		acquirer: acquirer,
		conn:     conn,
		logger:   logger,
	}, nil
}

// Sync downloads the manifest, then acquires every image it names.
// A manifest fetch or read failure propagates typed; individual image
// failures do not — they end up as stub records.
func (s *ImageService) Sync(ctx context.Context) error {
	if _, err := s.fetcher.Fetch(ctx); err != nil {
		return err
	}
	return s.loadCached(ctx)
}

// RetryAll re-runs a full sync with the same semantics as the first one.
func (s *ImageService) RetryAll(ctx context.Context) error {
	return s.Sync(ctx)
}

// RetryOne re-acquires a single image by record ID (its URL). The error
// is surfaced to the caller instead of being folded into a stub; a
// failed retry leaves the existing record as is.
func (s *ImageService) RetryOne(ctx context.Context, id string) error {
	if id == "" {
		return core.NewValidationError("required image id")
	}
	if !s.conn.Available() {
		return core.NewNoConnectivityError()
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return core.NewStorageError("load record", err)
	}
	if rec == nil {
		return core.NewRecordNotFoundError(id)
	}

	return s.acquirer.AcquireOne(ctx, id)
}

// loadCached re-parses the cached manifest and fans out acquisition.
func (s *ImageService) loadCached(ctx context.Context) error {
	raw, err := s.blobs.ReadManifest()
	if err != nil {
		return core.NewStorageError("read cached manifest", err)
	}

	urls := manifest.ParseURLs(raw)
	s.logger.Info("manifest parsed", zap.Int("urls", len(urls)))

	return s.acquirer.AcquireAll(ctx, urls)
}

func (s *ImageService) List(ctx context.Context) ([]*core.ImageRecord, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, core.NewStorageError("list records", err)
	}
	return recs, nil
}

func (s *ImageService) Get(ctx context.Context, id string) (*core.ImageRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, core.NewStorageError("load record", err)
	}
	if rec == nil {
		return nil, core.NewRecordNotFoundError(id)
	}
	return rec, nil
}

func (s *ImageService) Watch(ctx context.Context) (<-chan []*core.ImageRecord, error) {
	ch, err := s.store.Watch(ctx)
	if err != nil {
		return nil, core.NewStorageError("watch records", err)
	}
	return ch, nil
}

func (s *ImageService) WatchRecord(ctx context.Context, id string) (<-chan *core.ImageRecord, error) {
	ch, err := s.store.WatchRecord(ctx, id)
	if err != nil {
		return nil, core.NewStorageError("watch record", err)
	}
	return ch, nil
}

func (s *ImageService) IsManifestCached() bool {
	return s.blobs.HasManifest()
}

func (s *ImageService) NetworkAvailable() bool {
	return s.conn.Available()
}

func (s *ImageService) ReadBlob(name string) ([]byte, error) {
	data, err := s.blobs.ReadBlob(name)
	if err != nil {
		return nil, core.NewRecordNotFoundError(name)
	}
	return data, nil
}

// ClearCache resets to the empty state: records first, then blobs. The
// two stores are independent, so a partial failure is possible; both
// halves are always attempted and failures are reported together.
func (s *ImageService) ClearCache(ctx context.Context) error {
	var errs []error
	if err := s.store.Clear(ctx); err != nil {
		errs = append(errs, core.NewStorageError("clear records", err))
	}
	if err := s.blobs.ClearAll(); err != nil {
		errs = append(errs, core.NewStorageError("clear blobs", err))
	}
	return errors.Join(errs...)
}
