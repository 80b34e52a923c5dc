// Package pipeline turns image URLs into cached blobs and durable
// records: fetch, decode, resize, encode, persist.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valponomarev/ImageViewer/internal/core"
)

type Connectivity interface {
	Available() bool
}

type BlobWriter interface {
	WriteBlob(name string, data []byte) (string, error)
}

type RecordWriter interface {
	Put(ctx context.Context, rec *core.ImageRecord) error
}

type Options struct {
	Client    *http.Client `validate:"required"`
	UserAgent string

	MaxConcurrent  int `validate:"min=1"`
	PreviewWidth   int `validate:"min=1"`
	PreviewHeight  int `validate:"min=1"`
	PreviewQuality int `validate:"min=1,max=100"`
}

// Acquirer downloads images and persists origin + preview blobs plus the
// metadata record for each URL.
type Acquirer struct {
	client  *http.Client
	conn    Connectivity
	blobs   BlobWriter
	records RecordWriter
	logger  *zap.Logger

	userAgent      string
	maxConcurrent  int
	previewWidth   int
	previewHeight  int
	previewQuality int
}

func NewAcquirer(conn Connectivity, blobs BlobWriter, records RecordWriter, logger *zap.Logger, opts *Options) (*Acquirer, error) {
	if conn == nil {
		return nil, fmt.Errorf("pipeline: required connectivity monitor")
	}
	if blobs == nil {
		return nil, fmt.Errorf("pipeline: required blob writer")
	}
	if records == nil {
		return nil, fmt.Errorf("pipeline: required record writer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validator.New().Struct(opts); err != nil {
		return nil, err
	}

	return &Acquirer{
		client:         opts.Client,
		conn:           conn,
		blobs:          blobs,
		records:        records,
		logger:         logger,
		userAgent:      opts.UserAgent,
		maxConcurrent:  opts.MaxConcurrent,
		previewWidth:   opts.PreviewWidth,
		previewHeight:  opts.PreviewHeight,
		previewQuality: opts.PreviewQuality,
	}, nil
}

// itemResult is the tagged outcome of one URL's acquisition.
type itemResult struct {
	url         string
	previewPath string
	originPath  string
	err         error
}

// AcquireAll fans out one acquisition per URL, capped at MaxConcurrent
// in flight, and blocks until every item has finished. Item failures are
// reduced into stub records and never escape this call; AcquireAll only
// returns an error if ctx was already dead.
func (a *Acquirer) AcquireAll(ctx context.Context, urls []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	g := &errgroup.Group{}
	g.SetLimit(a.maxConcurrent)

	for _, url := range urls {
		url := url
		g.Go(func() error {
			res := a.acquire(ctx, url)
			if res.err != nil {
				a.logger.Warn("image acquisition failed",
					zap.String("url", url),
					zap.Error(res.err),
				)
			}
			if err := a.commit(ctx, res); err != nil {
				a.logger.Error("record upsert failed",
					zap.String("url", url),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
	a.logger.Info("acquisition finished",
		zap.Int("urls", len(urls)),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

// AcquireOne runs a single acquisition and surfaces its error to the
// caller. Unlike AcquireAll it writes no stub on failure; the previous
// record for the URL, if any, is left untouched.
func (a *Acquirer) AcquireOne(ctx context.Context, url string) error {
	res := a.acquire(ctx, url)
	if res.err != nil {
		return res.err
	}
	return a.commit(ctx, res)
}

// acquire performs the fetch → decode → resize → encode → persist steps
// for one URL. It touches only the blob cache; the record upsert happens
// in commit.
func (a *Acquirer) acquire(ctx context.Context, url string) itemResult {
	res := itemResult{url: url}

	if !a.conn.Available() {
		res.err = core.NewNoConnectivityError()
		return res
	}

	origin, err := a.fetch(ctx, url)
	if err != nil {
		res.err = err
		return res
	}

	img, err := imaging.Decode(bytes.NewReader(origin))
	if err != nil {
		res.err = core.NewDecodeError("decode image", err)
		return res
	}

	// Fixed-dimension resize: the preview is stretched to exactly
	// width x height, aspect ratio intentionally not preserved.
	preview := imaging.Resize(img, a.previewWidth, a.previewHeight, imaging.Lanczos)

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, preview, imaging.JPEG, imaging.JPEGQuality(a.previewQuality)); err != nil {
		res.err = core.NewDecodeError("encode preview", err)
		return res
	}

	originPath, err := a.blobs.WriteBlob(OriginBlobName(url), origin)
	if err != nil {
		res.err = core.NewStorageError("write origin blob", err)
		return res
	}
	previewPath, err := a.blobs.WriteBlob(PreviewBlobName(url), encoded.Bytes())
	if err != nil {
		res.err = core.NewStorageError("write preview blob", err)
		return res
	}

	res.originPath = originPath
	res.previewPath = previewPath
	return res
}

// commit reduces an item result into the record upsert: paths on
// success, a stub on failure.
func (a *Acquirer) commit(ctx context.Context, res itemResult) error {
	rec := core.NewStubRecord(res.url)
	if res.err == nil {
		rec = core.NewRecord(res.url, res.previewPath, res.originPath)
	}
	if err := a.records.Put(ctx, rec); err != nil {
		return core.NewStorageError("upsert record", err)
	}
	return nil
}

func (a *Acquirer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, core.NewTransportError("create request", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, core.NewTransportError("fetch image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, core.NewTransportError(
			fmt.Sprintf("image fetch status %d", resp.StatusCode), nil,
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewTransportError("read image body", err)
	}
	return data, nil
}
