package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/valponomarev/ImageViewer/internal/core"
)

// Connectivity gates fetches on network availability.
type Connectivity interface {
	Available() bool
}

// ManifestCache persists the raw manifest text.
type ManifestCache interface {
	WriteManifest(text string) error
}

type FetcherConfig struct {
	Client    *http.Client
	URL       string
	UserAgent string
}

// Fetcher downloads the raw manifest text and hands it to the cache
// verbatim. It does no retrying; that is the caller's concern.
type Fetcher struct {
	client    *http.Client
	url       string
	userAgent string
	conn      Connectivity
	cache     ManifestCache
}

func NewFetcher(conn Connectivity, cache ManifestCache, cfg *FetcherConfig) (*Fetcher, error) {
	if conn == nil {
		return nil, errors.New("manifest: required connectivity monitor")
	}
	if cache == nil {
		return nil, errors.New("manifest: required cache")
	}
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("manifest: required manifest url")
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:    client,
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		conn:      conn,
		cache:     cache,
	}, nil
}

// Fetch downloads the manifest and overwrites the cached copy. It fails
// with a NoConnectivity error before any network attempt when the
// monitor reports the network as unavailable.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	if !f.conn.Available() {
		return "", core.NewNoConnectivityError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", core.NewTransportError("create manifest request", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", core.NewTransportError("fetch manifest", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", core.NewTransportError(
			fmt.Sprintf("manifest fetch status %d", resp.StatusCode), nil,
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", core.NewTransportError("read manifest body", err)
	}

	text := string(body)
	if err := f.cache.WriteManifest(text); err != nil {
		return "", core.NewStorageError("cache manifest", err)
	}
	return text, nil
}
