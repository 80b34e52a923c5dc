package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valponomarev/ImageViewer/internal/core"
)

type stubConnectivity struct {
	available bool
}

func (s *stubConnectivity) Available() bool { return s.available }

type stubManifestCache struct {
	mu      sync.Mutex
	written []string
	err     error
}

func (s *stubManifestCache) WriteManifest(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.written = append(s.written, text)
	return nil
}

func TestFetcherOK(t *testing.T) {
	t.Parallel()

	body := "https://x.com/a.jpg\nhttps://x.com/b.jpg\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	cache := &stubManifestCache{}
	fetcher, err := NewFetcher(&stubConnectivity{available: true}, cache, &FetcherConfig{
		Client: server.Client(),
		URL:    server.URL + "/images.txt",
	})
	require.NoError(t, err)

	text, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, body, text)
	require.Equal(t, []string{body}, cache.written)
}

func TestFetcherNoConnectivitySkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	fetcher, err := NewFetcher(&stubConnectivity{available: false}, &stubManifestCache{}, &FetcherConfig{
		Client: server.Client(),
		URL:    server.URL,
	})
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background())
	require.True(t, core.IsKind(err, core.KindNoConnectivity))
	require.Zero(t, calls.Load())
}

func TestFetcherTransportErrorOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	cache := &stubManifestCache{}
	fetcher, err := NewFetcher(&stubConnectivity{available: true}, cache, &FetcherConfig{
		Client: server.Client(),
		URL:    server.URL,
	})
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background())
	require.True(t, core.IsKind(err, core.KindTransport))
	require.Empty(t, cache.written)
}

func TestFetcherStorageErrorWhenCacheFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("https://x.com/a.jpg\n"))
	}))
	t.Cleanup(server.Close)

	cache := &stubManifestCache{err: core.NewStorageError("disk full", nil)}
	fetcher, err := NewFetcher(&stubConnectivity{available: true}, cache, &FetcherConfig{
		Client: server.Client(),
		URL:    server.URL,
	})
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background())
	require.True(t, core.IsKind(err, core.KindStorage))
}

func TestNewFetcherValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFetcher(nil, &stubManifestCache{}, &FetcherConfig{URL: "http://m"})
	require.Error(t, err)
	_, err = NewFetcher(&stubConnectivity{}, nil, &FetcherConfig{URL: "http://m"})
	require.Error(t, err)
	_, err = NewFetcher(&stubConnectivity{}, &stubManifestCache{}, nil)
	require.Error(t, err)
}
