package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualStream struct {
	mu  sync.Mutex
	chs []chan bool
}

func (m *manualStream) Subscribe(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.chs = append(m.chs, ch)
	m.mu.Unlock()
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

func (m *manualStream) emit(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.chs {
		ch <- available
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestCoordinatorSyncsWhenManifestMissing(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{text: "https://x.com/a.jpg\n"}
	acq := &stubAcquirer{}
	blobs := &stubBlobStore{cached: false, manifest: "https://x.com/a.jpg\n"}
	svc, _ := newTestService(t, fetcher, acq, blobs, &stubConnectivity{available: true})

	stream := &manualStream{}
	rc := NewRetryCoordinator(svc, stream, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rc.Start(ctx)
	t.Cleanup(rc.Stop)

	stream.emit(true)
	waitFor(t, func() bool { return fetcher.callCount() == 1 })
}

func TestCoordinatorSkipsWhenManifestCached(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{text: "https://x.com/a.jpg\n"}
	blobs := &stubBlobStore{cached: true, manifest: "https://x.com/a.jpg\n"}
	svc, _ := newTestService(t, fetcher, &stubAcquirer{}, blobs, &stubConnectivity{available: true})

	stream := &manualStream{}
	rc := NewRetryCoordinator(svc, stream, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rc.Start(ctx)

	stream.emit(true)
	stream.emit(false)
	stream.emit(true)

	rc.Stop()
	require.Zero(t, fetcher.callCount())
}

func TestCoordinatorIgnoresLostTransitions(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{text: ""}
	blobs := &stubBlobStore{cached: false}
	svc, _ := newTestService(t, fetcher, &stubAcquirer{}, blobs, &stubConnectivity{available: false})

	stream := &manualStream{}
	rc := NewRetryCoordinator(svc, stream, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rc.Start(ctx)

	stream.emit(false)
	rc.Stop()
	require.Zero(t, fetcher.callCount())
}
