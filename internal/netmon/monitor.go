// Package netmon tracks network reachability by polling a probe URL.
package netmon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ProbeConfig configures a ProbeMonitor. The network counts as available
// only when the probe request completes AND the response carries the
// expected status, mirroring the internet-capability + validated pair.
type ProbeConfig struct {
	Client *http.Client

	URL            string
	ExpectedStatus int
	Interval       time.Duration
}

// ProbeMonitor polls the probe URL on a fixed interval and fans
// availability transitions out to subscribers.
type ProbeMonitor struct {
	client         *http.Client
	url            string
	expectedStatus int
	interval       time.Duration
	logger         *zap.Logger

	available atomic.Bool

	mu       sync.Mutex
	subs     map[uint64]chan bool
	nextSub  uint64
	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewProbeMonitor(cfg *ProbeConfig, logger *zap.Logger) (*ProbeMonitor, error) {
	if cfg == nil {
		return nil, errors.New("netmon: required config")
	}
	if cfg.URL == "" {
		return nil, errors.New("netmon: required probe url")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("netmon: probe interval must be > 0")
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	expected := cfg.ExpectedStatus
	if expected == 0 {
		expected = http.StatusNoContent
	}

	return &ProbeMonitor{
		client:         cfg.Client,
		url:            cfg.URL,
		expectedStatus: expected,
		interval:       cfg.Interval,
		logger:         logger,
		subs:           make(map[uint64]chan bool),
		stop:           make(chan struct{}),
	}, nil
}

// Start probes once synchronously, then keeps polling in the background
// until Stop is called or ctx is cancelled.
func (m *ProbeMonitor) Start(ctx context.Context) {
	m.setAvailable(m.probe(ctx))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.setAvailable(m.probe(ctx))
			}
		}
	}()
}

func (m *ProbeMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}

// Available reports the result of the most recent probe.
func (m *ProbeMonitor) Available() bool {
	return m.available.Load()
}

// Subscribe returns a channel delivering availability transitions. The
// channel is closed when ctx is cancelled. Only changes are delivered,
// not the current value; use Available for that.
func (m *ProbeMonitor) Subscribe(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = out
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
		close(out)
	}()

	return out
}

func (m *ProbeMonitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == m.expectedStatus
}

func (m *ProbeMonitor) setAvailable(now bool) {
	prev := m.available.Swap(now)
	if prev == now {
		return
	}
	m.logger.Info("connectivity changed", zap.Bool("available", now))

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		select {
		case sub <- now:
		default:
			// slow subscriber: replace the queued stale transition
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- now:
			default:
			}
		}
	}
}
