package storage

import (
	"context"
	"sync"
)

// watchHub tracks change subscribers for a store. Each subscriber holds a
// one-slot signal channel, so bursts of writes coalesce into a single
// wakeup instead of queueing behind a slow receiver.
type watchHub struct {
	mu   sync.Mutex
	subs map[uint64]chan struct{}
	next uint64
}

func newWatchHub() *watchHub {
	return &watchHub{subs: make(map[uint64]chan struct{})}
}

func (h *watchHub) subscribe() (uint64, chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	sig := make(chan struct{}, 1)
	h.subs[id] = sig
	return id, sig
}

func (h *watchHub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (h *watchHub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sig := range h.subs {
		select {
		case sig <- struct{}{}:
		default:
		}
	}
}

// runWatch pumps load() results to a fresh channel: one value up front,
// then one per broadcast, until ctx is cancelled or load fails.
func runWatch[T any](ctx context.Context, hub *watchHub, load func() (T, error)) <-chan T {
	out := make(chan T, 1)
	id, sig := hub.subscribe()

	go func() {
		defer close(out)
		defer hub.unsubscribe(id)
		for {
			val, err := load()
			if err != nil {
				return
			}
			select {
			case out <- val:
			case <-ctx.Done():
				return
			}
			select {
			case <-sig:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
