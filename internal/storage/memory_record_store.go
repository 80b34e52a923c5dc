package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/valponomarev/ImageViewer/internal/core"
)

// MemoryRecordStore keeps records in a mutex-guarded map. It is not
// durable; it backs the "memory" storage mode and tests.
type MemoryRecordStore struct {
	mu   sync.RWMutex
	recs map[string]*core.ImageRecord
	hub  *watchHub
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		recs: make(map[string]*core.ImageRecord),
		hub:  newWatchHub(),
	}
}

func (s *MemoryRecordStore) Close() error {
	return nil
}

func (s *MemoryRecordStore) Put(ctx context.Context, rec *core.ImageRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("storage: required record with id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.recs[rec.ID] = rec.CloneRecord()
	s.mu.Unlock()

	s.hub.broadcast()
	return nil
}

func (s *MemoryRecordStore) Get(ctx context.Context, id string) (*core.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs[id].CloneRecord(), nil
}

func (s *MemoryRecordStore) List(ctx context.Context) ([]*core.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	res := make([]*core.ImageRecord, 0, len(s.recs))
	for _, r := range s.recs {
		res = append(res, r.CloneRecord())
	}
	s.mu.RUnlock()

	core.SortRecords(res)
	return res, nil
}

func (s *MemoryRecordStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.recs = make(map[string]*core.ImageRecord)
	s.mu.Unlock()

	s.hub.broadcast()
	return nil
}

func (s *MemoryRecordStore) Watch(ctx context.Context) (<-chan []*core.ImageRecord, error) {
	return runWatch(ctx, s.hub, func() ([]*core.ImageRecord, error) {
		return s.List(ctx)
	}), nil
}

func (s *MemoryRecordStore) WatchRecord(ctx context.Context, id string) (<-chan *core.ImageRecord, error) {
	return runWatch(ctx, s.hub, func() (*core.ImageRecord, error) {
		return s.Get(ctx, id)
	}), nil
}
