package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/valponomarev/ImageViewer/internal/core"
)

const boltRecordsBucket = "image-records"

// BoltRecordStore persists image records in a bbolt bucket keyed by URL.
// bbolt iterates keys in byte order, which gives List its ascending-by-ID
// contract without an extra sort.
type BoltRecordStore struct {
	db  *bolt.DB
	hub *watchHub
}

func NewBoltRecordStore(path string) (*BoltRecordStore, error) {
	if path == "" {
		return nil, errors.New("storage: required bolt path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create bolt dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600,
		&bolt.Options{Timeout: time.Second},
	)
	if err != nil {
		return nil, fmt.Errorf("storage: opening bolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, berr := tx.CreateBucketIfNotExists([]byte(boltRecordsBucket))
		return berr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: cant init bucket: %w", err)
	}

	return &BoltRecordStore{db: db, hub: newWatchHub()}, nil
}

func (s *BoltRecordStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put upserts a record by ID. An existing record is replaced whole.
func (s *BoltRecordStore) Put(ctx context.Context, rec *core.ImageRecord) error {
	if s.db == nil {
		return errors.New("storage: bolt not init")
	} else if rec == nil || rec.ID == "" {
		return errors.New("storage: required record with id")
	} else if err := ctx.Err(); err != nil {
		return err
	}

	p, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: cant marshal record: %w", err)
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltRecordsBucket))
		if b == nil {
			return errors.New("storage: bucket miss")
		}
		return b.Put([]byte(rec.ID), p)
	}); err != nil {
		return err
	}
	s.hub.broadcast()
	return nil
}

func (s *BoltRecordStore) Get(ctx context.Context, id string) (*core.ImageRecord, error) {
	if s.db == nil {
		return nil, errors.New("storage: bolt not init")
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *core.ImageRecord
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltRecordsBucket))
		if b == nil {
			return errors.New("storage: bucket miss")
		}
		value := b.Get([]byte(id))
		if value == nil {
			return nil
		}
		res := &core.ImageRecord{}
		if err := json.Unmarshal(value, res); err != nil {
			return fmt.Errorf("storage: cant unmarshal record: %w", err)
		}
		rec = res
		return nil
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BoltRecordStore) List(ctx context.Context) ([]*core.ImageRecord, error) {
	if s.db == nil {
		return nil, errors.New("storage: bolt not init")
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	recs := make([]*core.ImageRecord, 0)
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltRecordsBucket))
		if b == nil {
			return errors.New("storage: bucket miss")
		}
		return b.ForEach(func(_, v []byte) error {
			r := &core.ImageRecord{}
			if err := json.Unmarshal(v, r); err != nil {
				return fmt.Errorf("storage: cant unmarshal record: %w", err)
			}
			recs = append(recs, r)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return recs, nil
}

// Clear drops every record by recreating the bucket.
func (s *BoltRecordStore) Clear(ctx context.Context) error {
	if s.db == nil {
		return errors.New("storage: bolt not init")
	} else if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(boltRecordsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(boltRecordsBucket))
		return err
	}); err != nil {
		return fmt.Errorf("storage: clear records: %w", err)
	}
	s.hub.broadcast()
	return nil
}

func (s *BoltRecordStore) Watch(ctx context.Context) (<-chan []*core.ImageRecord, error) {
	if s.db == nil {
		return nil, errors.New("storage: bolt not init")
	}
	return runWatch(ctx, s.hub, func() ([]*core.ImageRecord, error) {
		return s.List(ctx)
	}), nil
}

func (s *BoltRecordStore) WatchRecord(ctx context.Context, id string) (<-chan *core.ImageRecord, error) {
	if s.db == nil {
		return nil, errors.New("storage: bolt not init")
	}
	return runWatch(ctx, s.hub, func() (*core.ImageRecord, error) {
		return s.Get(ctx, id)
	}), nil
}
