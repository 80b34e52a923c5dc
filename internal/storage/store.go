package storage

import (
	"context"

	"github.com/valponomarev/ImageViewer/internal/core"
)

// RecordStore is the durable keyed table of per-image metadata.
// Implementations MUST be safe for concurrent use. Put is an upsert and
// is atomic per record; no cross-record transaction is guaranteed across
// a batch of concurrent upserts.
//
// Watch and WatchRecord deliver the current value immediately and then a
// fresh value after every change. Intermediate states may be coalesced
// under load, but the final state is always delivered. Cancelling the
// context releases the subscription promptly.
type RecordStore interface {
	Put(ctx context.Context, rec *core.ImageRecord) error
	// Get returns (nil, nil) when no record exists for id.
	Get(ctx context.Context, id string) (*core.ImageRecord, error)
	// List returns all records ascending by ID.
	List(ctx context.Context) ([]*core.ImageRecord, error)
	Clear(ctx context.Context) error

	Watch(ctx context.Context) (<-chan []*core.ImageRecord, error)
	WatchRecord(ctx context.Context, id string) (<-chan *core.ImageRecord, error)

	Close() error
}
