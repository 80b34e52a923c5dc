package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/valponomarev/ImageViewer/internal/core"
)

func recvList(t *testing.T, ch <-chan []*core.ImageRecord) []*core.ImageRecord {
	t.Helper()
	select {
	case recs, ok := <-ch:
		require.True(t, ok)
		return recs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch emission")
		return nil
	}
}

func TestWatchEmitsInitialStateFirst(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	require.Empty(t, recvList(t, ch))
}

func TestWatchSeesEveryUpsertedRecord(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)
	require.Empty(t, recvList(t, ch))

	require.NoError(t, store.Put(ctx, core.NewStubRecord("https://b.com/image.jpg")))
	recs := recvList(t, ch)
	require.Len(t, recs, 1)

	require.NoError(t, store.Put(ctx, core.NewStubRecord("https://a.com/image.jpg")))
	recs = recvList(t, ch)
	require.Len(t, recs, 2)
	require.Equal(t, "https://a.com/image.jpg", recs[0].ID)
}

func TestWatchCoalescesButDeliversFinalState(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)
	require.Empty(t, recvList(t, ch))

	// burst of writes while the subscriber is not reading
	const n = 10
	for i := 0; i < n; i++ {
		id := "https://x.com/image" + string(rune('a'+i)) + ".jpg"
		require.NoError(t, store.Put(ctx, core.NewStubRecord(id)))
	}

	// emissions are monotone: lengths never decrease, final state arrives
	last := 0
	for last < n {
		recs := recvList(t, ch)
		require.GreaterOrEqual(t, len(recs), last)
		last = len(recs)
	}
	require.Equal(t, n, last)
}

func TestWatchCancelClosesChannel(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := store.Watch(ctx)
	require.NoError(t, err)
	recvList(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed after cancel")
	}

	// writes after cancellation must not block or fail
	require.NoError(t, store.Put(context.Background(), core.NewStubRecord("https://x.com/image.jpg")))
}

func TestWatchRecordFollowsSingleID(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := "https://x.com/image.jpg"
	ch, err := store.WatchRecord(ctx, id)
	require.NoError(t, err)

	select {
	case rec := <-ch:
		require.Nil(t, rec)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial emission")
	}

	require.NoError(t, store.Put(ctx, core.NewRecord(id, "/p", "/o")))
	select {
	case rec := <-ch:
		require.NotNil(t, rec)
		require.Equal(t, id, rec.ID)
		require.False(t, rec.Failed())
	case <-time.After(2 * time.Second):
		t.Fatal("no emission after put")
	}
}
