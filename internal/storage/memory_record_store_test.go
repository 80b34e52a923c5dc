package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valponomarev/ImageViewer/internal/core"
)

func TestMemoryRecordStore_Basics(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	ctx := context.Background()

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, store.Put(ctx, core.NewStubRecord("https://b.com/image.jpg")))
	require.NoError(t, store.Put(ctx, core.NewStubRecord("https://a.com/image.jpg")))

	recs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "https://a.com/image.jpg", recs[0].ID)

	require.NoError(t, store.Clear(ctx))
	recs, err = store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestMemoryRecordStore_ReturnsClones(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	ctx := context.Background()

	rec := core.NewRecord("https://a.com/image.jpg", "/p", "/o")
	require.NoError(t, store.Put(ctx, rec))
	*rec.PreviewPath = "mutated after put"

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "/p", *got.PreviewPath)

	*got.PreviewPath = "mutated after get"
	again, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "/p", *again.PreviewPath)
}

func TestMemoryRecordStore_RejectsEmptyID(t *testing.T) {
	t.Parallel()

	store := NewMemoryRecordStore()
	require.Error(t, store.Put(context.Background(), &core.ImageRecord{}))
	require.Error(t, store.Put(context.Background(), nil))
}
