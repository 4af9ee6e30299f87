package redisdoc

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/railvoice/railvoice/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T) *Backend {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb)
}

func TestRead_MissingKey(t *testing.T) {
	b := setupBackend(t)
	_, err := b.Read(context.Background(), "train:5421")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWriteMergeAndRead(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	anns := []domain.Announcement{
		{ID: "01A", Text: "hold the doors", Priority: domain.PriorityInfo, OriginName: "Alice", CreatedAt: 2000},
		{ID: "01B", Text: "delay at junction", Priority: domain.PriorityServiceChange, OriginName: "Bob", LineID: "4", CreatedAt: 1000},
	}
	err := b.WriteMerge(ctx, "train:5421", map[string]interface{}{
		"announcements": anns,
		"updated_at":    int64(2000),
	})
	require.NoError(t, err)

	doc, err := b.Read(ctx, "train:5421")
	require.NoError(t, err)
	assert.Equal(t, "train:5421", doc.Key)
	assert.Equal(t, anns, doc.Announcements)
	assert.Equal(t, int64(2000), doc.UpdatedAt)
}

func TestWriteMerge_PreservesOtherFields(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.WriteMerge(ctx, "line:4", map[string]interface{}{
		"announcements": []domain.Announcement{{ID: "01A", Text: "x", Priority: domain.PriorityInfo, CreatedAt: 1000}},
		"updated_at":    int64(1000),
	}))
	// A merge that only touches updated_at must leave the list intact.
	require.NoError(t, b.WriteMerge(ctx, "line:4", map[string]interface{}{
		"updated_at": int64(5000),
	}))

	doc, err := b.Read(ctx, "line:4")
	require.NoError(t, err)
	assert.Len(t, doc.Announcements, 1)
	assert.Equal(t, int64(5000), doc.UpdatedAt)
}

func TestWriteMerge_EmptyFields(t *testing.T) {
	b := setupBackend(t)
	err := b.WriteMerge(context.Background(), "train:1", map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestDelete(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, b.WriteMerge(ctx, "train:1", map[string]interface{}{
		"updated_at": int64(1),
	}))
	require.NoError(t, b.Delete(ctx, "train:1"))

	_, err := b.Read(ctx, "train:1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, b.Delete(ctx, "train:1"))
}
