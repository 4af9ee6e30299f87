package announce

import (
	"context"
	"testing"
	"time"

	"github.com/railvoice/railvoice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitMerged reads emissions until one satisfies the predicate. Initial
// snapshots from the two sources arrive in either order, so intermediate
// emissions are skipped.
func waitMerged(t *testing.T, sub *Subscription, ok func([]domain.Announcement) bool) []domain.Announcement {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case list := <-sub.Updates():
			if ok(list) {
				return list
			}
		case err := <-sub.Errors():
			t.Fatalf("unexpected subscription error: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for merged update")
		}
	}
}

func TestSubscribeCombined_MergesBothSources(t *testing.T) {
	st, _, clock := setupStore(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	l1 := info("l1", now.Add(-10*time.Minute).UnixMilli())
	l2 := info("l2", now.Add(-5*time.Minute).UnixMilli())
	t1 := info("t1", now.Add(-7*time.Minute).UnixMilli())
	require.NoError(t, st.Append(ctx, LineKey("4"), l1))
	require.NoError(t, st.Append(ctx, LineKey("4"), l2))
	require.NoError(t, st.Append(ctx, TrainKey("100"), t1))

	sub, err := st.SubscribeCombined(ctx, "4", "100")
	require.NoError(t, err)
	defer sub.Close()

	list := waitMerged(t, sub, func(l []domain.Announcement) bool { return len(l) == 3 })
	assert.Equal(t, []int64{l2.CreatedAt, t1.CreatedAt, l1.CreatedAt}, createdTimes(list))
}

func TestSubscribeCombined_DeduplicatesLineScopedAnnouncements(t *testing.T) {
	st, _, clock := setupStore(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	// A line-scoped announcement lives in both partitions under the same ID.
	shared := info("shared", now.UnixMilli())
	shared.LineID = "4"
	require.NoError(t, st.Append(ctx, TrainKey("100"), shared))
	require.NoError(t, st.Append(ctx, LineKey("4"), shared))
	other := info("other", now.Add(-time.Minute).UnixMilli())
	require.NoError(t, st.Append(ctx, TrainKey("100"), other))

	sub, err := st.SubscribeCombined(ctx, "4", "100")
	require.NoError(t, err)
	defer sub.Close()

	list := waitMerged(t, sub, func(l []domain.Announcement) bool { return len(l) == 2 })
	assert.Equal(t, "shared", list[0].ID)
	assert.Equal(t, "other", list[1].ID)

	// No further emission may ever contain the duplicate.
	select {
	case extra := <-sub.Updates():
		assert.LessOrEqual(t, len(extra), 2)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeCombined_TrainOnly(t *testing.T) {
	st, _, clock := setupStore(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)
	require.NoError(t, st.Append(ctx, TrainKey("100"), info("t1", now.UnixMilli())))

	sub, err := st.SubscribeCombined(ctx, "", "100")
	require.NoError(t, err)
	defer sub.Close()

	list := waitMerged(t, sub, func(l []domain.Announcement) bool { return len(l) == 1 })
	assert.Equal(t, "t1", list[0].ID)
}

func TestSubscribeCombined_FiltersDisplayWindow(t *testing.T) {
	st, _, clock := setupStore(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)
	require.NoError(t, st.Append(ctx, LineKey("4"), info("stale", now.Add(-90*time.Minute).UnixMilli())))
	require.NoError(t, st.Append(ctx, TrainKey("100"), info("fresh", now.UnixMilli())))

	sub, err := st.SubscribeCombined(ctx, "4", "100")
	require.NoError(t, err)
	defer sub.Close()

	list := waitMerged(t, sub, func(l []domain.Announcement) bool { return len(l) == 1 })
	assert.Equal(t, "fresh", list[0].ID)
}

func TestSubscribeCombined_LiveUpdatePropagates(t *testing.T) {
	st, _, clock := setupStore(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	sub, err := st.SubscribeCombined(ctx, "4", "100")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, st.Append(ctx, LineKey("4"), info("l1", now.UnixMilli())))
	waitMerged(t, sub, func(l []domain.Announcement) bool { return len(l) == 1 })

	require.NoError(t, st.Append(ctx, TrainKey("100"), info("t1", now.Add(time.Second).UnixMilli())))
	list := waitMerged(t, sub, func(l []domain.Announcement) bool { return len(l) == 2 })
	assert.Equal(t, "t1", list[0].ID)
}

func TestSubscribeCombined_RequiresLineOrTrain(t *testing.T) {
	st, _, _ := setupStore(t)
	_, err := st.SubscribeCombined(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSubscribeCombined_CloseTearsDownBothSources(t *testing.T) {
	st, _, _ := setupStore(t)

	sub, err := st.SubscribeCombined(context.Background(), "4", "100")
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close()) // idempotent

	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after Close")
	}
}
