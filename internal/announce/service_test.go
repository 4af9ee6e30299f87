package announce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/railvoice/railvoice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockPusher struct{ mock.Mock }

func (m *mockPusher) PublishEmergency(ctx context.Context, a domain.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

// flakyDocs fails merge writes against one key, for dual-write failure tests.
type flakyDocs struct {
	Documents
	failKey string
}

func (f *flakyDocs) WriteMerge(ctx context.Context, key string, fields map[string]interface{}) error {
	if key == f.failKey {
		return errors.New("store unavailable")
	}
	return f.Documents.WriteMerge(ctx, key, fields)
}

func setupService(t *testing.T) (Service, *Store, *testClock) {
	st, _, clock := setupStore(t)
	svc := NewService(st, nil)
	svc.(*service).now = clock.Now
	return svc, st, clock
}

// --- create ---

func TestCreate_StampsIdentityAndTimestamp(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	a, err := svc.Create(ctx, CreateRequest{
		TrainID:    "100",
		Text:       "signal failure ahead",
		Priority:   domain.PriorityServiceChange,
		OriginName: "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, now.UnixMilli(), a.CreatedAt)

	list, err := svc.ListAll(ctx, "100")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *a, list[0])
}

func TestCreate_LineScopedWritesBothPartitions(t *testing.T) {
	svc, st, clock := setupService(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	a, err := svc.Create(ctx, CreateRequest{
		TrainID:    "100",
		Text:       "line 4 suspended",
		Priority:   domain.PriorityServiceChange,
		OriginName: "Alice",
		LineID:     "4",
	})
	require.NoError(t, err)

	trainList, err := svc.ListAll(ctx, "100")
	require.NoError(t, err)
	require.Len(t, trainList, 1)
	assert.Equal(t, a.ID, trainList[0].ID)

	lineList, err := st.ReadAll(ctx, LineKey("4"))
	require.NoError(t, err)
	require.Len(t, lineList, 1)
	assert.Equal(t, a.ID, lineList[0].ID)
}

func TestCreate_LineScopedVisibleOnBothLiveStreams(t *testing.T) {
	svc, _, clock := setupService(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	trainSub, err := svc.SubscribeTrain(ctx, "100")
	require.NoError(t, err)
	defer trainSub.Close()
	lineSub, err := svc.SubscribeLine(ctx, "4")
	require.NoError(t, err)
	defer lineSub.Close()
	assert.Empty(t, waitUpdate(t, trainSub))
	assert.Empty(t, waitUpdate(t, lineSub))

	a, err := svc.Create(ctx, CreateRequest{
		TrainID:    "100",
		Text:       "line 4 suspended",
		Priority:   domain.PriorityServiceChange,
		OriginName: "Alice",
		LineID:     "4",
	})
	require.NoError(t, err)

	fromTrain := waitUpdate(t, trainSub)
	require.Len(t, fromTrain, 1)
	assert.Equal(t, a.ID, fromTrain[0].ID)

	fromLine := waitUpdate(t, lineSub)
	require.Len(t, fromLine, 1)
	assert.Equal(t, a.ID, fromLine[0].ID)
}

func TestCreate_LineWriteFailureUndoesTrainWrite(t *testing.T) {
	st, _, clock := setupStore(t)
	st.docs = &flakyDocs{Documents: st.docs, failKey: LineKey("4")}
	svc := NewService(st, nil)
	svc.(*service).now = clock.Now
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	_, err := svc.Create(ctx, CreateRequest{
		TrainID:    "100",
		Text:       "line 4 suspended",
		Priority:   domain.PriorityServiceChange,
		OriginName: "Alice",
		LineID:     "4",
	})
	require.ErrorContains(t, err, "store unavailable")

	// The compensating removal leaves the train partition without the entry.
	list, err := svc.ListAll(ctx, "100")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_EmergencyTriggersPush(t *testing.T) {
	st, _, clock := setupStore(t)
	push := &mockPusher{}
	push.On("PublishEmergency", mock.Anything, mock.AnythingOfType("domain.Announcement")).Return(nil)
	svc := NewService(st, push)
	svc.(*service).now = clock.Now

	_, err := svc.Create(context.Background(), CreateRequest{
		TrainID:    "100",
		Text:       "evacuate at next station",
		Priority:   domain.PriorityEmergency,
		OriginName: "Alice",
	})
	require.NoError(t, err)
	push.AssertCalled(t, "PublishEmergency", mock.Anything, mock.Anything)
}

func TestCreate_PushFailureDoesNotFailCreate(t *testing.T) {
	st, _, clock := setupStore(t)
	push := &mockPusher{}
	push.On("PublishEmergency", mock.Anything, mock.Anything).Return(errors.New("sns down"))
	svc := NewService(st, push)
	svc.(*service).now = clock.Now

	_, err := svc.Create(context.Background(), CreateRequest{
		TrainID:    "100",
		Text:       "evacuate at next station",
		Priority:   domain.PriorityEmergency,
		OriginName: "Alice",
	})
	assert.NoError(t, err)
}

func TestCreate_NonEmergencyDoesNotPush(t *testing.T) {
	st, _, clock := setupStore(t)
	push := &mockPusher{}
	svc := NewService(st, push)
	svc.(*service).now = clock.Now

	_, err := svc.Create(context.Background(), CreateRequest{
		TrainID:    "100",
		Text:       "next stop: central",
		Priority:   domain.PriorityInfo,
		OriginName: "Alice",
	})
	require.NoError(t, err)
	push.AssertNotCalled(t, "PublishEmergency", mock.Anything, mock.Anything)
}

// --- remove ---

func TestRemove_LineScopedRemovesFromBothPartitions(t *testing.T) {
	svc, st, clock := setupService(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	a, err := svc.Create(ctx, CreateRequest{
		TrainID:    "100",
		Text:       "line 4 suspended",
		Priority:   domain.PriorityServiceChange,
		OriginName: "Alice",
		LineID:     "4",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "100", *a))

	trainList, err := svc.ListAll(ctx, "100")
	require.NoError(t, err)
	assert.Empty(t, trainList)

	lineList, err := st.ReadAll(ctx, LineKey("4"))
	require.NoError(t, err)
	assert.Empty(t, lineList)
}

func TestRemove_MissingTrainPartitionStillRemovesLineEntry(t *testing.T) {
	svc, st, clock := setupService(t)
	ctx := context.Background()

	now := time.UnixMilli(100_000_000_000)
	clock.Set(now)

	a := info("orphan", now.UnixMilli())
	a.LineID = "4"
	require.NoError(t, st.Append(ctx, LineKey("4"), a))

	err := svc.Remove(ctx, "never-written", a)
	assert.ErrorIs(t, err, domain.ErrPartitionNotFound)

	// The line-partition removal was still attempted and succeeded.
	lineList, err := st.ReadAll(ctx, LineKey("4"))
	require.NoError(t, err)
	assert.Empty(t, lineList)
}
