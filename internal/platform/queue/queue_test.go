package queue

import (
	"testing"
	"time"

	"letscode/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestProgressQueueFIFO(t *testing.T) {
	q := NewProgressQueue(newTestRedis(t), "progress")
	ctx := t.Context()

	require.NoError(t, q.Enqueue(ctx, "a"))
	require.NoError(t, q.Enqueue(ctx, "b"))

	first, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", first)

	second, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", second)
}

func TestProgressQueueEmptyTimesOut(t *testing.T) {
	q := NewProgressQueue(newTestRedis(t), "progress")
	id, err := q.Dequeue(t.Context(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestBroadcasterDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster(newTestRedis(t), "potd-notification")
	ctx := t.Context()

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	sent := model.Notification{ID: "n1", Message: "Problem of the day updated successfully", Link: "http://x/problems/p1"}
	require.NoError(t, b.Notify(ctx, sent))

	select {
	case got := <-ch:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, sent.Link, got.Link)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestBroadcasterNotifyWithoutSubscribers(t *testing.T) {
	b := NewBroadcaster(newTestRedis(t), "potd-notification")
	assert.NoError(t, b.Notify(t.Context(), model.Notification{ID: "n1"}))
}
