package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"letscode/internal/common"
	"letscode/internal/platform/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	mu       sync.Mutex
	failures map[string]int // remaining failures per id
	applied  map[string]int
	pending  []string
	fatal    map[string]error
}

func newFakeReconciler() *fakeReconciler {
	return &fakeReconciler{failures: map[string]int{}, applied: map[string]int{}, fatal: map[string]error{}}
}

func (r *fakeReconciler) Reconcile(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fatal[id]; ok {
		return err
	}
	if r.failures[id] > 0 {
		r.failures[id]--
		return errors.New("serialization failure")
	}
	r.applied[id]++
	return nil
}

func (r *fakeReconciler) PendingSubmissions(ctx context.Context, grace time.Duration, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out, nil
}

func (r *fakeReconciler) appliedCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied[id]
}

func newTestWorker(t *testing.T, rec Reconciler) (*ProgressWorker, *queue.ProgressQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	q := queue.NewProgressQueue(rdb, "progress")
	w := NewProgressWorker(rdb, q, rec, Options{
		PollTimeout:   100 * time.Millisecond,
		SweepInterval: time.Hour,
		RetryDelay:    10 * time.Millisecond,
	})
	return w, q, mr
}

func TestWorkerDrainsQueueAndRetries(t *testing.T) {
	rec := newFakeReconciler()
	rec.failures["s2"] = 2
	w, q, _ := newTestWorker(t, rec)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, q.Enqueue(ctx, "s1"))
	require.NoError(t, q.Enqueue(ctx, "s2"))

	assert.Eventually(t, func() bool {
		return rec.appliedCount("s1") == 1 && rec.appliedCount("s2") == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSweepReconcilesPending(t *testing.T) {
	rec := newFakeReconciler()
	rec.pending = []string{"a", "b", "gone"}
	rec.fatal["gone"] = common.ErrNotFound
	w, _, _ := newTestWorker(t, rec)

	assert.Equal(t, 2, w.Sweep(t.Context()))
	assert.Equal(t, 1, rec.appliedCount("a"))
	assert.Equal(t, 1, rec.appliedCount("b"))
}

func TestProcessSkipsLockedSubmission(t *testing.T) {
	rec := newFakeReconciler()
	w, _, mr := newTestWorker(t, rec)
	require.NoError(t, mr.Set(lockKey("s1"), "other-worker"))

	assert.True(t, w.process(t.Context(), "s1"))
	assert.Zero(t, rec.appliedCount("s1"))

	got, err := mr.Get(lockKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, "other-worker", got, "foreign lock must survive")
}

func TestProcessReleasesLock(t *testing.T) {
	rec := newFakeReconciler()
	w, _, mr := newTestWorker(t, rec)

	assert.True(t, w.process(t.Context(), "s1"))
	assert.False(t, mr.Exists(lockKey("s1")))
}
