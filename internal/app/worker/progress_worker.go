package worker

import (
	"context"
	"errors"
	"time"

	"letscode/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Reconciler re-applies accepted submissions whose progress update failed.
type Reconciler interface {
	Reconcile(ctx context.Context, submissionID string) error
	PendingSubmissions(ctx context.Context, grace time.Duration, limit int) ([]string, error)
}

// Queue is the reconcile queue the API pushes to.
type Queue interface {
	Enqueue(ctx context.Context, submissionID string) error
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

type Options struct {
	PollTimeout   time.Duration // BRPOP block per iteration
	SweepInterval time.Duration
	SweepBatch    int
	SweepGrace    time.Duration // skip submissions younger than this; the request path may still apply them
	LockTTL       time.Duration
	RetryDelay    time.Duration
}

func (o *Options) setDefaults() {
	if o.PollTimeout <= 0 {
		o.PollTimeout = 5 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	if o.SweepBatch <= 0 {
		o.SweepBatch = 50
	}
	if o.SweepGrace <= 0 {
		o.SweepGrace = 30 * time.Second
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 30 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
}

// ProgressWorker drains the reconcile queue and periodically sweeps for
// accepted submissions that never made it onto the queue.
type ProgressWorker struct {
	rdb        *redis.Client
	queue      Queue
	reconciler Reconciler
	opts       Options
}

func NewProgressWorker(rdb *redis.Client, queue Queue, reconciler Reconciler, opts Options) *ProgressWorker {
	opts.setDefaults()
	return &ProgressWorker{rdb: rdb, queue: queue, reconciler: reconciler, opts: opts}
}

var releaseLock = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

func lockKey(submissionID string) string {
	return "progress-lock:" + submissionID
}

// Start blocks until ctx is done.
func (w *ProgressWorker) Start(ctx context.Context) {
	log.Info().Dur("sweep_interval", w.opts.SweepInterval).Msg("Progress worker started")

	go w.sweepLoop(ctx)

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Progress worker stopping")
			return
		}
		submissionID, err := w.queue.Dequeue(ctx, w.opts.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			log.Error().Err(err).Msg("Failed to read progress queue")
			sleep(ctx, 5*time.Second)
			continue
		}
		if submissionID == "" {
			continue
		}
		if !w.process(ctx, submissionID) {
			w.requeue(ctx, submissionID)
			sleep(ctx, w.opts.RetryDelay)
		}
	}
}

func (w *ProgressWorker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep reconciles one batch of unapplied submissions and returns how many succeeded.
func (w *ProgressWorker) Sweep(ctx context.Context) int {
	ids, err := w.reconciler.PendingSubmissions(ctx, w.opts.SweepGrace, w.opts.SweepBatch)
	if err != nil {
		log.Error().Err(err).Msg("Progress sweep failed to list pending submissions")
		return 0
	}
	done := 0
	for _, id := range ids {
		if w.process(ctx, id) {
			done++
		}
	}
	if len(ids) > 0 {
		log.Info().Int("pending", len(ids)).Int("reconciled", done).Msg("Progress sweep finished")
	}
	return done
}

// process reports false when the submission should be retried later.
func (w *ProgressWorker) process(ctx context.Context, submissionID string) bool {
	logger := log.With().Str("submission_id", submissionID).Logger()

	lockValue := uuid.NewString()
	ok, err := w.rdb.SetNX(ctx, lockKey(submissionID), lockValue, w.opts.LockTTL).Result()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to acquire reconcile lock")
		return false
	}
	if !ok {
		// someone else holds it; their result lands in the ledger either way
		logger.Debug().Msg("Submission already being reconciled")
		return true
	}
	defer func() {
		if err := releaseLock.Run(context.WithoutCancel(ctx), w.rdb, []string{lockKey(submissionID)}, lockValue).Err(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release reconcile lock")
		}
	}()

	if err := w.reconciler.Reconcile(ctx, submissionID); err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) {
			logger.Warn().Err(err).Msg("Dropping unreconcilable submission")
			return true
		}
		logger.Error().Err(err).Msg("Progress reconcile failed")
		return false
	}
	logger.Info().Msg("Progress reconciled")
	return true
}

func (w *ProgressWorker) requeue(ctx context.Context, submissionID string) {
	if err := w.queue.Enqueue(context.WithoutCancel(ctx), submissionID); err != nil {
		log.Error().Err(err).Str("submission_id", submissionID).Msg("Failed to requeue submission")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
