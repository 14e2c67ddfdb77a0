package service

import (
	"context"
	"time"

	"letscode/internal/common"
	"letscode/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RunGuard throttles the non-scoring run path per user and problem. Allow
// only checks; Recorded is called once a run or submit has been stored.
type RunGuard interface {
	Allow(ctx context.Context, userID, problemID string) error
	Recorded(ctx context.Context, userID, problemID string)
}

// RedisRunGuard keeps a key per user and problem that lives for the cooldown
// after each recorded submission. A run is refused while the key exists.
type RedisRunGuard struct {
	rdb      *redis.Client
	cooldown time.Duration
}

func NewRedisRunGuard(rdb *redis.Client, cooldown time.Duration) *RedisRunGuard {
	return &RedisRunGuard{rdb: rdb, cooldown: cooldown}
}

func runGuardKey(userID, problemID string) string {
	return "run-guard:" + userID + ":" + problemID
}

func (g *RedisRunGuard) Allow(ctx context.Context, userID, problemID string) error {
	n, err := g.rdb.Exists(ctx, runGuardKey(userID, problemID)).Result()
	if err != nil {
		// Redis outage: let the run through rather than lock everyone out.
		log.Warn().Err(err).Str("user_id", userID).Str("problem_id", problemID).Msg("Run guard unavailable, allowing run")
		return nil
	}
	if n > 0 {
		return common.ErrThrottled
	}
	return nil
}

// Recorded starts a fresh cooldown for the user and problem.
func (g *RedisRunGuard) Recorded(ctx context.Context, userID, problemID string) {
	if err := g.rdb.Set(ctx, runGuardKey(userID, problemID), 1, g.cooldown).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("problem_id", problemID).Msg("Run guard could not be armed")
	}
}

// StoreRunGuard rejects a run when the user already has a submission for the
// problem newer than the cooldown.
type StoreRunGuard struct {
	submissionRepo repository.SubmissionRepository
	cooldown       time.Duration
	now            func() time.Time
}

func NewStoreRunGuard(submissionRepo repository.SubmissionRepository, cooldown time.Duration) *StoreRunGuard {
	return &StoreRunGuard{submissionRepo: submissionRepo, cooldown: cooldown, now: time.Now}
}

func (g *StoreRunGuard) Allow(ctx context.Context, userID, problemID string) error {
	recent, err := g.submissionRepo.HasRecentSubmission(ctx, userID, problemID, g.now().Add(-g.cooldown))
	if err != nil {
		return common.Errorf("run guard lookup: %w", err)
	}
	if recent {
		return common.ErrThrottled
	}
	return nil
}

// Recorded is a no-op: the submission row itself is the guard's state.
func (g *StoreRunGuard) Recorded(ctx context.Context, userID, problemID string) {}
