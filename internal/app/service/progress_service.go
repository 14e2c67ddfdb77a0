package service

import (
	"context"
	"database/sql"
	"time"

	"letscode/internal/common"
	"letscode/internal/domain/model"
	"letscode/internal/domain/repository"

	"github.com/rs/zerolog/log"
)

// ProgressQueue hands a submission id to the reconcile worker.
type ProgressQueue interface {
	Enqueue(ctx context.Context, submissionID string) error
}

// ProgressService applies accepted final submissions to the owner's progress.
// Each application is one transaction holding the user's row lock, and a
// ledger row per submission makes re-application a no-op.
type ProgressService struct {
	tx             repository.TxRunner
	userRepo       repository.UserRepository
	submissionRepo repository.SubmissionRepository
	queue          ProgressQueue
}

func NewProgressService(
	tx repository.TxRunner,
	userRepo repository.UserRepository,
	submissionRepo repository.SubmissionRepository,
	queue ProgressQueue,
) *ProgressService {
	return &ProgressService{
		tx:             tx,
		userRepo:       userRepo,
		submissionRepo: submissionRepo,
		queue:          queue,
	}
}

// ApplyAccepted folds sub into its owner's progress and returns the resulting stats.
func (s *ProgressService) ApplyAccepted(ctx context.Context, sub *model.Submission) (*model.UserStats, error) {
	if !sub.FinalSubmission || sub.Status != model.StatusAccepted {
		return nil, common.Errorf("submission %s is not an accepted final submission: %w", sub.ID, common.ErrValidation)
	}

	var stats model.UserStats
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		progress, err := s.userRepo.LockProgress(ctx, tx, sub.UserID)
		if err != nil {
			return common.Errorf("lock progress: %w", err)
		}

		claimed, err := s.submissionRepo.ClaimProgress(ctx, tx, sub.ID)
		if err != nil {
			return err
		}
		if !claimed {
			stats = progress.Stats()
			return nil
		}

		firstSolve, err := s.submissionRepo.MarkProblemSolved(ctx, tx, sub.UserID, sub.ProblemID, sub.ID)
		if err != nil {
			return err
		}
		// denominator as of acceptance, not as of this apply
		total, err := s.submissionRepo.CountByUserUntil(ctx, tx, sub.UserID, sub.CreatedAt)
		if err != nil {
			return err
		}

		progress.ApplyAcceptance(model.Acceptance{
			FirstSolve:       firstSolve,
			DailyActive:      sub.DailyActive(),
			TotalSubmissions: total,
		})
		if err := s.userRepo.SaveProgress(ctx, tx, sub.UserID, progress); err != nil {
			return err
		}
		stats = progress.Stats()
		return nil
	})
	if err != nil {
		return nil, common.Errorf("apply progress for submission %s: %w", sub.ID, err)
	}

	log.Info().
		Str("submission_id", sub.ID).
		Str("user_id", sub.UserID).
		Int("solved", stats.SolvedCount).
		Int("streak", stats.Streak).
		Msg("Progress updated")
	return &stats, nil
}

// Defer queues sub for the reconcile worker after a failed ApplyAccepted.
func (s *ProgressService) Defer(ctx context.Context, submissionID string) error {
	if s.queue == nil {
		return common.Errorf("no progress queue configured: %w", common.ErrServiceUnavailable)
	}
	return s.queue.Enqueue(ctx, submissionID)
}

// Reconcile re-applies a submission by id. Safe to call any number of times.
func (s *ProgressService) Reconcile(ctx context.Context, submissionID string) error {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return common.Errorf("load submission %s: %w", submissionID, err)
	}
	_, err = s.ApplyAccepted(ctx, sub)
	return err
}

// PendingSubmissions lists accepted final submissions older than grace that
// have no ledger entry yet.
func (s *ProgressService) PendingSubmissions(ctx context.Context, grace time.Duration, limit int) ([]string, error) {
	return s.submissionRepo.ListUnappliedAccepted(ctx, time.Now().Add(-grace), limit)
}
