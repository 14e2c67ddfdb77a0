package service

import (
	"context"
	"strings"

	"letscode/internal/common"
	"letscode/internal/domain/model"
	"letscode/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Evaluator runs source code against test cases and returns one result per
// case, in case order.
type Evaluator interface {
	Evaluate(ctx context.Context, sourceCode string, languageID int, cases []model.TestCase) ([]model.TestResult, error)
}

// EvaluationService is the run/submit workflow: validate, throttle (run only),
// judge, aggregate, record, and for accepted submits update progress.
type EvaluationService struct {
	userRepo       repository.UserRepository
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	judge          Evaluator
	guard          RunGuard
	progress       *ProgressService
}

func NewEvaluationService(
	userRepo repository.UserRepository,
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	judge Evaluator,
	guard RunGuard,
	progress *ProgressService,
) *EvaluationService {
	return &EvaluationService{
		userRepo:       userRepo,
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		judge:          judge,
		guard:          guard,
		progress:       progress,
	}
}

type EvaluateRequest struct {
	ProblemID  string           `json:"problem_id"`
	SourceCode string           `json:"source_code"`
	LanguageID int              `json:"language_id"`
	TestCases  []model.TestCase `json:"test_cases"`
}

type RunResult struct {
	Success      bool                   `json:"success"`
	AllPassed    bool                   `json:"all_passed"`
	EnableSubmit bool                   `json:"enable_submit"`
	Status       model.SubmissionStatus `json:"status"`
	SubmissionID string                 `json:"submission_id"`
	MaxRuntime   string                 `json:"max_runtime"`
	PeakMemory   int                    `json:"peak_memory"`
	Results      []model.TestResult     `json:"results"`
}

type SubmitResult struct {
	Success         bool                   `json:"success"`
	AllPassed       bool                   `json:"all_passed"`
	Status          model.SubmissionStatus `json:"status"`
	SubmissionID    string                 `json:"submission_id"`
	MaxRuntime      string                 `json:"max_runtime"`
	PeakMemory      int                    `json:"peak_memory"`
	Results         []model.TestResult     `json:"results"`
	UserStats       *model.UserStats       `json:"user_stats,omitempty"`
	ProgressPending bool                   `json:"progress_pending,omitempty"`
}

// evaluation is the shared part of run and submit up to the recorded submission.
type evaluation struct {
	submission *model.Submission
	outcome    model.Outcome
}

// Run evaluates without scoring. It is throttled per user and problem.
func (s *EvaluationService) Run(ctx context.Context, userID string, req EvaluateRequest) (*RunResult, error) {
	ev, err := s.evaluate(ctx, userID, req, false)
	if err != nil {
		return nil, err
	}
	return &RunResult{
		Success:      true,
		AllPassed:    ev.outcome.AllPassed,
		EnableSubmit: ev.outcome.AllPassed,
		Status:       ev.outcome.Status,
		SubmissionID: ev.submission.ID,
		MaxRuntime:   ev.outcome.MaxRuntime,
		PeakMemory:   ev.outcome.PeakMemory,
		Results:      ev.submission.TestResults,
	}, nil
}

// Submit evaluates a scoring submission. Only a fully accepted submit moves
// the user's progress; a failed progress update is queued for reconciliation.
func (s *EvaluationService) Submit(ctx context.Context, userID string, req EvaluateRequest) (*SubmitResult, error) {
	ev, err := s.evaluate(ctx, userID, req, true)
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{
		Success:      ev.outcome.AllPassed,
		AllPassed:    ev.outcome.AllPassed,
		Status:       ev.outcome.Status,
		SubmissionID: ev.submission.ID,
		MaxRuntime:   ev.outcome.MaxRuntime,
		PeakMemory:   ev.outcome.PeakMemory,
		Results:      ev.submission.TestResults,
	}
	if !ev.outcome.AllPassed {
		return res, nil
	}

	stats, err := s.progress.ApplyAccepted(ctx, ev.submission)
	if err != nil {
		res.ProgressPending = true
		logger := log.With().Str("submission_id", ev.submission.ID).Str("user_id", userID).Logger()
		logger.Error().Err(err).Msg("Progress update failed, queueing for reconciliation")
		if qerr := s.progress.Defer(context.WithoutCancel(ctx), ev.submission.ID); qerr != nil {
			// the periodic sweep still finds it through the ledger
			logger.Error().Err(qerr).Msg("Failed to queue progress reconciliation")
		}
		return res, nil
	}
	res.UserStats = stats
	return res, nil
}

func (s *EvaluationService) evaluate(ctx context.Context, userID string, req EvaluateRequest, final bool) (*evaluation, error) {
	if err := validateEvaluateRequest(req); err != nil {
		return nil, err
	}

	var problem *model.Problem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := s.userRepo.FindByID(gctx, userID); err != nil {
			return common.Errorf("user %s: %w", userID, err)
		}
		return nil
	})
	g.Go(func() error {
		p, err := s.problemRepo.FindProblemByID(gctx, req.ProblemID)
		if err != nil {
			return common.Errorf("problem %s: %w", req.ProblemID, err)
		}
		problem = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cases := req.TestCases
	if len(cases) == 0 {
		stored, err := s.problemRepo.GetTestCasesByProblemID(ctx, problem.ID)
		if err != nil {
			return nil, common.Errorf("load test cases for problem %s: %w", problem.ID, err)
		}
		cases = stored
	}
	if len(cases) == 0 {
		return nil, common.Errorf("problem %s has no test cases: %w", problem.ID, common.ErrValidation)
	}

	if !final {
		if err := s.guard.Allow(ctx, userID, problem.ID); err != nil {
			return nil, err
		}
	}

	results, err := s.judge.Evaluate(ctx, req.SourceCode, req.LanguageID, cases)
	if err != nil {
		return nil, common.Errorf("evaluate submission for problem %s: %w", problem.ID, err)
	}
	if len(results) != len(cases) {
		return nil, common.Errorf("judge returned %d results for %d cases: %w", len(results), len(cases), common.ErrJudgeUnavailable)
	}
	outcome := model.Aggregate(results)

	sub := &model.Submission{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProblemID:       problem.ID,
		SourceCode:      req.SourceCode,
		LanguageID:      req.LanguageID,
		Status:          outcome.Status,
		TestResults:     results,
		TotalRuntime:    outcome.Runtime,
		TotalMemory:     outcome.Memory,
		FinalSubmission: final,
		QuestionTitle:   problem.Title,
	}
	if problem.IsDaily && problem.ValidTill != nil {
		validTill := *problem.ValidTill
		sub.DailyValidTill = &validTill
	}
	if err := s.submissionRepo.CreateSubmission(ctx, nil, sub); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("problem_id", problem.ID).Bool("final", final).
			Msg("Judge results could not be recorded")
		return nil, common.Errorf("record submission: %v: %w", err, common.ErrResultLost)
	}
	s.guard.Recorded(context.WithoutCancel(ctx), userID, problem.ID)

	log.Info().
		Str("submission_id", sub.ID).
		Str("user_id", userID).
		Str("problem_id", problem.ID).
		Bool("final", final).
		Str("status", string(sub.Status)).
		Msg("Submission recorded")
	return &evaluation{submission: sub, outcome: outcome}, nil
}

func validateEvaluateRequest(req EvaluateRequest) error {
	if strings.TrimSpace(req.ProblemID) == "" {
		return common.Errorf("problem_id is required: %w", common.ErrValidation)
	}
	if _, err := uuid.Parse(req.ProblemID); err != nil {
		return common.Errorf("problem_id %q is not a valid id: %w", req.ProblemID, common.ErrValidation)
	}
	if strings.TrimSpace(req.SourceCode) == "" {
		return common.Errorf("source_code is required: %w", common.ErrValidation)
	}
	if _, ok := model.LanguageByID(req.LanguageID); !ok {
		return common.Errorf("unsupported language_id %d: %w", req.LanguageID, common.ErrValidation)
	}
	return nil
}
