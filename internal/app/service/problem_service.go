package service

import (
	"context"
	"database/sql"
	"strings"

	"letscode/internal/common"
	"letscode/internal/domain/model"
	"letscode/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	tx          repository.TxRunner
}

func NewProblemService(problemRepo repository.ProblemRepository, tx repository.TxRunner) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, tx: tx}
}

type CreateProblemRequest struct {
	Title                   string                  `json:"title"`
	Description             string                  `json:"description"`
	Difficulty              model.ProblemDifficulty `json:"difficulty"`
	DifficultyRating        int                     `json:"difficulty_rating"`
	Topics                  []string                `json:"topics"`
	Constraints             []string                `json:"constraints"`
	ExpectedTimeComplexity  string                  `json:"expected_time_complexity"`
	ExpectedSpaceComplexity string                  `json:"expected_space_complexity"`
	TestCases               []model.TestCase        `json:"test_cases"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, userID string, req CreateProblemRequest) (*model.Problem, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Description) == "" || len(req.TestCases) == 0 {
		return nil, common.Errorf("title, description and at least one test case are required: %w", common.ErrValidation)
	}
	if req.Difficulty == "" {
		req.Difficulty = model.DifficultyMedium
	}
	if !req.Difficulty.Valid() {
		return nil, common.Errorf("difficulty must be easy, medium or hard: %w", common.ErrValidation)
	}
	if req.DifficultyRating < 1 || req.DifficultyRating > 100 {
		return nil, common.Errorf("difficulty_rating must be between 1 and 100: %w", common.ErrValidation)
	}

	problem := &model.Problem{
		ID:                      uuid.NewString(),
		Title:                   req.Title,
		Slug:                    slug.Make(req.Title),
		Description:             req.Description,
		Difficulty:              req.Difficulty,
		DifficultyRating:        req.DifficultyRating,
		Topics:                  req.Topics,
		Constraints:             req.Constraints,
		ExpectedTimeComplexity:  req.ExpectedTimeComplexity,
		ExpectedSpaceComplexity: req.ExpectedSpaceComplexity,
		CreatedByID:             &userID,
	}
	for i, tc := range req.TestCases {
		problem.TestCases = append(problem.TestCases, model.TestCase{
			ID:             uuid.NewString(),
			ProblemID:      problem.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			SortOrder:      i,
		})
	}

	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
			return err
		}
		return s.problemRepo.AddTestCasesToProblem(ctx, tx, problem.ID, problem.TestCases)
	})
	if err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}

	log.Info().Str("problem_id", problem.ID).Str("slug", problem.Slug).Msg("Problem created")
	return problem, nil
}

func (s *ProblemService) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.Errorf("problem id %q is not a valid id: %w", id, common.ErrValidation)
	}
	problem, err := s.problemRepo.FindProblemByID(ctx, id)
	if err != nil {
		return nil, common.Errorf("problem %s: %w", id, err)
	}
	problem.TestCases, err = s.problemRepo.GetTestCasesByProblemID(ctx, id)
	if err != nil {
		return nil, common.Errorf("test cases for problem %s: %w", id, err)
	}
	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, page, pageSize int, difficulty model.ProblemDifficulty, search string) ([]model.Problem, int, error) {
	if difficulty != "" && !difficulty.Valid() {
		return nil, 0, common.Errorf("unknown difficulty %q: %w", difficulty, common.ErrValidation)
	}
	offset := (page - 1) * pageSize
	return s.problemRepo.ListProblems(ctx, pageSize, offset, difficulty, search)
}
