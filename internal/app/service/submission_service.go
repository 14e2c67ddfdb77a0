package service

import (
	"context"

	"letscode/internal/common"
	"letscode/internal/domain/model"
	"letscode/internal/domain/repository"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
}

func NewSubmissionService(submissionRepo repository.SubmissionRepository) *SubmissionService {
	return &SubmissionService{submissionRepo: submissionRepo}
}

func (s *SubmissionService) History(ctx context.Context, userID string, page, pageSize int) ([]model.Submission, int, error) {
	offset := (page - 1) * pageSize
	subs, total, err := s.submissionRepo.ListSubmissionsByUser(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, 0, common.Errorf("list submissions for user %s: %w", userID, err)
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	return subs, total, nil
}

// Get returns a submission owned by userID. Other users' submissions read as not found.
func (s *SubmissionService) Get(ctx context.Context, userID, submissionID string) (*model.Submission, error) {
	if _, err := uuid.Parse(submissionID); err != nil {
		return nil, common.Errorf("submission id %q is not a valid id: %w", submissionID, common.ErrValidation)
	}
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, common.ErrNotFound
	}
	return sub, nil
}
