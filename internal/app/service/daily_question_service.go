package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"letscode/internal/common"
	"letscode/internal/domain/model"
	"letscode/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier fans a notification out to live subscribers.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

type DailyQuestionService struct {
	tx               repository.TxRunner
	problemRepo      repository.ProblemRepository
	notificationRepo repository.NotificationRepository
	notifier         Notifier
	window           time.Duration
	frontendURL      string
	now              func() time.Time
}

func NewDailyQuestionService(
	tx repository.TxRunner,
	problemRepo repository.ProblemRepository,
	notificationRepo repository.NotificationRepository,
	notifier Notifier,
	window time.Duration,
	frontendURL string,
) *DailyQuestionService {
	return &DailyQuestionService{
		tx:               tx,
		problemRepo:      problemRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
		window:           window,
		frontendURL:      strings.TrimRight(frontendURL, "/"),
		now:              time.Now,
	}
}

// Activate makes problemID the only daily question for the next window and
// announces it. An unknown id leaves the current daily question in place.
func (s *DailyQuestionService) Activate(ctx context.Context, problemID string) (*model.Problem, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, common.Errorf("problem id is required: %w", common.ErrValidation)
	}
	if _, err := uuid.Parse(problemID); err != nil {
		return nil, common.Errorf("problem id %q is not a valid id: %w", problemID, common.ErrValidation)
	}

	now := s.now().UTC()
	var (
		problem      *model.Problem
		notification model.Notification
	)
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.problemRepo.ClearDailyQuestion(ctx, tx); err != nil {
			return err
		}
		p, err := s.problemRepo.SetDailyQuestion(ctx, tx, problemID, now.Add(s.window))
		if err != nil {
			return err
		}
		problem = p

		notification = model.Notification{
			ID:      uuid.NewString(),
			Message: fmt.Sprintf("Problem of the day: %s", p.Title),
			Link:    s.frontendURL + "/problems/" + p.ID,
			AddedOn: now,
		}
		return s.notificationRepo.Create(ctx, tx, &notification)
	})
	if err != nil {
		return nil, common.Errorf("activate daily question %s: %w", problemID, err)
	}

	log.Info().Str("problem_id", problem.ID).Time("valid_till", *problem.ValidTill).Msg("Daily question activated")

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, notification); err != nil {
			log.Warn().Err(err).Str("notification_id", notification.ID).Msg("Failed to publish daily question notification")
		}
	}
	return problem, nil
}
