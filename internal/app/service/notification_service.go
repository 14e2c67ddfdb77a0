package service

import (
	"context"

	"letscode/internal/common"
	"letscode/internal/domain/model"
	"letscode/internal/domain/repository"
)

// Subscriber streams notifications published after the call.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan model.Notification, error)
}

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	subscriber       Subscriber
}

func NewNotificationService(notificationRepo repository.NotificationRepository, subscriber Subscriber) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, subscriber: subscriber}
}

const (
	defaultNotificationLimit = 5
	maxNotificationLimit     = 50
)

// Recent returns the newest notifications first.
func (s *NotificationService) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	items, err := s.notificationRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, common.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return items, nil
}

// Stream relays live notifications until ctx is done.
func (s *NotificationService) Stream(ctx context.Context) (<-chan model.Notification, error) {
	if s.subscriber == nil {
		return nil, common.ErrServiceUnavailable
	}
	return s.subscriber.Subscribe(ctx)
}
