package service

import (
	"context"
	"errors"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	err := s.noteRepo.MarkAsRead(ctx, notificationID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewError(domain.ErrNotFound, domain.ReasonNotificationMissing, "notification not found")
	}
	return err
}

type notificationSink struct {
	noteRepo repository.NotificationRepository
}

// NewNotificationSink stores every event as one notification row per
// recipient. Store failures are logged and dropped.
func NewNotificationSink(noteRepo repository.NotificationRepository) EventSink {
	return &notificationSink{noteRepo: noteRepo}
}

func (s *notificationSink) Emit(ctx context.Context, ev domain.Event) {
	for _, userID := range ev.Recipients {
		attrs := map[string]string{"type": string(ev.Type)}
		for k, v := range ev.Attributes {
			attrs[k] = v
		}
		note := &domain.Notification{
			UserID:     userID,
			MeetupID:   ev.MeetupID,
			Title:      ev.Title,
			Message:    ev.Message,
			Attributes: attrs,
		}
		if err := s.noteRepo.Create(ctx, note); err != nil {
			logger.Warn("Failed to store notification", "type", ev.Type, "userID", userID, "meetupID", ev.MeetupID, "error", err)
		}
	}
}
