package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/repository"
	"ricemeet-backend/internal/service"
)

func TestNotificationService(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults paging", func(t *testing.T) {
		repo := new(MockNotificationRepo)
		svc := service.NewNotificationService(repo)
		repo.On("List", ctx, guestID, int32(20), int32(0)).Return([]domain.Notification{{ID: 1}}, int32(1), nil)

		notes, total, err := svc.GetNotifications(ctx, guestID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		assert.Len(t, notes, 1)
	})

	t.Run("Mark someone else's notification", func(t *testing.T) {
		repo := new(MockNotificationRepo)
		svc := service.NewNotificationService(repo)
		repo.On("MarkAsRead", ctx, int32(5), guestID).Return(repository.ErrNotFound)

		err := svc.MarkAsRead(ctx, guestID, 5)
		assertKind(t, err, domain.ErrNotFound, domain.ReasonNotificationMissing)
	})
}

func TestNotificationSink_Emit(t *testing.T) {
	ctx := context.Background()
	repo := new(MockNotificationRepo)
	sink := service.NewNotificationSink(repo)

	repo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool { return n.UserID == guestID })).Return(nil)
	repo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool { return n.UserID == otherID })).Return(errors.New("db down"))

	sink.Emit(ctx, domain.Event{
		Type:       domain.EventMeetupStatusChange,
		MeetupID:   10,
		Recipients: []int32{guestID, otherID},
		Title:      "Meetup status changed",
		Attributes: map[string]string{"status": string(domain.MeetupStatusCancelled)},
	})

	repo.AssertNumberOfCalls(t, "Create", 2)
	note := repo.Calls[0].Arguments.Get(1).(*domain.Notification)
	assert.Equal(t, int32(10), note.MeetupID)
	assert.Equal(t, string(domain.EventMeetupStatusChange), note.Attributes["type"])
	assert.Equal(t, string(domain.MeetupStatusCancelled), note.Attributes["status"])
}
