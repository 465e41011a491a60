package service

import (
	"context"
	"errors"
	"fmt"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/repository"
)

func meetupNotFound(id int32) error {
	return domain.NewError(domain.ErrNotFound, domain.ReasonMeetupNotFound, fmt.Sprintf("meetup %d not found", id))
}

func notHost(meetupID int32) error {
	return domain.NewError(domain.ErrForbidden, domain.ReasonNotHost, fmt.Sprintf("only the host of meetup %d may do this", meetupID))
}

func notApproved(meetupID, userID int32) error {
	return domain.NewError(domain.ErrForbidden, domain.ReasonNotApproved,
		fmt.Sprintf("user %d is not an approved participant of meetup %d", userID, meetupID))
}

func loadMeetup(ctx context.Context, repo repository.MeetupRepository, id int32) (*domain.Meetup, error) {
	m, err := repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, meetupNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load meetup %d: %w", id, err)
	}
	return m, nil
}

// loadParticipant returns nil without error when the user has no row.
func loadParticipant(ctx context.Context, repo repository.ParticipantRepository, meetupID, userID int32) (*domain.Participant, error) {
	p, err := repo.Get(ctx, meetupID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load participant %d/%d: %w", meetupID, userID, err)
	}
	return p, nil
}
