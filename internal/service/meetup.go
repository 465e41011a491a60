package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
	"ricemeet-backend/internal/utils"
)

// statusRetries bounds how often ChangeStatus re-reads a meetup whose status
// moved under it (for example Recruiting flipping to Full).
const statusRetries = 3

type meetupService struct {
	meetupRepo      repository.MeetupRepository
	participantRepo repository.ParticipantRepository
	reputationSvc   ReputationService
	dispatcher      PointsDispatcher
	events          EventSink
	clock           clock.Clock
	defaultRadius   int32
}

func NewMeetupService(
	meetupRepo repository.MeetupRepository,
	participantRepo repository.ParticipantRepository,
	reputationSvc ReputationService,
	dispatcher PointsDispatcher,
	events EventSink,
	clk clock.Clock,
	defaultRadius int32,
) MeetupService {
	return &meetupService{
		meetupRepo:      meetupRepo,
		participantRepo: participantRepo,
		reputationSvc:   reputationSvc,
		dispatcher:      dispatcher,
		events:          events,
		clock:           clk,
		defaultRadius:   defaultRadius,
	}
}

func (s *meetupService) CreateMeetup(ctx context.Context, hostID int32, m *domain.Meetup) (*domain.Meetup, error) {
	logger.EnterMethod("meetupService.CreateMeetup", "hostID", hostID)

	m.HostID = hostID
	m.Title = strings.TrimSpace(m.Title)
	if err := validateNewMeetup(m); err != nil {
		logger.ExitMethodWithError("meetupService.CreateMeetup", err)
		return nil, err
	}
	m.ApplyDefaults(s.defaultRadius)

	if err := s.meetupRepo.Create(ctx, m); err != nil {
		logger.ExitMethodWithError("meetupService.CreateMeetup", err)
		return nil, fmt.Errorf("create meetup: %w", err)
	}
	logger.ExitMethod("meetupService.CreateMeetup", "meetupID", m.ID)
	return m, nil
}

func validateNewMeetup(m *domain.Meetup) error {
	invalid := func(msg string) error {
		return domain.NewError(domain.ErrValidation, domain.ReasonInvalidInput, msg)
	}
	switch {
	case m.Title == "":
		return invalid("title is required")
	case m.StartAt.IsZero():
		return invalid("start time is required")
	case m.MaxParticipants < 2:
		return invalid("max participants must be at least 2")
	case m.DepositPoints < 0:
		return invalid("deposit points must not be negative")
	case m.CheckInRadiusMeters < 0 || m.DurationMinutes < 0:
		return invalid("radius and duration must not be negative")
	case (m.Latitude == nil) != (m.Longitude == nil):
		return invalid("latitude and longitude must be set together")
	}
	if m.HasLocation() && !(utils.Coordinate{Latitude: *m.Latitude, Longitude: *m.Longitude}).Valid() {
		return invalid("coordinates out of range")
	}
	return nil
}

func (s *meetupService) GetMeetup(ctx context.Context, id int32) (*domain.Meetup, error) {
	return loadMeetup(ctx, s.meetupRepo, id)
}

func (s *meetupService) Join(ctx context.Context, meetupID, userID int32) (*domain.Participant, error) {
	logger.EnterMethod("meetupService.Join", "meetupID", meetupID, "userID", userID)

	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case domain.MeetupStatusRecruiting:
	case domain.MeetupStatusFull:
		return nil, domain.NewError(domain.ErrInvalidState, domain.ReasonMeetupFull, "meetup is full")
	default:
		return nil, domain.NewError(domain.ErrInvalidState, domain.ReasonNotRecruiting,
			fmt.Sprintf("meetup is %s", m.Status))
	}

	p := &domain.Participant{
		MeetupID: meetupID,
		UserID:   userID,
		Status:   domain.ParticipantStatusRequested,
		JoinedAt: s.clock.Now(),
	}
	if err := s.participantRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewError(domain.ErrDuplicateAction, domain.ReasonAlreadyJoined,
				fmt.Sprintf("user %d already has a participation record for meetup %d", userID, meetupID))
		}
		logger.ExitMethodWithError("meetupService.Join", err)
		return nil, fmt.Errorf("create participant: %w", err)
	}

	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventJoinRequested,
		MeetupID:   meetupID,
		ActorID:    userID,
		Recipients: []int32{m.HostID},
		Title:      "New join request",
		Message:    fmt.Sprintf("A user asked to join %s", m.Title),
		Attributes: map[string]string{"user_id": strconv.Itoa(int(userID))},
	})
	logger.ExitMethod("meetupService.Join", "participantID", p.ID)
	return p, nil
}

func (s *meetupService) Approve(ctx context.Context, hostID, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	logger.EnterMethod("meetupService.Approve", "hostID", hostID, "meetupID", meetupID, "userID", userID)

	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, nil, err
	}
	if !m.IsHost(hostID) {
		return nil, nil, notHost(meetupID)
	}

	p, updated, err := s.participantRepo.Approve(ctx, meetupID, userID)
	switch {
	case errors.Is(err, repository.ErrCapacityReached):
		return nil, nil, domain.NewError(domain.ErrInvalidState, domain.ReasonMeetupFull, "meetup is full")
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil, meetupNotFound(meetupID)
	case errors.Is(err, repository.ErrConflict):
		return nil, nil, s.explainParticipantConflict(ctx, meetupID, userID)
	case err != nil:
		logger.ExitMethodWithError("meetupService.Approve", err)
		return nil, nil, fmt.Errorf("approve participant: %w", err)
	}

	if _, err := s.reputationSvc.Apply(ctx, domain.NewApprovedEvent(meetupID, userID)); err != nil {
		logger.Warn("Failed to apply approval to reputation", "meetupID", meetupID, "userID", userID, "error", err)
	}
	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventJoinApproved,
		MeetupID:   meetupID,
		ActorID:    hostID,
		Recipients: []int32{userID},
		Title:      "Join request approved",
		Message:    fmt.Sprintf("You are in for %s", updated.Title),
	})
	logger.ExitMethod("meetupService.Approve", "current", updated.CurrentParticipants, "status", updated.Status)
	return p, updated, nil
}

func (s *meetupService) Reject(ctx context.Context, hostID, meetupID, userID int32) (*domain.Participant, error) {
	logger.EnterMethod("meetupService.Reject", "hostID", hostID, "meetupID", meetupID, "userID", userID)

	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, err
	}
	if !m.IsHost(hostID) {
		return nil, notHost(meetupID)
	}

	p, err := s.participantRepo.Reject(ctx, meetupID, userID)
	if errors.Is(err, repository.ErrConflict) {
		return nil, s.explainParticipantConflict(ctx, meetupID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("reject participant: %w", err)
	}

	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventJoinRejected,
		MeetupID:   meetupID,
		ActorID:    hostID,
		Recipients: []int32{userID},
		Title:      "Join request declined",
		Message:    fmt.Sprintf("Your request to join %s was declined", m.Title),
	})
	logger.ExitMethod("meetupService.Reject")
	return p, nil
}

// explainParticipantConflict turns a failed conditional participant update
// into the matching client error.
func (s *meetupService) explainParticipantConflict(ctx context.Context, meetupID, userID int32) error {
	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return err
	}
	p, err := loadParticipant(ctx, s.participantRepo, meetupID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.NewError(domain.ErrNotFound, domain.ReasonParticipantNotFound,
			fmt.Sprintf("user %d has not asked to join meetup %d", userID, meetupID))
	}
	if m.Status != domain.MeetupStatusRecruiting && p.Status == domain.ParticipantStatusRequested {
		return domain.NewError(domain.ErrInvalidState, domain.ReasonNotRecruiting, fmt.Sprintf("meetup is %s", m.Status))
	}
	return domain.NewError(domain.ErrInvalidState, domain.ReasonIllegalTransition,
		fmt.Sprintf("participant is %s", p.Status))
}

func (s *meetupService) Leave(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	logger.EnterMethod("meetupService.Leave", "meetupID", meetupID, "userID", userID)

	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, nil, err
	}
	if m.IsHost(userID) {
		return nil, nil, domain.NewError(domain.ErrForbidden, domain.ReasonHostCannotLeave, "the host cancels the meetup instead of leaving")
	}
	if m.Status != domain.MeetupStatusRecruiting && m.Status != domain.MeetupStatusFull {
		return nil, nil, domain.NewError(domain.ErrInvalidState, domain.ReasonIllegalTransition,
			fmt.Sprintf("cannot leave a meetup that is %s", m.Status))
	}

	p, updated, err := s.participantRepo.Cancel(ctx, meetupID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil, domain.NewError(domain.ErrNotFound, domain.ReasonParticipantNotFound,
			fmt.Sprintf("user %d is not part of meetup %d", userID, meetupID))
	case errors.Is(err, repository.ErrConflict):
		return nil, nil, domain.NewError(domain.ErrInvalidState, domain.ReasonIllegalTransition, "participation already ended")
	case err != nil:
		logger.ExitMethodWithError("meetupService.Leave", err)
		return nil, nil, fmt.Errorf("cancel participant: %w", err)
	}

	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventParticipantLeft,
		MeetupID:   meetupID,
		ActorID:    userID,
		Recipients: []int32{m.HostID},
		Title:      "A participant left",
		Message:    fmt.Sprintf("A participant left %s", m.Title),
	})
	logger.ExitMethod("meetupService.Leave", "current", updated.CurrentParticipants, "status", updated.Status)
	return p, updated, nil
}

func (s *meetupService) ChangeStatus(ctx context.Context, hostID, meetupID int32, next domain.MeetupStatus) (*domain.Meetup, error) {
	logger.EnterMethod("meetupService.ChangeStatus", "hostID", hostID, "meetupID", meetupID, "next", next)

	if !next.Valid() {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonInvalidInput, fmt.Sprintf("unknown status %q", next))
	}

	var updated *domain.Meetup
	for attempt := 0; attempt < statusRetries && updated == nil; attempt++ {
		m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
		if err != nil {
			return nil, err
		}
		if !m.IsHost(hostID) {
			return nil, notHost(meetupID)
		}
		if !m.Status.CanHostTransition(next) {
			return nil, domain.NewError(domain.ErrInvalidState, domain.ReasonIllegalTransition,
				fmt.Sprintf("cannot move meetup from %s to %s", m.Status, next))
		}

		endedAt := m.EndedAt
		if next == domain.MeetupStatusEnded {
			now := s.clock.Now()
			endedAt = &now
		}
		updated, err = s.meetupRepo.UpdateStatus(ctx, meetupID, m.Status, next, endedAt)
		if errors.Is(err, repository.ErrConflict) {
			logger.Debug("Meetup status moved concurrently, retrying", "meetupID", meetupID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			logger.ExitMethodWithError("meetupService.ChangeStatus", err)
			return nil, fmt.Errorf("update meetup status: %w", err)
		}
	}
	if updated == nil {
		return nil, domain.NewError(domain.ErrInvalidState, domain.ReasonIllegalTransition, "meetup status keeps changing, try again")
	}

	// The transition is committed; everything below is best effort.
	participants, err := s.participantRepo.ListByMeetup(ctx, meetupID)
	if err != nil {
		logger.Error("Failed to list participants after status change", "meetupID", meetupID, "error", err)
	}
	switch next {
	case domain.MeetupStatusCancelled:
		s.dispatchRefunds(ctx, updated, participants)
	case domain.MeetupStatusEnded:
		s.applyCompletion(ctx, updated, participants)
	}

	var recipients []int32
	for _, p := range participants {
		if p.IsApproved() && p.UserID != hostID {
			recipients = append(recipients, p.UserID)
		}
	}
	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventMeetupStatusChange,
		MeetupID:   meetupID,
		ActorID:    hostID,
		Recipients: recipients,
		Title:      "Meetup status changed",
		Message:    fmt.Sprintf("%s is now %s", updated.Title, updated.Status),
		Attributes: map[string]string{"status": string(updated.Status)},
	})

	logger.ExitMethod("meetupService.ChangeStatus", "status", updated.Status)
	return updated, nil
}

// dispatchRefunds enqueues one refund per approved guest. Failures are left
// to the reconcile job.
func (s *meetupService) dispatchRefunds(ctx context.Context, m *domain.Meetup, participants []domain.Participant) {
	if m.DepositPoints <= 0 {
		return
	}
	for _, p := range participants {
		if !p.IsApproved() || m.IsHost(p.UserID) {
			continue
		}
		req := domain.RefundRequest{UserID: p.UserID, MeetupID: m.ID, Amount: m.DepositPoints}
		if err := s.dispatcher.DispatchRefund(ctx, req); err != nil {
			logger.Error("Failed to dispatch refund", "meetupID", m.ID, "userID", p.UserID, "error", err)
		}
	}
}

// applyCompletion records hosting and completion for everyone already
// checked in. Late confirmations are picked up by the settlement job.
func (s *meetupService) applyCompletion(ctx context.Context, m *domain.Meetup, participants []domain.Participant) {
	if _, err := s.reputationSvc.Apply(ctx, domain.NewHostedEvent(m.ID, m.HostID)); err != nil {
		logger.Warn("Failed to apply hosted event", "meetupID", m.ID, "error", err)
	}
	for _, p := range participants {
		if !p.IsApproved() || !p.Attended {
			continue
		}
		if _, err := s.reputationSvc.Apply(ctx, domain.NewCompletedEvent(m.ID, p.UserID)); err != nil {
			logger.Warn("Failed to apply completion event", "meetupID", m.ID, "userID", p.UserID, "error", err)
		}
	}
}
