package service

import (
	"context"
	"errors"
	"fmt"

	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
)

type penaltyService struct {
	meetupRepo      repository.MeetupRepository
	participantRepo repository.ParticipantRepository
	reputationRepo  repository.ReputationRepository
	reputationSvc   ReputationService
	dispatcher      PointsDispatcher
	events          EventSink
	clock           clock.Clock
	policy          PenaltyPolicy
}

func NewPenaltyService(
	meetupRepo repository.MeetupRepository,
	participantRepo repository.ParticipantRepository,
	reputationRepo repository.ReputationRepository,
	reputationSvc ReputationService,
	dispatcher PointsDispatcher,
	events EventSink,
	clk clock.Clock,
	policy PenaltyPolicy,
) PenaltyService {
	return &penaltyService{
		meetupRepo:      meetupRepo,
		participantRepo: participantRepo,
		reputationRepo:  reputationRepo,
		reputationSvc:   reputationSvc,
		dispatcher:      dispatcher,
		events:          events,
		clock:           clk,
		policy:          policy,
	}
}

func (s *penaltyService) RecordPenalty(ctx context.Context, kind domain.PenaltyKind, meetupID, userID int32) (bool, error) {
	logger.EnterMethod("penaltyService.RecordPenalty", "kind", kind, "meetupID", meetupID, "userID", userID)

	if !kind.Valid() {
		return false, domain.NewError(domain.ErrValidation, domain.ReasonInvalidInput, fmt.Sprintf("unknown penalty kind %q", kind))
	}
	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return false, err
	}
	p, err := loadParticipant(ctx, s.participantRepo, meetupID, userID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, domain.NewError(domain.ErrNotFound, domain.ReasonParticipantNotFound,
			fmt.Sprintf("user %d is not part of meetup %d", userID, meetupID))
	}
	if kind == domain.PenaltyKindNoShow {
		if !p.IsApproved() {
			return false, notApproved(meetupID, userID)
		}
		if p.Attended {
			return false, domain.NewError(domain.ErrInvalidState, domain.ReasonAlreadyAttended, "participant attended this meetup")
		}
	}

	applied, err := s.apply(ctx, m, kind, userID)
	if err != nil {
		logger.ExitMethodWithError("penaltyService.RecordPenalty", err)
		return false, err
	}
	logger.ExitMethod("penaltyService.RecordPenalty", "applied", applied)
	return applied, nil
}

// apply records the penalty once. Points and the notification follow only
// the first application.
func (s *penaltyService) apply(ctx context.Context, m *domain.Meetup, kind domain.PenaltyKind, userID int32) (bool, error) {
	applied, err := s.reputationSvc.Apply(ctx, domain.NewPenaltyReputationEvent(kind, m.ID, userID))
	if err != nil || !applied {
		return false, err
	}

	req := domain.PenaltyRequest{UserID: userID, MeetupID: m.ID, Amount: s.policy.pointsFor(kind), Kind: kind}
	if req.Amount > 0 {
		if err := s.dispatcher.DispatchPenalty(ctx, req); err != nil {
			logger.Error("Failed to dispatch points penalty", "meetupID", m.ID, "userID", userID, "kind", kind, "error", err)
		}
	}
	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventPenaltyApplied,
		MeetupID:   m.ID,
		Recipients: []int32{userID},
		Title:      "Penalty applied",
		Message:    fmt.Sprintf("A %s penalty was applied for %s", kind, m.Title),
		Attributes: map[string]string{"kind": string(kind)},
	})
	return true, nil
}

func (s *penaltyService) ListPenalties(ctx context.Context, userID int32) ([]domain.PenaltyEvent, error) {
	return s.reputationRepo.ListPenalties(ctx, userID)
}

func (s *penaltyService) SettleEndedMeetup(ctx context.Context, m *domain.Meetup) (int, error) {
	logger.EnterMethod("penaltyService.SettleEndedMeetup", "meetupID", m.ID)

	if m.Status != domain.MeetupStatusEnded {
		return 0, domain.NewError(domain.ErrInvalidState, domain.ReasonMeetupNotEnded, fmt.Sprintf("meetup is %s", m.Status))
	}
	participants, err := s.meetupRepo.Settle(ctx, m.ID, s.clock.Now())
	if errors.Is(err, repository.ErrConflict) {
		logger.ExitMethod("penaltyService.SettleEndedMeetup", "result", "already settled")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("settle meetup %d: %w", m.ID, err)
	}

	noShows, err := s.score(ctx, m, participants)
	if err != nil {
		logger.ExitMethodWithError("penaltyService.SettleEndedMeetup", err, "noShows", noShows)
		return noShows, err
	}
	logger.ExitMethod("penaltyService.SettleEndedMeetup", "noShows", noShows)
	return noShows, nil
}

func (s *penaltyService) RescoreSettledMeetup(ctx context.Context, m *domain.Meetup) (int, error) {
	logger.EnterMethod("penaltyService.RescoreSettledMeetup", "meetupID", m.ID)

	if m.SettledAt == nil {
		return 0, domain.NewError(domain.ErrInvalidState, domain.ReasonMeetupNotEnded, "meetup is not settled")
	}
	// Attendance is frozen once settled_at is stamped, so this list matches
	// the one the sweep scored.
	participants, err := s.participantRepo.ListByMeetup(ctx, m.ID)
	if err != nil {
		return 0, fmt.Errorf("list participants: %w", err)
	}
	noShows, err := s.score(ctx, m, participants)
	if err != nil {
		logger.ExitMethodWithError("penaltyService.RescoreSettledMeetup", err, "noShows", noShows)
		return noShows, err
	}
	logger.ExitMethod("penaltyService.RescoreSettledMeetup", "noShows", noShows)
	return noShows, nil
}

// score applies the settlement events of a settled meetup. Every event is
// keyed, so scoring the same meetup again only fills in what is missing.
// The host is credited with completion only after checking in and is never
// a no-show.
func (s *penaltyService) score(ctx context.Context, m *domain.Meetup, participants []domain.Participant) (int, error) {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if _, err := s.reputationSvc.Apply(ctx, domain.NewHostedEvent(m.ID, m.HostID)); err != nil {
		logger.Error("Failed to apply hosted event", "meetupID", m.ID, "error", err)
		keep(err)
	}
	noShows := 0
	for _, p := range participants {
		if !p.IsApproved() {
			continue
		}
		if p.Attended {
			if _, err := s.reputationSvc.Apply(ctx, domain.NewCompletedEvent(m.ID, p.UserID)); err != nil {
				logger.Error("Failed to apply completed event", "meetupID", m.ID, "userID", p.UserID, "error", err)
				keep(err)
			}
			continue
		}
		if m.IsHost(p.UserID) {
			continue
		}
		applied, err := s.apply(ctx, m, domain.PenaltyKindNoShow, p.UserID)
		if err != nil {
			logger.Error("Failed to apply no-show", "meetupID", m.ID, "userID", p.UserID, "error", err)
			keep(err)
			continue
		}
		if applied {
			noShows++
		}
	}
	return noShows, firstErr
}
