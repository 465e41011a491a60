package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/repository"
	"ricemeet-backend/internal/security"
	"ricemeet-backend/internal/utils"
)

type attendanceService struct {
	meetupRepo       repository.MeetupRepository
	participantRepo  repository.ParticipantRepository
	confirmationRepo repository.ConfirmationRepository
	qrTokens         QRTokens
	events           EventSink
	clock            clock.Clock
	policy           AttendancePolicy
}

func NewAttendanceService(
	meetupRepo repository.MeetupRepository,
	participantRepo repository.ParticipantRepository,
	confirmationRepo repository.ConfirmationRepository,
	qrTokens QRTokens,
	events EventSink,
	clk clock.Clock,
	policy AttendancePolicy,
) AttendanceService {
	return &attendanceService{
		meetupRepo:       meetupRepo,
		participantRepo:  participantRepo,
		confirmationRepo: confirmationRepo,
		qrTokens:         qrTokens,
		events:           events,
		clock:            clk,
		policy:           policy,
	}
}

// checkInTarget loads the meetup and the approved participant a check-in
// is about.
func (s *attendanceService) checkInTarget(ctx context.Context, meetupID, userID int32) (*domain.Meetup, *domain.Participant, error) {
	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.approvedParticipant(ctx, m, userID)
	if err != nil {
		return nil, nil, err
	}
	return m, p, nil
}

// approvedParticipant returns userID's participation in m. Cancelled and
// settled meetups accept no check-ins.
func (s *attendanceService) approvedParticipant(ctx context.Context, m *domain.Meetup, userID int32) (*domain.Participant, error) {
	if m.Status == domain.MeetupStatusCancelled {
		return nil, domain.NewError(domain.ErrInvalidState, domain.ReasonMeetupCancelled, "meetup was cancelled")
	}
	if m.SettledAt != nil {
		return nil, attendanceSettled()
	}
	p, err := loadParticipant(ctx, s.participantRepo, m.ID, userID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsApproved() {
		return nil, notApproved(m.ID, userID)
	}
	return p, nil
}

func (s *attendanceService) CheckInGPS(ctx context.Context, meetupID, userID int32, at utils.Coordinate) (*domain.AttendanceRecord, error) {
	logger.EnterMethod("attendanceService.CheckInGPS", "meetupID", meetupID, "userID", userID)

	m, p, err := s.checkInTarget(ctx, meetupID, userID)
	if err != nil {
		logger.ExitMethodWithError("attendanceService.CheckInGPS", err)
		return nil, err
	}
	if rec := p.AttendanceRecord(); rec != nil {
		logger.ExitMethod("attendanceService.CheckInGPS", "result", "already attended", "method", rec.Method)
		return rec, nil
	}

	if !at.Valid() {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonMissingCoordinates, "latitude and longitude are required")
	}
	if !m.HasLocation() {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonMissingCoordinates, "meetup has no location, use another check-in method")
	}

	now := s.clock.Now()
	opens := m.StartAt.Add(-s.policy.WindowBefore)
	closes := m.StartAt.Add(s.policy.WindowAfter)
	if now.Before(opens) || now.After(closes) {
		err := domain.NewError(domain.ErrOutOfWindow, domain.ReasonCheckInWindow,
			fmt.Sprintf("check-in is open from %s to %s", opens.Format(time.RFC3339), closes.Format(time.RFC3339)))
		logger.ExitMethodWithError("attendanceService.CheckInGPS", err)
		return nil, err
	}

	distance := utils.HaversineMeters(at, utils.Coordinate{Latitude: *m.Latitude, Longitude: *m.Longitude})
	if distance > m.CheckInRadiusMeters {
		err := domain.NewError(domain.ErrOutOfRange, domain.ReasonOutsideGeofence,
			fmt.Sprintf("%dm from the meetup, allowed radius is %dm", distance, m.CheckInRadiusMeters))
		logger.ExitMethodWithError("attendanceService.CheckInGPS", err, "distance", distance)
		return nil, err
	}

	rec, err := s.record(ctx, m, &domain.AttendanceRecord{
		MeetupID:       meetupID,
		UserID:         userID,
		Method:         domain.AttendanceMethodGPS,
		DistanceMeters: &distance,
		AttendedAt:     now,
	})
	if err != nil {
		logger.ExitMethodWithError("attendanceService.CheckInGPS", err)
		return nil, err
	}
	logger.ExitMethod("attendanceService.CheckInGPS", "distance", distance)
	return rec, nil
}

func (s *attendanceService) IssueQRToken(ctx context.Context, hostID, meetupID int32) (string, time.Time, error) {
	logger.EnterMethod("attendanceService.IssueQRToken", "hostID", hostID, "meetupID", meetupID)

	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return "", time.Time{}, err
	}
	if !m.IsHost(hostID) {
		return "", time.Time{}, notHost(meetupID)
	}
	if m.Status.IsTerminal() {
		return "", time.Time{}, domain.NewError(domain.ErrInvalidState, domain.ReasonIllegalTransition,
			fmt.Sprintf("meetup is %s", m.Status))
	}

	token, expiresAt, err := s.qrTokens.Issue(meetupID, hostID, s.clock.Now())
	if err != nil {
		logger.ExitMethodWithError("attendanceService.IssueQRToken", err)
		return "", time.Time{}, fmt.Errorf("issue qr token: %w", err)
	}
	logger.ExitMethod("attendanceService.IssueQRToken", "expiresAt", expiresAt)
	return token, expiresAt, nil
}

func (s *attendanceService) CheckInQR(ctx context.Context, meetupID, userID int32, token string) (*domain.AttendanceRecord, error) {
	logger.EnterMethod("attendanceService.CheckInQR", "meetupID", meetupID, "userID", userID)

	now := s.clock.Now()
	claims, err := s.qrTokens.Parse(token, now)
	switch {
	case errors.Is(err, security.ErrExpiredQRToken):
		return nil, domain.NewError(domain.ErrOutOfWindow, domain.ReasonQRExpired, "qr token has expired, ask the host for a new one")
	case err != nil:
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonInvalidQRToken, "qr token is not valid")
	}
	if claims.MeetupID != meetupID {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonQRMeetupMismatch, "qr token belongs to another meetup")
	}

	m, p, err := s.checkInTarget(ctx, meetupID, userID)
	if err != nil {
		logger.ExitMethodWithError("attendanceService.CheckInQR", err)
		return nil, err
	}
	if claims.HostID != m.HostID {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonInvalidQRToken, "qr token was not issued by the host")
	}
	if rec := p.AttendanceRecord(); rec != nil {
		logger.ExitMethod("attendanceService.CheckInQR", "result", "already attended", "method", rec.Method)
		return rec, nil
	}

	rec, err := s.record(ctx, m, &domain.AttendanceRecord{
		MeetupID:   meetupID,
		UserID:     userID,
		Method:     domain.AttendanceMethodQR,
		AttendedAt: now,
	})
	if err != nil {
		logger.ExitMethodWithError("attendanceService.CheckInQR", err)
		return nil, err
	}
	logger.ExitMethod("attendanceService.CheckInQR", "tokenID", claims.ID)
	return rec, nil
}

func (s *attendanceService) HostConfirm(ctx context.Context, hostID, meetupID, participantID int32) (*domain.AttendanceRecord, error) {
	logger.EnterMethod("attendanceService.HostConfirm", "hostID", hostID, "meetupID", meetupID, "participantID", participantID)

	if hostID == participantID {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonSelfConfirm, "the host cannot confirm their own attendance")
	}
	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, err
	}
	if !m.IsHost(hostID) {
		return nil, notHost(meetupID)
	}
	p, err := s.approvedParticipant(ctx, m, participantID)
	if err != nil {
		logger.ExitMethodWithError("attendanceService.HostConfirm", err)
		return nil, err
	}
	if rec := p.AttendanceRecord(); rec != nil {
		logger.ExitMethod("attendanceService.HostConfirm", "result", "already attended", "method", rec.Method)
		return rec, nil
	}

	rec, err := s.record(ctx, m, &domain.AttendanceRecord{
		MeetupID:   meetupID,
		UserID:     participantID,
		Method:     domain.AttendanceMethodHostConfirm,
		AttendedAt: s.clock.Now(),
	})
	if err != nil {
		logger.ExitMethodWithError("attendanceService.HostConfirm", err)
		return nil, err
	}
	logger.ExitMethod("attendanceService.HostConfirm")
	return rec, nil
}

func (s *attendanceService) MutualConfirm(ctx context.Context, meetupID, confirmerID, targetID int32) (*domain.MutualPairState, error) {
	logger.EnterMethod("attendanceService.MutualConfirm", "meetupID", meetupID, "confirmerID", confirmerID, "targetID", targetID)

	if confirmerID == targetID {
		return nil, domain.NewError(domain.ErrValidation, domain.ReasonSelfConfirm, "cannot confirm yourself")
	}
	m, confirmer, err := s.checkInTarget(ctx, meetupID, confirmerID)
	if err != nil {
		logger.ExitMethodWithError("attendanceService.MutualConfirm", err)
		return nil, err
	}
	target, err := loadParticipant(ctx, s.participantRepo, meetupID, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.IsApproved() {
		return nil, notApproved(meetupID, targetID)
	}

	fact := &domain.MutualConfirmation{
		MeetupID:    meetupID,
		ConfirmerID: confirmerID,
		TargetID:    targetID,
		CreatedOn:   s.clock.Now(),
	}
	created, err := s.confirmationRepo.Create(ctx, fact)
	if err != nil {
		logger.ExitMethodWithError("attendanceService.MutualConfirm", err)
		return nil, fmt.Errorf("store confirmation: %w", err)
	}
	if !created {
		logger.Debug("Confirmation already recorded", "meetupID", meetupID, "confirmerID", confirmerID, "targetID", targetID)
	}

	facts, err := s.confirmationRepo.ListForPair(ctx, meetupID, confirmerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}
	state := domain.DerivePairState(meetupID, confirmerID, targetID, facts)

	if state.Attended() {
		now := s.clock.Now()
		for _, p := range []*domain.Participant{confirmer, target} {
			if p.Attended {
				continue
			}
			if _, err := s.record(ctx, m, &domain.AttendanceRecord{
				MeetupID:   meetupID,
				UserID:     p.UserID,
				Method:     domain.AttendanceMethodMutualConfirm,
				AttendedAt: now,
			}); err != nil {
				logger.ExitMethodWithError("attendanceService.MutualConfirm", err, "userID", p.UserID)
				return nil, err
			}
		}
	}
	logger.ExitMethod("attendanceService.MutualConfirm", "state", state.State)
	return state, nil
}

func (s *attendanceService) GetMutualState(ctx context.Context, meetupID, userID, targetID int32) (*domain.MutualPairState, error) {
	if _, _, err := s.checkInTarget(ctx, meetupID, userID); err != nil {
		return nil, err
	}
	facts, err := s.confirmationRepo.ListForPair(ctx, meetupID, userID, targetID)
	if err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}
	return domain.DerivePairState(meetupID, userID, targetID, facts), nil
}

func (s *attendanceService) ListAttendance(ctx context.Context, hostID, meetupID int32) ([]domain.Participant, error) {
	m, err := loadMeetup(ctx, s.meetupRepo, meetupID)
	if err != nil {
		return nil, err
	}
	if !m.IsHost(hostID) {
		return nil, notHost(meetupID)
	}
	participants, err := s.participantRepo.ListByMeetup(ctx, meetupID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

func attendanceSettled() error {
	return domain.NewError(domain.ErrInvalidState, domain.ReasonIllegalTransition, "attendance for this meetup is already settled")
}

// record writes rec if the participant has no attendance yet. When another
// write won the race the stored record is returned instead. A write that
// lost to the settlement sweep finds no record and is rejected.
func (s *attendanceService) record(ctx context.Context, m *domain.Meetup, rec *domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	won, err := s.participantRepo.MarkAttended(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("mark attended: %w", err)
	}
	if !won {
		p, err := loadParticipant(ctx, s.participantRepo, rec.MeetupID, rec.UserID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.IsApproved() {
			return nil, notApproved(rec.MeetupID, rec.UserID)
		}
		if existing := p.AttendanceRecord(); existing != nil {
			return existing, nil
		}
		logger.WithMeetup(rec.MeetupID, rec.UserID).Warn("Attendance arrived after settlement", "method", rec.Method)
		return nil, attendanceSettled()
	}

	logger.WithMeetup(rec.MeetupID, rec.UserID).Info("Attendance recorded", "method", rec.Method)
	s.events.Emit(ctx, domain.Event{
		Type:       domain.EventAttendanceRecorded,
		MeetupID:   rec.MeetupID,
		ActorID:    rec.UserID,
		Recipients: []int32{m.HostID},
		Title:      "Attendance recorded",
		Message:    fmt.Sprintf("A participant checked in to %s", m.Title),
		Attributes: map[string]string{
			"user_id": strconv.Itoa(int(rec.UserID)),
			"method":  string(rec.Method),
		},
	})
	return rec, nil
}
