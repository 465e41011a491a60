package service

import (
	"context"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/security"
	"ricemeet-backend/internal/utils"
)

type MeetupService interface {
	CreateMeetup(ctx context.Context, hostID int32, m *domain.Meetup) (*domain.Meetup, error)
	GetMeetup(ctx context.Context, id int32) (*domain.Meetup, error)
	Join(ctx context.Context, meetupID, userID int32) (*domain.Participant, error)
	Approve(ctx context.Context, hostID, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error)
	Reject(ctx context.Context, hostID, meetupID, userID int32) (*domain.Participant, error)
	Leave(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error)
	ChangeStatus(ctx context.Context, hostID, meetupID int32, next domain.MeetupStatus) (*domain.Meetup, error)
}

type AttendanceService interface {
	CheckInGPS(ctx context.Context, meetupID, userID int32, at utils.Coordinate) (*domain.AttendanceRecord, error)
	IssueQRToken(ctx context.Context, hostID, meetupID int32) (string, time.Time, error) // token, expiresAt
	CheckInQR(ctx context.Context, meetupID, userID int32, token string) (*domain.AttendanceRecord, error)
	HostConfirm(ctx context.Context, hostID, meetupID, participantID int32) (*domain.AttendanceRecord, error)
	MutualConfirm(ctx context.Context, meetupID, confirmerID, targetID int32) (*domain.MutualPairState, error)
	GetMutualState(ctx context.Context, meetupID, userID, targetID int32) (*domain.MutualPairState, error)
	ListAttendance(ctx context.Context, hostID, meetupID int32) ([]domain.Participant, error)
}

type ReviewService interface {
	CanReview(ctx context.Context, meetupID, reviewerID, revieweeID int32) (*domain.ReviewEligibility, error)
	SubmitReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	ListMeetupReviews(ctx context.Context, viewerID, meetupID int32) ([]domain.Review, error)
	ListUserReviews(ctx context.Context, viewerID, userID int32, page, pageSize int32) ([]domain.Review, int32, error)
}

type ReputationService interface {
	GetRiceIndex(ctx context.Context, userID int32) (*domain.RiceIndex, error)
	// Apply applies ev to the user's score. It returns false when ev.Key
	// was applied before.
	Apply(ctx context.Context, ev *domain.ReputationEvent) (bool, error)
}

type PenaltyService interface {
	RecordPenalty(ctx context.Context, kind domain.PenaltyKind, meetupID, userID int32) (bool, error)
	ListPenalties(ctx context.Context, userID int32) ([]domain.PenaltyEvent, error)
	// SettleEndedMeetup freezes attendance of an ended meetup, then applies
	// completion events to attendees and no-show penalties to approved
	// participants that never attended.
	SettleEndedMeetup(ctx context.Context, m *domain.Meetup) (int, error)
	// RescoreSettledMeetup applies settlement events that a previous
	// settlement failed to apply.
	RescoreSettledMeetup(ctx context.Context, m *domain.Meetup) (int, error)
}

// PointsService is the local points/deposit ledger. Refund and Penalize are
// idempotent per (user, meetup, type).
type PointsService interface {
	Refund(ctx context.Context, req domain.RefundRequest) (bool, error)
	Penalize(ctx context.Context, req domain.PenaltyRequest) (bool, error)
	GetBalance(ctx context.Context, userID int32) (int32, error)
	GetTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PointsTransaction, int32, error)
}

// PointsDispatcher hands ledger writes to the background worker so the
// calling transition never waits on them.
type PointsDispatcher interface {
	DispatchRefund(ctx context.Context, req domain.RefundRequest) error
	DispatchPenalty(ctx context.Context, req domain.PenaltyRequest) error
}

// EventSink receives state transition events. Emit never fails the caller.
type EventSink interface {
	Emit(ctx context.Context, ev domain.Event)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// QRTokens issues and validates QR check-in tokens.
type QRTokens interface {
	Issue(meetupID, hostID int32, now time.Time) (string, time.Time, error)
	Parse(token string, now time.Time) (*security.QRClaims, error)
}

// AttendancePolicy holds the check-in window around a meetup's start.
type AttendancePolicy struct {
	WindowBefore time.Duration
	WindowAfter  time.Duration
}

// DefaultAttendancePolicy is the canonical [start-20m, start+10m] window.
func DefaultAttendancePolicy() AttendancePolicy {
	return AttendancePolicy{WindowBefore: 20 * time.Minute, WindowAfter: 10 * time.Minute}
}

// PenaltyPolicy holds the points debited per penalty kind.
type PenaltyPolicy struct {
	NoShowPoints int32
	ReportPoints int32
}

func (p PenaltyPolicy) pointsFor(kind domain.PenaltyKind) int32 {
	if kind == domain.PenaltyKindReport {
		return p.ReportPoints
	}
	return p.NoShowPoints
}
