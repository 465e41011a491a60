package http_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/utils"
)

type MockMeetupService struct{ mock.Mock }

func (m *MockMeetupService) CreateMeetup(ctx context.Context, hostID int32, meetup *domain.Meetup) (*domain.Meetup, error) {
	args := m.Called(ctx, hostID, meetup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meetup), args.Error(1)
}

func (m *MockMeetupService) GetMeetup(ctx context.Context, id int32) (*domain.Meetup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meetup), args.Error(1)
}

func (m *MockMeetupService) Join(ctx context.Context, meetupID, userID int32) (*domain.Participant, error) {
	args := m.Called(ctx, meetupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockMeetupService) Approve(ctx context.Context, hostID, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	args := m.Called(ctx, hostID, meetupID, userID)
	p, _ := args.Get(0).(*domain.Participant)
	mt, _ := args.Get(1).(*domain.Meetup)
	return p, mt, args.Error(2)
}

func (m *MockMeetupService) Reject(ctx context.Context, hostID, meetupID, userID int32) (*domain.Participant, error) {
	args := m.Called(ctx, hostID, meetupID, userID)
	p, _ := args.Get(0).(*domain.Participant)
	return p, args.Error(1)
}

func (m *MockMeetupService) Leave(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	args := m.Called(ctx, meetupID, userID)
	p, _ := args.Get(0).(*domain.Participant)
	mt, _ := args.Get(1).(*domain.Meetup)
	return p, mt, args.Error(2)
}

func (m *MockMeetupService) ChangeStatus(ctx context.Context, hostID, meetupID int32, next domain.MeetupStatus) (*domain.Meetup, error) {
	args := m.Called(ctx, hostID, meetupID, next)
	mt, _ := args.Get(0).(*domain.Meetup)
	return mt, args.Error(1)
}

type MockAttendanceService struct{ mock.Mock }

func (m *MockAttendanceService) CheckInGPS(ctx context.Context, meetupID, userID int32, at utils.Coordinate) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, meetupID, userID, at)
	rec, _ := args.Get(0).(*domain.AttendanceRecord)
	return rec, args.Error(1)
}

func (m *MockAttendanceService) IssueQRToken(ctx context.Context, hostID, meetupID int32) (string, time.Time, error) {
	args := m.Called(ctx, hostID, meetupID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAttendanceService) CheckInQR(ctx context.Context, meetupID, userID int32, token string) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, meetupID, userID, token)
	rec, _ := args.Get(0).(*domain.AttendanceRecord)
	return rec, args.Error(1)
}

func (m *MockAttendanceService) HostConfirm(ctx context.Context, hostID, meetupID, participantID int32) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, hostID, meetupID, participantID)
	rec, _ := args.Get(0).(*domain.AttendanceRecord)
	return rec, args.Error(1)
}

func (m *MockAttendanceService) MutualConfirm(ctx context.Context, meetupID, confirmerID, targetID int32) (*domain.MutualPairState, error) {
	args := m.Called(ctx, meetupID, confirmerID, targetID)
	st, _ := args.Get(0).(*domain.MutualPairState)
	return st, args.Error(1)
}

func (m *MockAttendanceService) GetMutualState(ctx context.Context, meetupID, userID, targetID int32) (*domain.MutualPairState, error) {
	args := m.Called(ctx, meetupID, userID, targetID)
	st, _ := args.Get(0).(*domain.MutualPairState)
	return st, args.Error(1)
}

func (m *MockAttendanceService) ListAttendance(ctx context.Context, hostID, meetupID int32) ([]domain.Participant, error) {
	args := m.Called(ctx, hostID, meetupID)
	ps, _ := args.Get(0).([]domain.Participant)
	return ps, args.Error(1)
}

type MockReviewService struct{ mock.Mock }

func (m *MockReviewService) CanReview(ctx context.Context, meetupID, reviewerID, revieweeID int32) (*domain.ReviewEligibility, error) {
	args := m.Called(ctx, meetupID, reviewerID, revieweeID)
	e, _ := args.Get(0).(*domain.ReviewEligibility)
	return e, args.Error(1)
}

func (m *MockReviewService) SubmitReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	args := m.Called(ctx, review)
	rv, _ := args.Get(0).(*domain.Review)
	return rv, args.Error(1)
}

func (m *MockReviewService) ListMeetupReviews(ctx context.Context, viewerID, meetupID int32) ([]domain.Review, error) {
	args := m.Called(ctx, viewerID, meetupID)
	rs, _ := args.Get(0).([]domain.Review)
	return rs, args.Error(1)
}

func (m *MockReviewService) ListUserReviews(ctx context.Context, viewerID, userID int32, page, pageSize int32) ([]domain.Review, int32, error) {
	args := m.Called(ctx, viewerID, userID, page, pageSize)
	rs, _ := args.Get(0).([]domain.Review)
	return rs, args.Get(1).(int32), args.Error(2)
}

type MockReputationService struct{ mock.Mock }

func (m *MockReputationService) GetRiceIndex(ctx context.Context, userID int32) (*domain.RiceIndex, error) {
	args := m.Called(ctx, userID)
	idx, _ := args.Get(0).(*domain.RiceIndex)
	return idx, args.Error(1)
}

func (m *MockReputationService) Apply(ctx context.Context, ev *domain.ReputationEvent) (bool, error) {
	args := m.Called(ctx, ev)
	return args.Bool(0), args.Error(1)
}

type MockPenaltyService struct{ mock.Mock }

func (m *MockPenaltyService) RecordPenalty(ctx context.Context, kind domain.PenaltyKind, meetupID, userID int32) (bool, error) {
	args := m.Called(ctx, kind, meetupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPenaltyService) ListPenalties(ctx context.Context, userID int32) ([]domain.PenaltyEvent, error) {
	args := m.Called(ctx, userID)
	evs, _ := args.Get(0).([]domain.PenaltyEvent)
	return evs, args.Error(1)
}

func (m *MockPenaltyService) SettleEndedMeetup(ctx context.Context, meetup *domain.Meetup) (int, error) {
	args := m.Called(ctx, meetup)
	return args.Int(0), args.Error(1)
}

func (m *MockPenaltyService) RescoreSettledMeetup(ctx context.Context, meetup *domain.Meetup) (int, error) {
	args := m.Called(ctx, meetup)
	return args.Int(0), args.Error(1)
}

type MockPointsService struct{ mock.Mock }

func (m *MockPointsService) Refund(ctx context.Context, req domain.RefundRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockPointsService) Penalize(ctx context.Context, req domain.PenaltyRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockPointsService) GetBalance(ctx context.Context, userID int32) (int32, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockPointsService) GetTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PointsTransaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	txs, _ := args.Get(0).([]domain.PointsTransaction)
	return txs, args.Get(1).(int32), args.Error(2)
}

type MockNotificationService struct{ mock.Mock }

func (m *MockNotificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	ns, _ := args.Get(0).([]domain.Notification)
	return ns, args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}
