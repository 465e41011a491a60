package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"ricemeet-backend/internal/domain"
)

// MockMeetupRepo
type MockMeetupRepo struct {
	mock.Mock
}

func (m *MockMeetupRepo) Create(ctx context.Context, meetup *domain.Meetup) error {
	args := m.Called(ctx, meetup)
	return args.Error(0)
}
func (m *MockMeetupRepo) GetByID(ctx context.Context, id int32) (*domain.Meetup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meetup), args.Error(1)
}
func (m *MockMeetupRepo) UpdateStatus(ctx context.Context, id int32, from, to domain.MeetupStatus, endedAt *time.Time) (*domain.Meetup, error) {
	args := m.Called(ctx, id, from, to, endedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meetup), args.Error(1)
}
func (m *MockMeetupRepo) ListEndedUnsettled(ctx context.Context, endedBefore time.Time, limit int32) ([]domain.Meetup, error) {
	args := m.Called(ctx, endedBefore, limit)
	return args.Get(0).([]domain.Meetup), args.Error(1)
}
func (m *MockMeetupRepo) Settle(ctx context.Context, id int32, at time.Time) ([]domain.Participant, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}
func (m *MockMeetupRepo) ListSettledUnscored(ctx context.Context, since time.Time, limit int32) ([]domain.Meetup, error) {
	args := m.Called(ctx, since, limit)
	return args.Get(0).([]domain.Meetup), args.Error(1)
}
func (m *MockMeetupRepo) ListCancelledSince(ctx context.Context, since time.Time) ([]domain.Meetup, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]domain.Meetup), args.Error(1)
}

// MockParticipantRepo
type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockParticipantRepo) Get(ctx context.Context, meetupID, userID int32) (*domain.Participant, error) {
	args := m.Called(ctx, meetupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}
func (m *MockParticipantRepo) ListByMeetup(ctx context.Context, meetupID int32) ([]domain.Participant, error) {
	args := m.Called(ctx, meetupID)
	return args.Get(0).([]domain.Participant), args.Error(1)
}
func (m *MockParticipantRepo) Approve(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	args := m.Called(ctx, meetupID, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Participant), args.Get(1).(*domain.Meetup), args.Error(2)
}
func (m *MockParticipantRepo) Reject(ctx context.Context, meetupID, userID int32) (*domain.Participant, error) {
	args := m.Called(ctx, meetupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}
func (m *MockParticipantRepo) Cancel(ctx context.Context, meetupID, userID int32) (*domain.Participant, *domain.Meetup, error) {
	args := m.Called(ctx, meetupID, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Participant), args.Get(1).(*domain.Meetup), args.Error(2)
}
func (m *MockParticipantRepo) MarkAttended(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}
func (m *MockParticipantRepo) ListUnscoredApprovals(ctx context.Context, since time.Time, limit int32) ([]domain.Participant, error) {
	args := m.Called(ctx, since, limit)
	return args.Get(0).([]domain.Participant), args.Error(1)
}

// MockConfirmationRepo
type MockConfirmationRepo struct {
	mock.Mock
}

func (m *MockConfirmationRepo) Create(ctx context.Context, c *domain.MutualConfirmation) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}
func (m *MockConfirmationRepo) ListForPair(ctx context.Context, meetupID, userA, userB int32) ([]domain.MutualConfirmation, error) {
	args := m.Called(ctx, meetupID, userA, userB)
	return args.Get(0).([]domain.MutualConfirmation), args.Error(1)
}

// MockReviewRepo
type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Create(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReviewRepo) Exists(ctx context.Context, meetupID, reviewerID, revieweeID int32) (bool, error) {
	args := m.Called(ctx, meetupID, reviewerID, revieweeID)
	return args.Bool(0), args.Error(1)
}
func (m *MockReviewRepo) ListByMeetup(ctx context.Context, meetupID int32) ([]domain.Review, error) {
	args := m.Called(ctx, meetupID)
	return args.Get(0).([]domain.Review), args.Error(1)
}
func (m *MockReviewRepo) ListByReviewee(ctx context.Context, revieweeID int32, limit, offset int32) ([]domain.Review, int32, error) {
	args := m.Called(ctx, revieweeID, limit, offset)
	return args.Get(0).([]domain.Review), args.Get(1).(int32), args.Error(2)
}
func (m *MockReviewRepo) ListUnscored(ctx context.Context, since time.Time, limit int32) ([]domain.Review, error) {
	args := m.Called(ctx, since, limit)
	return args.Get(0).([]domain.Review), args.Error(1)
}

// MockReputationRepo
type MockReputationRepo struct {
	mock.Mock
}

func (m *MockReputationRepo) Get(ctx context.Context, userID int32) (*domain.ReputationScore, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReputationScore), args.Error(1)
}
func (m *MockReputationRepo) Apply(ctx context.Context, score *domain.ReputationScore, ev *domain.ReputationEvent) error {
	args := m.Called(ctx, score, ev)
	return args.Error(0)
}
func (m *MockReputationRepo) ListPenalties(ctx context.Context, userID int32) ([]domain.PenaltyEvent, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PenaltyEvent), args.Error(1)
}

// MockPointsRepo
type MockPointsRepo struct {
	mock.Mock
}

func (m *MockPointsRepo) CreateTransaction(ctx context.Context, tx *domain.PointsTransaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}
func (m *MockPointsRepo) GetBalance(ctx context.Context, userID int32) (int32, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockPointsRepo) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PointsTransaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.PointsTransaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockPointsRepo) ListMissingRefunds(ctx context.Context, meetupID int32) ([]int32, error) {
	args := m.Called(ctx, meetupID)
	return args.Get(0).([]int32), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockReputationService
type MockReputationService struct {
	mock.Mock
}

func (m *MockReputationService) GetRiceIndex(ctx context.Context, userID int32) (*domain.RiceIndex, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiceIndex), args.Error(1)
}
func (m *MockReputationService) Apply(ctx context.Context, ev *domain.ReputationEvent) (bool, error) {
	args := m.Called(ctx, ev)
	return args.Bool(0), args.Error(1)
}

// MockDispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchRefund(ctx context.Context, req domain.RefundRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockDispatcher) DispatchPenalty(ctx context.Context, req domain.PenaltyRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// recordingSink collects emitted events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Emit(_ context.Context, ev domain.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingSink) types() []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventType, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}
