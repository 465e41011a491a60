package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ricemeet-backend/internal/clock"
	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/repository"
	"ricemeet-backend/internal/security"
	"ricemeet-backend/internal/service"
	"ricemeet-backend/internal/utils"
)

// nearby is roughly 70m from the test meetup, farAway roughly 1.1km.
var (
	nearby  = utils.Coordinate{Latitude: 37.5670, Longitude: 126.9785}
	farAway = utils.Coordinate{Latitude: 37.5765, Longitude: 126.9780}
)

type attendanceFixture struct {
	meetups       *MockMeetupRepo
	participants  *memParticipants
	confirmations *memConfirmations
	qr            *security.QRTokenManager
	clock         *clock.Fake
	sink          *recordingSink
	svc           service.AttendanceService
}

func newAttendanceFixture(t *testing.T, m *domain.Meetup, ps ...*domain.Participant) *attendanceFixture {
	t.Helper()
	qr, err := security.NewQRTokenManager("test-secret", 10*time.Minute)
	require.NoError(t, err)

	f := &attendanceFixture{
		meetups:       new(MockMeetupRepo),
		participants:  newMemParticipants(ps...),
		confirmations: &memConfirmations{},
		qr:            qr,
		clock:         clock.NewFake(baseTime),
		sink:          &recordingSink{},
	}
	if m != nil {
		f.meetups.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	}
	f.svc = service.NewAttendanceService(f.meetups, f.participants, f.confirmations, f.qr, f.sink, f.clock, service.DefaultAttendancePolicy())
	return f
}

func TestAttendanceService_CheckInGPS(t *testing.T) {
	ctx := context.Background()

	t.Run("Inside window and geofence", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))
		f.clock.Set(baseTime.Add(-5 * time.Minute))

		rec, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendanceMethodGPS, rec.Method)
		require.NotNil(t, rec.DistanceMeters)
		assert.Less(t, *rec.DistanceMeters, int32(300))
		assert.Equal(t, []domain.EventType{domain.EventAttendanceRecorded}, f.sink.types())
	})

	t.Run("Window boundaries are inclusive", func(t *testing.T) {
		for _, at := range []time.Time{baseTime.Add(-20 * time.Minute), baseTime.Add(10 * time.Minute)} {
			f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID))
			f.clock.Set(at)

			_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
			assert.NoError(t, err, "at %s", at)
		}
	})

	t.Run("Too early", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))
		f.clock.Set(baseTime.Add(-21 * time.Minute))

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		assertKind(t, err, domain.ErrOutOfWindow, domain.ReasonCheckInWindow)
		assert.Equal(t, 0, f.participants.attendedCount(10))
	})

	t.Run("Too late", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID))
		f.clock.Set(baseTime.Add(11 * time.Minute))

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		assertKind(t, err, domain.ErrOutOfWindow, domain.ReasonCheckInWindow)
	})

	t.Run("Window is checked before distance", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))
		f.clock.Set(baseTime.Add(-time.Hour))

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, farAway)
		assertKind(t, err, domain.ErrOutOfWindow, domain.ReasonCheckInWindow)
	})

	t.Run("Outside geofence", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, farAway)
		assertKind(t, err, domain.ErrOutOfRange, domain.ReasonOutsideGeofence)
		assert.Empty(t, f.sink.events)
	})

	t.Run("Not approved", func(t *testing.T) {
		requested := &domain.Participant{MeetupID: 10, UserID: guestID, Status: domain.ParticipantStatusRequested}
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), requested)

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		assertKind(t, err, domain.ErrForbidden, domain.ReasonNotApproved)
	})

	t.Run("Not a participant", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull))

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		assertKind(t, err, domain.ErrForbidden, domain.ReasonNotApproved)
	})

	t.Run("Cancelled meetup", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusCancelled), approved(10, guestID))

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		assertKind(t, err, domain.ErrInvalidState, domain.ReasonMeetupCancelled)
	})

	t.Run("Meetup without location", func(t *testing.T) {
		m := testMeetup(10, domain.MeetupStatusFull)
		m.Latitude, m.Longitude = nil, nil
		f := newAttendanceFixture(t, m, approved(10, guestID))

		_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		assertKind(t, err, domain.ErrValidation, domain.ReasonMissingCoordinates)
	})

	t.Run("Second check-in returns the first record", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))

		first, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		require.NoError(t, err)

		f.clock.Advance(2 * time.Hour)
		second, err := f.svc.CheckInGPS(ctx, 10, guestID, farAway)
		require.NoError(t, err)
		assert.Equal(t, first.AttendedAt, second.AttendedAt)
		assert.Equal(t, first.DistanceMeters, second.DistanceMeters)
		assert.Len(t, f.sink.events, 1)
	})

	t.Run("Unknown meetup", func(t *testing.T) {
		f := newAttendanceFixture(t, nil)
		f.meetups.On("GetByID", mock.Anything, int32(99)).Return(nil, repository.ErrNotFound)

		_, err := f.svc.CheckInGPS(ctx, 99, guestID, nearby)
		assertKind(t, err, domain.ErrNotFound, domain.ReasonMeetupNotFound)
	})
}

func TestAttendanceService_ConcurrentCheckIns(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))

	const workers = 16
	records := make([]*domain.AttendanceRecord, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i], errs[i] = f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, records[0].AttendedAt, records[i].AttendedAt)
	}
	assert.Equal(t, 1, f.participants.attendedCount(10))
	assert.Len(t, f.sink.types(), 1)
}

func TestAttendanceService_QR(t *testing.T) {
	ctx := context.Background()

	t.Run("Issue requires host", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull))

		_, _, err := f.svc.IssueQRToken(ctx, guestID, 10)
		assertKind(t, err, domain.ErrForbidden, domain.ReasonNotHost)
	})

	t.Run("Round trip", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))

		token, expiresAt, err := f.svc.IssueQRToken(ctx, hostID, 10)
		require.NoError(t, err)
		assert.Equal(t, baseTime.Add(10*time.Minute), expiresAt)

		f.clock.Advance(9 * time.Minute)
		rec, err := f.svc.CheckInQR(ctx, 10, guestID, token)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendanceMethodQR, rec.Method)
		assert.Nil(t, rec.DistanceMeters)
	})

	t.Run("Expired token", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))

		token, _, err := f.svc.IssueQRToken(ctx, hostID, 10)
		require.NoError(t, err)

		f.clock.Advance(11 * time.Minute)
		_, err = f.svc.CheckInQR(ctx, 10, guestID, token)
		assertKind(t, err, domain.ErrOutOfWindow, domain.ReasonQRExpired)
	})

	t.Run("Token for another meetup", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))
		token, _, err := f.qr.Issue(11, hostID, baseTime)
		require.NoError(t, err)

		_, err = f.svc.CheckInQR(ctx, 10, guestID, token)
		assertKind(t, err, domain.ErrValidation, domain.ReasonQRMeetupMismatch)
	})

	t.Run("Garbage token", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))

		_, err := f.svc.CheckInQR(ctx, 10, guestID, "not-a-token")
		assertKind(t, err, domain.ErrValidation, domain.ReasonInvalidQRToken)
	})

	t.Run("Issued by someone else", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusFull), approved(10, guestID))
		token, _, err := f.qr.Issue(10, otherID, baseTime)
		require.NoError(t, err)

		_, err = f.svc.CheckInQR(ctx, 10, guestID, token)
		assertKind(t, err, domain.ErrValidation, domain.ReasonInvalidQRToken)
	})
}

func TestAttendanceService_HostConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("Self confirm", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress))

		_, err := f.svc.HostConfirm(ctx, hostID, 10, hostID)
		assertKind(t, err, domain.ErrValidation, domain.ReasonSelfConfirm)
	})

	t.Run("Not host", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID))

		_, err := f.svc.HostConfirm(ctx, otherID, 10, guestID)
		assertKind(t, err, domain.ErrForbidden, domain.ReasonNotHost)
	})

	t.Run("Outside the window", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID))
		f.clock.Advance(3 * time.Hour)

		rec, err := f.svc.HostConfirm(ctx, hostID, 10, guestID)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendanceMethodHostConfirm, rec.Method)
		assert.Equal(t, 1, f.participants.attendedCount(10))
	})

	t.Run("Settled after the meetup was read", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusEnded), approved(10, guestID))
		f.participants.settle(10)

		_, err := f.svc.HostConfirm(ctx, hostID, 10, guestID)
		assertKind(t, err, domain.ErrInvalidState, domain.ReasonIllegalTransition)
		assert.Equal(t, 0, f.participants.attendedCount(10))
		assert.Empty(t, f.sink.types())
	})
}

func TestAttendanceService_MutualConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("One-sided then mutual", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID), approved(10, otherID))

		state, err := f.svc.MutualConfirm(ctx, 10, guestID, otherID)
		require.NoError(t, err)
		assert.Equal(t, domain.ConfirmationOneSided, state.State)
		require.NotNil(t, state.ConfirmedBy)
		assert.Equal(t, guestID, *state.ConfirmedBy)
		assert.Equal(t, 0, f.participants.attendedCount(10))

		again, err := f.svc.MutualConfirm(ctx, 10, guestID, otherID)
		require.NoError(t, err)
		assert.Equal(t, domain.ConfirmationOneSided, again.State)

		state, err = f.svc.MutualConfirm(ctx, 10, otherID, guestID)
		require.NoError(t, err)
		assert.Equal(t, domain.ConfirmationMutual, state.State)
		assert.Equal(t, 2, f.participants.attendedCount(10))

		for _, u := range []int32{guestID, otherID} {
			p, err := f.participants.Get(ctx, 10, u)
			require.NoError(t, err)
			assert.Equal(t, domain.AttendanceMethodMutualConfirm, p.AttendanceMethod)
		}
	})

	t.Run("Keeps an earlier GPS record", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID), approved(10, otherID))
		_, err := f.svc.CheckInGPS(ctx, 10, guestID, nearby)
		require.NoError(t, err)

		_, err = f.svc.MutualConfirm(ctx, 10, guestID, otherID)
		require.NoError(t, err)
		_, err = f.svc.MutualConfirm(ctx, 10, otherID, guestID)
		require.NoError(t, err)

		p, err := f.participants.Get(ctx, 10, guestID)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendanceMethodGPS, p.AttendanceMethod)
		assert.Equal(t, 2, f.participants.attendedCount(10))
	})

	t.Run("Self", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID))

		_, err := f.svc.MutualConfirm(ctx, 10, guestID, guestID)
		assertKind(t, err, domain.ErrValidation, domain.ReasonSelfConfirm)
	})

	t.Run("Target not approved", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID))

		_, err := f.svc.MutualConfirm(ctx, 10, guestID, otherID)
		assertKind(t, err, domain.ErrForbidden, domain.ReasonNotApproved)
	})

	t.Run("Get state", func(t *testing.T) {
		f := newAttendanceFixture(t, testMeetup(10, domain.MeetupStatusInProgress), approved(10, guestID), approved(10, otherID))
		_, err := f.svc.MutualConfirm(ctx, 10, otherID, guestID)
		require.NoError(t, err)

		state, err := f.svc.GetMutualState(ctx, 10, guestID, otherID)
		require.NoError(t, err)
		assert.Equal(t, domain.ConfirmationOneSided, state.State)
		assert.Equal(t, otherID, *state.ConfirmedBy)
	})
}
