package service_test

import (
	"context"
	"sync"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/repository"
)

// memParticipants is an in-memory ParticipantRepository that enforces the
// same single-attendance and settlement rules as the SQL implementation.
type memParticipants struct {
	mu      sync.Mutex
	rows    map[[2]int32]*domain.Participant
	settled map[int32]bool
}

func newMemParticipants(ps ...*domain.Participant) *memParticipants {
	m := &memParticipants{rows: make(map[[2]int32]*domain.Participant), settled: make(map[int32]bool)}
	for _, p := range ps {
		cp := *p
		m.rows[[2]int32{p.MeetupID, p.UserID}] = &cp
	}
	return m
}

func (m *memParticipants) Create(_ context.Context, p *domain.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int32{p.MeetupID, p.UserID}
	if _, ok := m.rows[key]; ok {
		return repository.ErrDuplicate
	}
	cp := *p
	m.rows[key] = &cp
	return nil
}

func (m *memParticipants) Get(_ context.Context, meetupID, userID int32) (*domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[[2]int32{meetupID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memParticipants) ListByMeetup(_ context.Context, meetupID int32) ([]domain.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Participant
	for _, p := range m.rows {
		if p.MeetupID == meetupID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memParticipants) Approve(context.Context, int32, int32) (*domain.Participant, *domain.Meetup, error) {
	return nil, nil, repository.ErrConflict
}

func (m *memParticipants) Reject(context.Context, int32, int32) (*domain.Participant, error) {
	return nil, repository.ErrConflict
}

func (m *memParticipants) Cancel(context.Context, int32, int32) (*domain.Participant, *domain.Meetup, error) {
	return nil, nil, repository.ErrConflict
}

func (m *memParticipants) MarkAttended(_ context.Context, rec *domain.AttendanceRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[[2]int32{rec.MeetupID, rec.UserID}]
	if !ok || !p.IsApproved() || p.Attended || m.settled[rec.MeetupID] {
		return false, nil
	}
	at := rec.AttendedAt
	p.Attended = true
	p.AttendedAt = &at
	p.AttendanceMethod = rec.Method
	p.AttendanceDistanceMeters = rec.DistanceMeters
	return true, nil
}

func (m *memParticipants) ListUnscoredApprovals(context.Context, time.Time, int32) ([]domain.Participant, error) {
	return nil, nil
}

// settle freezes attendance the way a committed settlement does.
func (m *memParticipants) settle(meetupID int32) {
	m.mu.Lock()
	m.settled[meetupID] = true
	m.mu.Unlock()
}

func (m *memParticipants) attendedCount(meetupID int32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.rows {
		if p.MeetupID == meetupID && p.Attended {
			n++
		}
	}
	return n
}

// memConfirmations is an in-memory ConfirmationRepository.
type memConfirmations struct {
	mu    sync.Mutex
	facts []domain.MutualConfirmation
}

func (m *memConfirmations) Create(_ context.Context, c *domain.MutualConfirmation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.facts {
		if f.MeetupID == c.MeetupID && f.ConfirmerID == c.ConfirmerID && f.TargetID == c.TargetID {
			return false, nil
		}
	}
	m.facts = append(m.facts, *c)
	return true, nil
}

func (m *memConfirmations) ListForPair(_ context.Context, meetupID, a, b int32) ([]domain.MutualConfirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MutualConfirmation
	for _, f := range m.facts {
		if f.MeetupID != meetupID {
			continue
		}
		if (f.ConfirmerID == a && f.TargetID == b) || (f.ConfirmerID == b && f.TargetID == a) {
			out = append(out, f)
		}
	}
	return out, nil
}
