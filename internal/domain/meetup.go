package domain

import "time"

type MeetupStatus string

const (
	MeetupStatusRecruiting MeetupStatus = "모집중"
	MeetupStatusFull       MeetupStatus = "모집완료"
	MeetupStatusInProgress MeetupStatus = "진행중"
	MeetupStatusEnded      MeetupStatus = "종료"
	MeetupStatusCancelled  MeetupStatus = "취소"
)

const (
	DefaultCheckInRadiusMeters int32 = 300
	DefaultDurationMinutes     int32 = 180
)

// Valid reports whether s is one of the known statuses.
func (s MeetupStatus) Valid() bool {
	switch s {
	case MeetupStatusRecruiting, MeetupStatusFull, MeetupStatusInProgress, MeetupStatusEnded, MeetupStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s MeetupStatus) IsTerminal() bool {
	return s == MeetupStatusEnded || s == MeetupStatusCancelled
}

// CanHostTransition reports whether the host may move a meetup from s to next.
// Recruiting<->Full happen automatically on capacity changes and are not host actions.
func (s MeetupStatus) CanHostTransition(next MeetupStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case MeetupStatusInProgress:
		return s == MeetupStatusRecruiting || s == MeetupStatusFull
	case MeetupStatusEnded:
		return s == MeetupStatusInProgress
	case MeetupStatusCancelled:
		return true
	}
	return false
}

type Meetup struct {
	ID                  int32        `json:"id"`
	HostID              int32        `json:"host_id"`
	Title               string       `json:"title"`
	Status              MeetupStatus `json:"status"`
	StartAt             time.Time    `json:"start_at"`
	Latitude            *float64     `json:"latitude,omitempty"`
	Longitude           *float64     `json:"longitude,omitempty"`
	CheckInRadiusMeters int32        `json:"check_in_radius_meters"`
	DurationMinutes     int32        `json:"duration_minutes"`
	MaxParticipants     int32        `json:"max_participants"`
	CurrentParticipants int32        `json:"current_participants"`
	DepositPoints       int32        `json:"deposit_points"`
	EndedAt             *time.Time   `json:"ended_at,omitempty"`
	SettledAt           *time.Time   `json:"settled_at,omitempty"`
	CreatedOn           time.Time    `json:"created_on"`
	UpdatedOn           time.Time    `json:"updated_on"`
}

// HasLocation reports whether both coordinates are set.
func (m *Meetup) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

func (m *Meetup) IsHost(userID int32) bool {
	return m.HostID == userID
}

// ApplyDefaults fills zero-valued radius and duration.
func (m *Meetup) ApplyDefaults(radius int32) {
	if m.CheckInRadiusMeters <= 0 {
		if radius <= 0 {
			radius = DefaultCheckInRadiusMeters
		}
		m.CheckInRadiusMeters = radius
	}
	if m.DurationMinutes <= 0 {
		m.DurationMinutes = DefaultDurationMinutes
	}
}
