package domain

import "time"

type Notification struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	MeetupID   int32             `json:"meetup_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}

type EventType string

const (
	EventJoinRequested      EventType = "JOIN_REQUESTED"
	EventJoinApproved       EventType = "JOIN_APPROVED"
	EventJoinRejected       EventType = "JOIN_REJECTED"
	EventParticipantLeft    EventType = "PARTICIPANT_LEFT"
	EventMeetupStatusChange EventType = "MEETUP_STATUS_CHANGED"
	EventAttendanceRecorded EventType = "ATTENDANCE_RECORDED"
	EventReviewReceived     EventType = "REVIEW_RECEIVED"
	EventPenaltyApplied     EventType = "PENALTY_APPLIED"
)

// Event is emitted on state transitions. Delivery is fire-and-forget.
type Event struct {
	Type       EventType
	MeetupID   int32
	ActorID    int32
	Recipients []int32
	Title      string
	Message    string
	Attributes map[string]string
}
