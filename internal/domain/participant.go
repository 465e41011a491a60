package domain

import "time"

type ParticipantStatus string

const (
	ParticipantStatusRequested ParticipantStatus = "참가신청"
	ParticipantStatusApproved  ParticipantStatus = "참가승인"
	ParticipantStatusRejected  ParticipantStatus = "참가거절"
	ParticipantStatusCancelled ParticipantStatus = "참가취소"
)

type AttendanceMethod string

const (
	AttendanceMethodGPS           AttendanceMethod = "gps"
	AttendanceMethodQR            AttendanceMethod = "qr"
	AttendanceMethodHostConfirm   AttendanceMethod = "host_confirm"
	AttendanceMethodMutualConfirm AttendanceMethod = "mutual_confirm"
)

// Participant is a user's membership in a meetup. Attended only ever moves
// from false to true.
type Participant struct {
	ID                       int32             `json:"id"`
	MeetupID                 int32             `json:"meetup_id"`
	UserID                   int32             `json:"user_id"`
	Status                   ParticipantStatus `json:"status"`
	JoinedAt                 time.Time         `json:"joined_at"`
	Attended                 bool              `json:"attended"`
	AttendedAt               *time.Time        `json:"attended_at,omitempty"`
	AttendanceMethod         AttendanceMethod  `json:"attendance_method,omitempty"`
	AttendanceDistanceMeters *int32            `json:"attendance_distance_meters,omitempty"`
}

func (p *Participant) IsApproved() bool {
	return p.Status == ParticipantStatusApproved
}

// AttendanceRecord returns the attendance fields of p, or nil when p has not attended.
func (p *Participant) AttendanceRecord() *AttendanceRecord {
	if !p.Attended || p.AttendedAt == nil {
		return nil
	}
	return &AttendanceRecord{
		MeetupID:       p.MeetupID,
		UserID:         p.UserID,
		Method:         p.AttendanceMethod,
		DistanceMeters: p.AttendanceDistanceMeters,
		AttendedAt:     *p.AttendedAt,
	}
}

// AttendanceRecord is the single proof of presence for a (meetup, user) pair.
type AttendanceRecord struct {
	MeetupID       int32            `json:"meetup_id"`
	UserID         int32            `json:"user_id"`
	Method         AttendanceMethod `json:"method"`
	DistanceMeters *int32           `json:"distance_meters,omitempty"`
	AttendedAt     time.Time        `json:"attended_at"`
}
