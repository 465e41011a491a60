package domain

import (
	"fmt"
	"time"
)

const BaseReputationScore = 40.0

type Tier string

const (
	TierTeaspoon    Tier = "Teaspoon"
	TierOneSpoonful Tier = "One Spoonful"
	TierWarmBowl    Tier = "Warm Bowl"
	TierFullBowl    Tier = "Full Bowl"
	TierThiefsTable Tier = "Thief's Table"
	TierGoldenBowl  Tier = "Golden Bowl"
	TierLegend      Tier = "Legend"
)

// ReputationScore is the stored rice index of a user together with the
// counters the band formula reads. Version guards concurrent writers.
type ReputationScore struct {
	UserID           int32     `json:"user_id"`
	Value            float64   `json:"value"`
	Version          int32     `json:"version"`
	MeetupsJoined    int32     `json:"meetups_joined"`
	MeetupsHosted    int32     `json:"meetups_hosted"`
	MeetupsAttended  int32     `json:"meetups_attended"`
	AttendanceStreak int32     `json:"attendance_streak"`
	ReviewsWritten   int32     `json:"reviews_written"`
	ReviewsReceived  int32     `json:"reviews_received"`
	PositiveReviews  int32     `json:"positive_reviews"`
	QualityReviews   int32     `json:"quality_reviews"`
	NoShowCount      int32     `json:"no_show_count"`
	ReportCount      int32     `json:"report_count"`
	UpdatedOn        time.Time `json:"updated_on"`
}

// NewReputationScore returns the starting score of a user with no history.
func NewReputationScore(userID int32) *ReputationScore {
	return &ReputationScore{UserID: userID, Value: BaseReputationScore}
}

// RiceIndex is the public view of a reputation score.
type RiceIndex struct {
	UserID         int32   `json:"user_id"`
	Value          float64 `json:"value"`
	Tier           Tier    `json:"tier"`
	PercentileRank float64 `json:"percentile_rank"`
}

type ReputationEventKind string

const (
	ReputationEventApproved       ReputationEventKind = "approved"
	ReputationEventHosted         ReputationEventKind = "hosted"
	ReputationEventCompleted      ReputationEventKind = "completed"
	ReputationEventReviewWritten  ReputationEventKind = "review_written"
	ReputationEventReviewReceived ReputationEventKind = "review_received"
	ReputationEventNoShow         ReputationEventKind = "no_show"
	ReputationEventReport         ReputationEventKind = "report"
)

// ReputationEvent is one contribution to a user's score. Key is unique per
// user and makes applying the same event twice a no-op.
type ReputationEvent struct {
	Key       string              `json:"key"`
	UserID    int32               `json:"user_id"`
	MeetupID  int32               `json:"meetup_id"`
	Kind      ReputationEventKind `json:"kind"`
	Rating    int32               `json:"rating,omitempty"`
	Quality   bool                `json:"quality,omitempty"`
	Delta     float64             `json:"delta"`
	AppliedOn time.Time           `json:"applied_on"`
}

func NewApprovedEvent(meetupID, userID int32) *ReputationEvent {
	return &ReputationEvent{
		Key:      fmt.Sprintf("approved:%d:%d", meetupID, userID),
		UserID:   userID,
		MeetupID: meetupID,
		Kind:     ReputationEventApproved,
	}
}

func NewHostedEvent(meetupID, hostID int32) *ReputationEvent {
	return &ReputationEvent{
		Key:      fmt.Sprintf("hosted:%d", meetupID),
		UserID:   hostID,
		MeetupID: meetupID,
		Kind:     ReputationEventHosted,
	}
}

func NewCompletedEvent(meetupID, userID int32) *ReputationEvent {
	return &ReputationEvent{
		Key:      fmt.Sprintf("completed:%d:%d", meetupID, userID),
		UserID:   userID,
		MeetupID: meetupID,
		Kind:     ReputationEventCompleted,
	}
}

func NewReviewWrittenEvent(r *Review) *ReputationEvent {
	return &ReputationEvent{
		Key:      fmt.Sprintf("review_written:%d", r.ID),
		UserID:   r.ReviewerID,
		MeetupID: r.MeetupID,
		Kind:     ReputationEventReviewWritten,
	}
}

func NewReviewReceivedEvent(r *Review) *ReputationEvent {
	return &ReputationEvent{
		Key:      fmt.Sprintf("review_received:%d", r.ID),
		UserID:   r.RevieweeID,
		MeetupID: r.MeetupID,
		Kind:     ReputationEventReviewReceived,
		Rating:   r.Rating,
		Quality:  r.IsQuality(),
	}
}

func NewPenaltyReputationEvent(kind PenaltyKind, meetupID, userID int32) *ReputationEvent {
	return &ReputationEvent{
		Key:      fmt.Sprintf("%s:%d:%d", kind, meetupID, userID),
		UserID:   userID,
		MeetupID: meetupID,
		Kind:     ReputationEventKind(kind),
	}
}

type PenaltyKind string

const (
	PenaltyKindNoShow PenaltyKind = "no_show"
	PenaltyKindReport PenaltyKind = "report"
)

func (k PenaltyKind) Valid() bool {
	return k == PenaltyKindNoShow || k == PenaltyKindReport
}

// PenaltyEvent is a negative reputation event applied at most once per
// (user, meetup, kind).
type PenaltyEvent struct {
	UserID    int32       `json:"user_id"`
	MeetupID  int32       `json:"meetup_id"`
	Kind      PenaltyKind `json:"kind"`
	Delta     float64     `json:"delta"`
	AppliedAt time.Time   `json:"applied_at"`
}
