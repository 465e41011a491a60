package domain

import (
	"time"
	"unicode/utf8"
)

const (
	MinRating              int32 = 1
	MaxRating              int32 = 5
	QualityReviewMinLength       = 30
	AnonymousReviewerID    int32 = 0
)

type Review struct {
	ID          int32     `json:"id"`
	MeetupID    int32     `json:"meetup_id"`
	ReviewerID  int32     `json:"reviewer_id"`
	RevieweeID  int32     `json:"reviewee_id"`
	Rating      int32     `json:"rating"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedOn   time.Time `json:"created_on"`
}

func (r *Review) IsPositive() bool { return r.Rating >= 4 }

func (r *Review) IsNegative() bool { return r.Rating <= 2 }

// IsQuality reports whether the content is long enough to count as a quality
// review. Length is measured in characters, not bytes.
func (r *Review) IsQuality() bool {
	return utf8.RuneCountInString(r.Content) >= QualityReviewMinLength
}

// VisibleTo returns the review as viewerID may see it. Anonymous reviews hide
// the reviewer from everyone except the reviewer.
func (r Review) VisibleTo(viewerID int32) Review {
	if r.IsAnonymous && r.ReviewerID != viewerID {
		r.ReviewerID = AnonymousReviewerID
	}
	return r
}

// ReviewEligibility is the answer to "may this reviewer review this reviewee".
type ReviewEligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
