package domain

import "errors"

// Error kinds. Every client-facing failure wraps exactly one of these.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrOutOfWindow     = errors.New("out of window")
	ErrOutOfRange      = errors.New("out of range")
	ErrDuplicateAction = errors.New("duplicate action")
	ErrValidation      = errors.New("validation error")
)

// Reason codes returned alongside the error kind.
const (
	ReasonMeetupNotFound      = "MEETUP_NOT_FOUND"
	ReasonParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	ReasonNotificationMissing = "NOTIFICATION_NOT_FOUND"
	ReasonNotHost             = "NOT_HOST"
	ReasonNotApproved         = "NOT_APPROVED_PARTICIPANT"
	ReasonNotAttended         = "NOT_ATTENDED"
	ReasonIllegalTransition   = "ILLEGAL_TRANSITION"
	ReasonMeetupCancelled     = "MEETUP_CANCELLED"
	ReasonMeetupNotEnded      = "MEETUP_NOT_ENDED"
	ReasonMeetupFull          = "MEETUP_FULL"
	ReasonNotRecruiting       = "MEETUP_NOT_RECRUITING"
	ReasonAlreadyJoined       = "ALREADY_JOINED"
	ReasonAlreadyAttended     = "ALREADY_ATTENDED"
	ReasonHostCannotLeave     = "HOST_CANNOT_LEAVE"
	ReasonCheckInWindow       = "CHECKIN_WINDOW_CLOSED"
	ReasonOutsideGeofence     = "OUTSIDE_GEOFENCE"
	ReasonMissingCoordinates  = "MISSING_COORDINATES"
	ReasonInvalidQRToken      = "INVALID_QR_TOKEN"
	ReasonQRExpired           = "QR_TOKEN_EXPIRED"
	ReasonQRMeetupMismatch    = "QR_MEETUP_MISMATCH"
	ReasonSelfConfirm         = "SELF_CONFIRM"
	ReasonSelfReview          = "SELF_REVIEW"
	ReasonInvalidReviewee     = "INVALID_REVIEWEE"
	ReasonDuplicateReview     = "DUPLICATE_REVIEW"
	ReasonInvalidRating       = "INVALID_RATING"
	ReasonInvalidInput        = "INVALID_INPUT"
)

// Error carries an error kind, a machine readable reason and a message.
type Error struct {
	Kind    error
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds a domain error of the given kind.
func NewError(kind error, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// ReasonOf returns the reason code attached to err, if any.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
