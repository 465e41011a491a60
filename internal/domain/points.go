package domain

import "time"

type PointsTransactionType string

const (
	PointsTransactionRefund        PointsTransactionType = "REFUND"
	PointsTransactionNoShowPenalty PointsTransactionType = "NO_SHOW_PENALTY"
	PointsTransactionReportPenalty PointsTransactionType = "REPORT_PENALTY"
)

// PenaltyTransactionType maps a penalty kind to its ledger type so each kind
// is debited at most once per meetup.
func PenaltyTransactionType(kind PenaltyKind) PointsTransactionType {
	if kind == PenaltyKindReport {
		return PointsTransactionReportPenalty
	}
	return PointsTransactionNoShowPenalty
}

// PointsTransaction is a ledger row of the points/deposit ledger. At most one
// row exists per (user, meetup, type).
type PointsTransaction struct {
	ID          int32                 `json:"id"`
	UserID      int32                 `json:"user_id"`
	MeetupID    int32                 `json:"meetup_id"`
	Amount      int32                 `json:"amount"` // positive for credit, negative for debit
	Type        PointsTransactionType `json:"type"`
	Description string                `json:"description"`
	CreatedOn   time.Time             `json:"created_on"`
}

// RefundRequest asks the points ledger to return a deposit.
type RefundRequest struct {
	UserID   int32 `json:"user_id"`
	MeetupID int32 `json:"meetup_id"`
	Amount   int32 `json:"amount"`
}

// PenaltyRequest asks the points ledger to debit a penalty.
type PenaltyRequest struct {
	UserID   int32       `json:"user_id"`
	MeetupID int32       `json:"meetup_id"`
	Amount   int32       `json:"amount"`
	Kind     PenaltyKind `json:"kind"`
}
