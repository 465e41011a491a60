package domain

import "time"

// MutualConfirmation is a one-directional fact: ConfirmerID vouches that
// TargetID was present at the meetup.
type MutualConfirmation struct {
	MeetupID    int32     `json:"meetup_id"`
	ConfirmerID int32     `json:"confirmer_id"`
	TargetID    int32     `json:"target_id"`
	CreatedOn   time.Time `json:"created_on"`
}

type ConfirmationState string

const (
	ConfirmationUnconfirmed ConfirmationState = "unconfirmed"
	ConfirmationOneSided    ConfirmationState = "one_sided"
	ConfirmationMutual      ConfirmationState = "mutual"
)

// MutualPairState is the derived state of the confirmations between two users.
type MutualPairState struct {
	MeetupID    int32             `json:"meetup_id"`
	UserA       int32             `json:"user_a"`
	UserB       int32             `json:"user_b"`
	State       ConfirmationState `json:"state"`
	ConfirmedBy *int32            `json:"confirmed_by,omitempty"`
}

// Attended reports whether the pair has reached the mutual state.
func (s *MutualPairState) Attended() bool {
	return s.State == ConfirmationMutual
}

// DerivePairState folds the confirmation facts between a and b into a pair state.
// Facts involving other users are ignored.
func DerivePairState(meetupID, a, b int32, facts []MutualConfirmation) *MutualPairState {
	var aToB, bToA bool
	for _, f := range facts {
		if f.MeetupID != meetupID {
			continue
		}
		switch {
		case f.ConfirmerID == a && f.TargetID == b:
			aToB = true
		case f.ConfirmerID == b && f.TargetID == a:
			bToA = true
		}
	}

	state := &MutualPairState{MeetupID: meetupID, UserA: a, UserB: b, State: ConfirmationUnconfirmed}
	switch {
	case aToB && bToA:
		state.State = ConfirmationMutual
	case aToB:
		by := a
		state.State = ConfirmationOneSided
		state.ConfirmedBy = &by
	case bToA:
		by := b
		state.State = ConfirmationOneSided
		state.ConfirmedBy = &by
	}
	return state
}
