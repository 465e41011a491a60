package http

import (
	"net/http"

	"ricemeet-backend/internal/domain"
)

type penaltyRequest struct {
	UserID   int32              `json:"userId"`
	MeetupID int32              `json:"meetupId"`
	Kind     domain.PenaltyKind `json:"kind"`
}

// RecordPenalty applies an upheld report or a manual no-show.
func (h *Handler) RecordPenalty(w http.ResponseWriter, r *http.Request) {
	var req penaltyRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	applied, err := h.svc.Penalty.RecordPenalty(r.Context(), req.Kind, req.MeetupID, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if !applied {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]bool{"applied": applied})
}

func (h *Handler) ListPenalties(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	events, err := h.svc.Penalty.ListPenalties(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(events, int32(len(events))))
}
