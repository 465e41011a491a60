package http

import (
	"net/http"
	"time"

	"ricemeet-backend/internal/domain"
)

type createMeetupRequest struct {
	Title               string    `json:"title"`
	StartAt             time.Time `json:"startAt"`
	Latitude            *float64  `json:"latitude"`
	Longitude           *float64  `json:"longitude"`
	CheckInRadiusMeters int32     `json:"checkInRadiusMeters"`
	DurationMinutes     int32     `json:"durationMinutes"`
	MaxParticipants     int32     `json:"maxParticipants"`
	DepositPoints       int32     `json:"depositPoints"`
}

type statusRequest struct {
	Status domain.MeetupStatus `json:"status"`
}

type statusResponse struct {
	Status  domain.MeetupStatus `json:"status"`
	EndedAt *time.Time          `json:"endedAt,omitempty"`
}

type participationResponse struct {
	Participant *domain.Participant `json:"participant"`
	Meetup      *domain.Meetup      `json:"meetup,omitempty"`
}

func (h *Handler) CreateMeetup(w http.ResponseWriter, r *http.Request) {
	var req createMeetupRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := h.svc.Meetup.CreateMeetup(r.Context(), caller(r), &domain.Meetup{
		Title:               req.Title,
		StartAt:             req.StartAt,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		CheckInRadiusMeters: req.CheckInRadiusMeters,
		DurationMinutes:     req.DurationMinutes,
		MaxParticipants:     req.MaxParticipants,
		DepositPoints:       req.DepositPoints,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) GetMeetup(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := h.svc.Meetup.GetMeetup(r.Context(), meetupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) JoinMeetup(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.svc.Meetup.Join(r.Context(), meetupID, caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, participationResponse{Participant: p})
}

func (h *Handler) ApproveParticipant(w http.ResponseWriter, r *http.Request) {
	meetupID, userID, ok := meetupAndUser(w, r)
	if !ok {
		return
	}
	p, m, err := h.svc.Meetup.Approve(r.Context(), caller(r), meetupID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participationResponse{Participant: p, Meetup: m})
}

func (h *Handler) RejectParticipant(w http.ResponseWriter, r *http.Request) {
	meetupID, userID, ok := meetupAndUser(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Meetup.Reject(r.Context(), caller(r), meetupID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participationResponse{Participant: p})
}

func (h *Handler) LeaveMeetup(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, m, err := h.svc.Meetup.Leave(r.Context(), meetupID, caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participationResponse{Participant: p, Meetup: m})
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := h.svc.Meetup.ChangeStatus(r.Context(), caller(r), meetupID, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: m.Status, EndedAt: m.EndedAt})
}

func meetupAndUser(w http.ResponseWriter, r *http.Request) (int32, int32, bool) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return 0, 0, false
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		badRequest(w, err.Error())
		return 0, 0, false
	}
	return meetupID, userID, true
}
