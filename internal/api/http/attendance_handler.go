package http

import (
	"net/http"
	"time"

	"ricemeet-backend/internal/domain"
	"ricemeet-backend/internal/utils"
)

type gpsCheckInRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type qrCheckInRequest struct {
	QRToken string `json:"qrToken"`
}

type hostConfirmRequest struct {
	ParticipantID int32 `json:"participantId"`
}

type mutualConfirmRequest struct {
	TargetUserID int32 `json:"targetUserId"`
}

type checkInResponse struct {
	Attended   bool                    `json:"attended"`
	Method     domain.AttendanceMethod `json:"method"`
	Distance   *int32                  `json:"distance,omitempty"`
	AttendedAt time.Time               `json:"attendedAt"`
}

type qrTokenResponse struct {
	QRToken   string    `json:"qrToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type mutualConfirmResponse struct {
	Attended bool                    `json:"attended"`
	State    *domain.MutualPairState `json:"state"`
}

func newCheckInResponse(rec *domain.AttendanceRecord) checkInResponse {
	return checkInResponse{Attended: true, Method: rec.Method, Distance: rec.DistanceMeters, AttendedAt: rec.AttendedAt}
}

func (h *Handler) CheckInGPS(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req gpsCheckInRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeStatus(w, http.StatusBadRequest, codeBadRequest, domain.ReasonMissingCoordinates, "latitude and longitude are required")
		return
	}
	rec, err := h.svc.Attendance.CheckInGPS(r.Context(), meetupID, caller(r), utils.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckInResponse(rec))
}

func (h *Handler) IssueQRToken(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	token, expiresAt, err := h.svc.Attendance.IssueQRToken(r.Context(), caller(r), meetupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qrTokenResponse{QRToken: token, ExpiresAt: expiresAt})
}

func (h *Handler) CheckInQR(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req qrCheckInRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	rec, err := h.svc.Attendance.CheckInQR(r.Context(), meetupID, caller(r), req.QRToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckInResponse(rec))
}

func (h *Handler) HostConfirm(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req hostConfirmRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	rec, err := h.svc.Attendance.HostConfirm(r.Context(), caller(r), meetupID, req.ParticipantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckInResponse(rec))
}

func (h *Handler) MutualConfirm(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req mutualConfirmRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	state, err := h.svc.Attendance.MutualConfirm(r.Context(), meetupID, caller(r), req.TargetUserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutualConfirmResponse{Attended: state.Attended(), State: state})
}

func (h *Handler) GetMutualState(w http.ResponseWriter, r *http.Request) {
	meetupID, targetID, ok := meetupAndTarget(w, r)
	if !ok {
		return
	}
	state, err := h.svc.Attendance.GetMutualState(r.Context(), meetupID, caller(r), targetID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutualConfirmResponse{Attended: state.Attended(), State: state})
}

func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	participants, err := h.svc.Attendance.ListAttendance(r.Context(), caller(r), meetupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(participants, int32(len(participants))))
}

func meetupAndTarget(w http.ResponseWriter, r *http.Request) (int32, int32, bool) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return 0, 0, false
	}
	targetID, err := pathID(r, "targetUserId")
	if err != nil {
		badRequest(w, err.Error())
		return 0, 0, false
	}
	return meetupID, targetID, true
}
