package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"ricemeet-backend/internal/logger"
)

const checkInScope = "checkin"

// NewRouter registers every route under its security name. Route names
// must match config.EndpointSecurityConfig.
func NewRouter(h *Handler, auth *AuthMiddleware, limiter *RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger)
	r.Use(auth.Middleware)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet).Name("Healthz")

	// Meetups
	r.HandleFunc("/meetups", h.CreateMeetup).Methods(http.MethodPost).Name("CreateMeetup")
	r.HandleFunc("/meetups/{id:[0-9]+}", h.GetMeetup).Methods(http.MethodGet).Name("GetMeetup")
	r.HandleFunc("/meetups/{id:[0-9]+}/join", h.JoinMeetup).Methods(http.MethodPost).Name("JoinMeetup")
	r.HandleFunc("/meetups/{id:[0-9]+}/participants/{userId:[0-9]+}/approve", h.ApproveParticipant).Methods(http.MethodPost).Name("ApproveParticipant")
	r.HandleFunc("/meetups/{id:[0-9]+}/participants/{userId:[0-9]+}/reject", h.RejectParticipant).Methods(http.MethodPost).Name("RejectParticipant")
	r.HandleFunc("/meetups/{id:[0-9]+}/leave", h.LeaveMeetup).Methods(http.MethodPost).Name("LeaveMeetup")
	r.HandleFunc("/meetups/{id:[0-9]+}/status", h.ChangeStatus).Methods(http.MethodPatch).Name("ChangeStatus")

	// Attendance
	r.HandleFunc("/meetups/{id:[0-9]+}/checkin", limiter.Wrap(checkInScope, h.CheckInGPS)).Methods(http.MethodPost).Name("CheckInGPS")
	r.HandleFunc("/meetups/{id:[0-9]+}/qr", h.IssueQRToken).Methods(http.MethodPost).Name("IssueQRToken")
	r.HandleFunc("/meetups/{id:[0-9]+}/qr-checkin", limiter.Wrap(checkInScope, h.CheckInQR)).Methods(http.MethodPost).Name("CheckInQR")
	r.HandleFunc("/meetups/{id:[0-9]+}/host-confirm", h.HostConfirm).Methods(http.MethodPost).Name("HostConfirm")
	r.HandleFunc("/meetups/{id:[0-9]+}/mutual-confirm", h.MutualConfirm).Methods(http.MethodPost).Name("MutualConfirm")
	r.HandleFunc("/meetups/{id:[0-9]+}/mutual-confirm/{targetUserId:[0-9]+}", h.GetMutualState).Methods(http.MethodGet).Name("GetMutualState")
	r.HandleFunc("/meetups/{id:[0-9]+}/attendance", h.ListAttendance).Methods(http.MethodGet).Name("ListAttendance")

	// Reviews
	r.HandleFunc("/meetups/{id:[0-9]+}/reviews", h.SubmitReview).Methods(http.MethodPost).Name("SubmitReview")
	r.HandleFunc("/meetups/{id:[0-9]+}/reviews", h.ListMeetupReviews).Methods(http.MethodGet).Name("ListMeetupReviews")
	r.HandleFunc("/meetups/{id:[0-9]+}/reviews/eligibility", h.ReviewEligibility).Methods(http.MethodGet).Name("ReviewEligibility")
	r.HandleFunc("/users/{id}/reviews", h.ListUserReviews).Methods(http.MethodGet).Name("ListUserReviews")

	// Users
	r.HandleFunc("/users/{id}/rice-index", h.GetRiceIndex).Methods(http.MethodGet).Name("GetRiceIndex")
	r.HandleFunc("/users/me/notifications", h.GetNotifications).Methods(http.MethodGet).Name("GetNotifications")
	r.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods(http.MethodPost).Name("MarkNotificationRead")
	r.HandleFunc("/users/me/points", h.GetPoints).Methods(http.MethodGet).Name("GetPoints")

	// Admin
	r.HandleFunc("/admin/penalties", h.RecordPenalty).Methods(http.MethodPost).Name("RecordPenalty")
	r.HandleFunc("/admin/users/{id:[0-9]+}/penalties", h.ListPenalties).Methods(http.MethodGet).Name("ListPenalties")

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.InfoContext(ctx, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
