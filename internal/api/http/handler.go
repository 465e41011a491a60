package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ricemeet-backend/internal/service"
)

// Pinger reports database health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Meetup       service.MeetupService
	Attendance   service.AttendanceService
	Review       service.ReviewService
	Reputation   service.ReputationService
	Penalty      service.PenaltyService
	Points       service.PointsService
	Notification service.NotificationService
}

type Handler struct {
	svc    Services
	health Pinger
}

func NewHandler(svc Services, health Pinger) *Handler {
	return &Handler{svc: svc, health: health}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller returns the authenticated user. The auth middleware guarantees it
// for every non-public route.
func caller(r *http.Request) int32 {
	id, _ := UserIDFromContext(r.Context())
	return id
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return int32(id), nil
}

// userPathID resolves {id} in /users/{id}/..., accepting "me" for the caller.
func userPathID(r *http.Request) (int32, error) {
	if mux.Vars(r)["id"] == "me" {
		return caller(r), nil
	}
	return pathID(r, "id")
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

func paging(r *http.Request) (int32, int32) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("page"), 10, 32)
	size, _ := strconv.ParseInt(q.Get("pageSize"), 10, 32)
	if size > 100 {
		size = 100
	}
	return int32(page), int32(size)
}

type pageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int32 `json:"total"`
}

func newPage[T any](items []T, total int32) pageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return pageResponse[T]{Items: items, Total: total}
}
