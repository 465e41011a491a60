package http

import (
	"net/http"
	"strconv"

	"ricemeet-backend/internal/domain"
)

type submitReviewRequest struct {
	RevieweeID  int32    `json:"revieweeId"`
	Rating      int32    `json:"rating"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	IsAnonymous bool     `json:"isAnonymous"`
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req submitReviewRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	rv, err := h.svc.Review.SubmitReview(r.Context(), &domain.Review{
		MeetupID:    meetupID,
		ReviewerID:  caller(r),
		RevieweeID:  req.RevieweeID,
		Rating:      req.Rating,
		Content:     req.Content,
		Tags:        req.Tags,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handler) ListMeetupReviews(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	reviews, err := h.svc.Review.ListMeetupReviews(r.Context(), caller(r), meetupID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(reviews, int32(len(reviews))))
}

func (h *Handler) ReviewEligibility(w http.ResponseWriter, r *http.Request) {
	meetupID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	revieweeID, err := strconv.ParseInt(r.URL.Query().Get("revieweeId"), 10, 32)
	if err != nil {
		badRequest(w, "revieweeId query parameter is required")
		return
	}
	eligibility, err := h.svc.Review.CanReview(r.Context(), meetupID, caller(r), int32(revieweeID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibility)
}

func (h *Handler) ListUserReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := userPathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	page, size := paging(r)
	reviews, total, err := h.svc.Review.ListUserReviews(r.Context(), caller(r), userID, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(reviews, total))
}
