package http

import (
	"net/http"

	"ricemeet-backend/internal/domain"
)

type riceIndexResponse struct {
	UserID         int32       `json:"userId"`
	Value          float64     `json:"value"`
	Tier           domain.Tier `json:"tier"`
	PercentileRank float64     `json:"percentileRank"`
}

type pointsResponse struct {
	Balance      int32                      `json:"balance"`
	Transactions []domain.PointsTransaction `json:"transactions"`
	Total        int32                      `json:"total"`
}

func (h *Handler) GetRiceIndex(w http.ResponseWriter, r *http.Request) {
	userID, err := userPathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	idx, err := h.svc.Reputation.GetRiceIndex(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, riceIndexResponse{UserID: idx.UserID, Value: idx.Value, Tier: idx.Tier, PercentileRank: idx.PercentileRank})
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	notes, total, err := h.svc.Notification.GetNotifications(r.Context(), caller(r), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(notes, total))
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.Notification.MarkAsRead(r.Context(), caller(r), noteID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)
	balance, err := h.svc.Points.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, size := paging(r)
	txs, total, err := h.svc.Points.GetTransactions(r.Context(), userID, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.PointsTransaction{}
	}
	writeJSON(w, http.StatusOK, pointsResponse{Balance: balance, Transactions: txs, Total: total})
}
