package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/pw-ledger/internal/http/respond"
	"github.com/hongminglow/pw-ledger/internal/query"
)

// DashboardHandler serves the aggregate widgets of the landing page.
type DashboardHandler struct {
	query *query.Service
}

func NewDashboardHandler(query *query.Service) *DashboardHandler {
	return &DashboardHandler{query: query}
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/dashboard/cards", h.handleCards)
	r.Get("/dashboard/stats", h.handleStats)
	r.Get("/dashboard/overview", h.handleOverview)
	r.Get("/dashboard/recent-payments", h.handleRecentPayments)
	r.Get("/dashboard/top-debtors", h.handleTopDebtors)
}

func (h *DashboardHandler) handleCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.query.Cards(r.Context())
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", cards)
}

func (h *DashboardHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Stats(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", stats)
}

func (h *DashboardHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.query.Overview(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", overview)
}

func (h *DashboardHandler) handleRecentPayments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.query.RecentPayments(r.Context(), queryInt(r, "limit"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", rows)
}

func (h *DashboardHandler) handleTopDebtors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.query.TopDebtors(r.Context(), queryInt(r, "limit"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", rows)
}
