package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/pw-ledger/internal/http/respond"
	"github.com/hongminglow/pw-ledger/internal/ledger"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/query"
	"github.com/hongminglow/pw-ledger/internal/validation"
)

const cycleNotFound = "Data hutang tidak ditemukan"

// DebtHandler records debts and serves the cycle listings.
type DebtHandler struct {
	ledger *ledger.Service
	query  *query.Service
}

func NewDebtHandler(ledger *ledger.Service, query *query.Service) *DebtHandler {
	return &DebtHandler{ledger: ledger, query: query}
}

// RegisterPublic attaches the unauthenticated status view.
func (h *DebtHandler) RegisterPublic(r chi.Router) {
	r.Get("/debt/public", h.handlePublic)
}

func (h *DebtHandler) Register(r chi.Router) {
	r.Get("/debt", h.handleList)
	r.Post("/debt", h.handleCreate)
	r.Get("/debt/open", h.handleOpen)
	r.Get("/debt/{cycleId}/items", h.handleItems)
	r.Delete("/debt/{cycleId}", h.handleDelete)
}

func (h *DebtHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.query.ListCycles(r.Context(), listInput(r), r.URL.Query().Get("status"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.Page(w, "OK", page)
}

func (h *DebtHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDebtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		respond.Err(w, err)
		return
	}
	res, err := h.ledger.AddDebt(r.Context(), ledger.DebtInput{
		UserID: uuid.MustParse(req.UserID),
		Amount: req.Amount,
		Date:   req.Date,
		Note:   req.Note,
	})
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "Hutang berhasil ditambahkan", dto.CreateDebtResponse{
		CycleID: res.Cycle.ID,
		Total:   res.Cycle.Total,
		Debt:    res.Item,
	})
}

func (h *DebtHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.query.OpenCycles(r.Context(), r.URL.Query().Get("search"), queryInt(r, "limit"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", cycles)
}

func (h *DebtHandler) handlePublic(w http.ResponseWriter, r *http.Request) {
	rows, err := h.query.PublicDebts(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", rows)
}

func (h *DebtHandler) handleItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cycleId", cycleNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	detail, err := h.query.CycleItems(r.Context(), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", detail)
}

func (h *DebtHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cycleId", cycleNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	if err := h.ledger.DeleteCycle(r.Context(), id); err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Data hutang berhasil dihapus", nil)
}
