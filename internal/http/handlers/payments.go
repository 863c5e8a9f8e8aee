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

// PaymentHandler records payments and serves payment history.
type PaymentHandler struct {
	ledger *ledger.Service
	query  *query.Service
}

func NewPaymentHandler(ledger *ledger.Service, query *query.Service) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, query: query}
}

func (h *PaymentHandler) Register(r chi.Router) {
	r.Get("/payments", h.handleList)
	r.Post("/payments", h.handleCreate)
	r.Get("/payments/{cycleId}", h.handleHistory)
	r.Delete("/payments/{cycleId}", h.handleDelete)
}

func (h *PaymentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.query.ListPayments(r.Context(), listInput(r))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.Page(w, "OK", page)
}

func (h *PaymentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		respond.Err(w, err)
		return
	}
	res, err := h.ledger.ApplyPayment(r.Context(), ledger.PaymentInput{
		UserID: uuid.MustParse(req.UserID),
		Amount: req.Amount,
		PaidAt: req.PaidAt,
	})
	if err != nil {
		respond.Err(w, err)
		return
	}
	message := "Pembayaran berhasil dicatat"
	if res.Cycle.IsPaid {
		message = "Pembayaran berhasil, hutang lunas"
	}
	respond.JSON(w, http.StatusCreated, message, dto.CreatePaymentResponse{
		CycleID:   res.Cycle.ID,
		Total:     res.Cycle.Total,
		PaidTotal: res.Cycle.PaidTotal,
		Remaining: res.Cycle.Remaining(),
		IsPaid:    res.Cycle.IsPaid,
		PaidAt:    res.Payment.PaidAt,
		User:      res.User,
	})
}

func (h *PaymentHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cycleId", cycleNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	history, err := h.query.PaymentHistory(r.Context(), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", history)
}

func (h *PaymentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cycleId", cycleNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	cycle, err := h.ledger.DeletePayments(r.Context(), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Pembayaran berhasil dihapus", cycle)
}
