package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/pw-ledger/internal/models"
)

type CreatePaymentRequest struct {
	UserID string          `json:"userId" validate:"required,uuid"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt string          `json:"paidAt" validate:"required"`
}

type CreatePaymentResponse struct {
	CycleID   uuid.UUID       `json:"cycleId"`
	Total     decimal.Decimal `json:"total"`
	PaidTotal decimal.Decimal `json:"paidTotal"`
	Remaining decimal.Decimal `json:"remaining"`
	IsPaid    bool            `json:"isPaid"`
	PaidAt    time.Time       `json:"paidAt"`
	User      models.User     `json:"user"`
}

type PaymentHistoryResponse struct {
	Cycle    models.DebtCycle `json:"cycle"`
	Payments []models.Payment `json:"payments"`
}
