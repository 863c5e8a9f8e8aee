package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/pw-ledger/internal/models"
)

type CreateDebtRequest struct {
	UserID string          `json:"userId" validate:"required,uuid"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date" validate:"required"`
	Note   *string         `json:"note" validate:"omitempty,max=255"`
}

type CreateDebtResponse struct {
	CycleID uuid.UUID       `json:"cycleId"`
	Total   decimal.Decimal `json:"total"`
	Debt    models.DebtItem `json:"debt"`
}

type DebtDetailResponse struct {
	Cycle models.DebtCycle  `json:"cycle"`
	Items []models.DebtItem `json:"items"`
}
