package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtCycle groups the debt items of one user from opening until fully paid.
type DebtCycle struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	User      UserRef         `json:"user"`
	Total     decimal.Decimal `json:"total"`
	PaidTotal decimal.Decimal `json:"paidTotal"`
	IsPaid    bool            `json:"isPaid"`
	PaidAt    *time.Time      `json:"paidAt"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Remaining is the amount still owed on the cycle, never negative.
func (c DebtCycle) Remaining() decimal.Decimal {
	r := c.Total.Sub(c.PaidTotal)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// MarshalJSON adds the derived remaining balance.
func (c DebtCycle) MarshalJSON() ([]byte, error) {
	type alias DebtCycle
	return json.Marshal(struct {
		alias
		Remaining decimal.Decimal `json:"remaining"`
	}{alias(c), c.Remaining()})
}

// DebtItem is a single immutable debt entry inside a cycle.
type DebtItem struct {
	ID        uuid.UUID       `json:"id"`
	CycleID   uuid.UUID       `json:"cycleId"`
	Amount    decimal.Decimal `json:"amount"`
	Note      *string         `json:"note"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OpenDebtCycle is the option shape used when picking a cycle to pay.
type OpenDebtCycle struct {
	CycleID   uuid.UUID       `json:"cycleId"`
	UserID    uuid.UUID       `json:"userId"`
	UserName  string          `json:"userName"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
}

// PublicDebtStatus values.
const (
	PublicStatusPaid   = "paid"
	PublicStatusUnpaid = "unpaid"
)

// PublicDebt is the redacted per-user view served without authentication.
type PublicDebt struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Total  decimal.Decimal `json:"total"`
	Status string          `json:"status"`
}
