package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment reduces the outstanding balance of a cycle.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	CycleID   uuid.UUID       `json:"cycleId"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PaymentSummary is one row of the payments listing: a cycle that received payments.
type PaymentSummary struct {
	ID            uuid.UUID       `json:"id"`
	User          UserRef         `json:"user"`
	Total         decimal.Decimal `json:"total"`
	PaidTotal     decimal.Decimal `json:"paidTotal"`
	Remaining     decimal.Decimal `json:"remaining"`
	IsPaid        bool            `json:"isPaid"`
	PaidAt        *time.Time      `json:"paidAt"`
	LastPaymentAt time.Time       `json:"lastPaymentAt"`
	PaymentsCount int             `json:"paymentsCount"`
}
