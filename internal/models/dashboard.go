package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardCards struct {
	TotalUsers     int             `json:"totalUsers"`
	TotalPayments  decimal.Decimal `json:"totalPayments"`
	TotalDebts     decimal.Decimal `json:"totalDebts"`
	TotalPaidUsers int             `json:"totalPaidUsers"`
}

type DashboardStats struct {
	TotalUsers          int             `json:"totalUsers"`
	TotalDebt           decimal.Decimal `json:"totalDebt"`
	TotalPaid           decimal.Decimal `json:"totalPaid"`
	PendingDebt         decimal.Decimal `json:"pendingDebt"`
	ActiveCycles        int             `json:"activeCycles"`
	OverdueCycles       int             `json:"overdueCycles"`
	RecentPaymentsCount int             `json:"recentPaymentsCount"`
}

type RecentPayment struct {
	ID        uuid.UUID       `json:"id"`
	User      string          `json:"user"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
	Status    string          `json:"status"`
	TotalDebt decimal.Decimal `json:"totalDebt"`
}

type TopDebtor struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	TotalDebt   decimal.Decimal `json:"totalDebt"`
	CyclesCount int             `json:"cyclesCount"`
}

type DashboardOverview struct {
	Stats          DashboardStats  `json:"stats"`
	RecentPayments []RecentPayment `json:"recentPayments"`
	TopDebtors     []TopDebtor     `json:"topDebtors"`
}
