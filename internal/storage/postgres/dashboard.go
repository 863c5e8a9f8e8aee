package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hongminglow/pw-ledger/internal/models"
)

// Cards returns the four headline totals of the dashboard.
func (s *Store) Cards(ctx context.Context) (models.DashboardCards, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(SUM(amount), 0) FROM payments),
			(SELECT COALESCE(SUM(amount), 0) FROM debt_items),
			(SELECT COUNT(*) FROM users u
				WHERE EXISTS (SELECT 1 FROM debt_cycles c WHERE c.user_id = u.id)
				AND NOT EXISTS (SELECT 1 FROM debt_cycles c WHERE c.user_id = u.id AND NOT c.is_paid))`
	var (
		cards           models.DashboardCards
		payments, debts pgtype.Numeric
	)
	if err := s.pool.QueryRow(ctx, query).Scan(&cards.TotalUsers, &payments, &debts, &cards.TotalPaidUsers); err != nil {
		return models.DashboardCards{}, fmt.Errorf("dashboard cards: %w", err)
	}
	cards.TotalPayments, cards.TotalDebts = fromNumeric(payments), fromNumeric(debts)
	return cards, nil
}

// Stats aggregates flows since the given instant and the current open balance.
func (s *Store) Stats(ctx context.Context, since, overdueBefore time.Time) (models.DashboardStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(SUM(amount), 0) FROM debt_items WHERE created_at >= $1),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE created_at >= $1),
			(SELECT COUNT(*) FROM payments WHERE created_at >= $1),
			(SELECT COALESCE(SUM(GREATEST(total - paid_total, 0)), 0) FROM debt_cycles WHERE NOT is_paid),
			(SELECT COUNT(*) FROM debt_cycles WHERE NOT is_paid),
			(SELECT COUNT(*) FROM debt_cycles WHERE NOT is_paid AND created_at < $2)`
	var (
		stats               models.DashboardStats
		debt, paid, pending pgtype.Numeric
	)
	err := s.pool.QueryRow(ctx, query, since, overdueBefore).Scan(
		&stats.TotalUsers, &debt, &paid, &stats.RecentPaymentsCount, &pending, &stats.ActiveCycles, &stats.OverdueCycles)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	stats.TotalDebt, stats.TotalPaid, stats.PendingDebt = fromNumeric(debt), fromNumeric(paid), fromNumeric(pending)
	return stats, nil
}

// RecentPayments lists the latest recorded payments.
func (s *Store) RecentPayments(ctx context.Context, limit int) ([]models.RecentPayment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, u.name, p.amount, p.paid_at, c.is_paid, c.total
		FROM payments p
		JOIN users u ON u.id = p.user_id
		JOIN debt_cycles c ON c.id = p.cycle_id
		ORDER BY p.created_at DESC, p.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent payments: %w", err)
	}
	defer rows.Close()
	out := []models.RecentPayment{}
	for rows.Next() {
		var (
			r             models.RecentPayment
			amount, total pgtype.Numeric
			isPaid        bool
		)
		if err := rows.Scan(&r.ID, &r.User, &amount, &r.PaidAt, &isPaid, &total); err != nil {
			return nil, err
		}
		r.Amount, r.TotalDebt = fromNumeric(amount), fromNumeric(total)
		r.Status = models.PublicStatusUnpaid
		if isPaid {
			r.Status = models.PublicStatusPaid
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopDebtors ranks users by outstanding balance.
func (s *Store) TopDebtors(ctx context.Context, limit int) ([]models.TopDebtor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.name, u.phone,
			SUM(GREATEST(c.total - c.paid_total, 0)) FILTER (WHERE NOT c.is_paid) AS outstanding,
			COUNT(c.id)
		FROM users u
		JOIN debt_cycles c ON c.user_id = u.id
		GROUP BY u.id
		HAVING bool_or(NOT c.is_paid)
		ORDER BY outstanding DESC, lower(u.name), u.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top debtors: %w", err)
	}
	defer rows.Close()
	out := []models.TopDebtor{}
	for rows.Next() {
		var (
			d     models.TopDebtor
			total pgtype.Numeric
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &total, &d.CyclesCount); err != nil {
			return nil, err
		}
		d.TotalDebt = fromNumeric(total)
		out = append(out, d)
	}
	return out, rows.Err()
}
