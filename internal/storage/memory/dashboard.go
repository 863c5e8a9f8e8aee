package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/pw-ledger/internal/models"
)

func (s *Store) Cards(_ context.Context) (models.DashboardCards, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cards := models.DashboardCards{
		TotalUsers:    len(s.users),
		TotalPayments: decimal.Zero,
		TotalDebts:    decimal.Zero,
	}
	for _, p := range s.payments {
		cards.TotalPayments = cards.TotalPayments.Add(p.Amount)
	}
	for _, item := range s.items {
		cards.TotalDebts = cards.TotalDebts.Add(item.Amount)
	}
	cards.TotalPaidUsers = len(s.paidUpUsersLocked())
	return cards, nil
}

// paidUpUsersLocked returns users with at least one cycle and no open cycle.
func (s *Store) paidUpUsersLocked() map[uuid.UUID]struct{} {
	hasCycle := make(map[uuid.UUID]bool)
	for _, c := range s.cycles {
		if !c.IsPaid {
			hasCycle[c.UserID] = false
			continue
		}
		if _, seen := hasCycle[c.UserID]; !seen {
			hasCycle[c.UserID] = true
		}
	}
	out := make(map[uuid.UUID]struct{})
	for id, paidUp := range hasCycle {
		if paidUp {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s *Store) Stats(_ context.Context, since, overdueBefore time.Time) (models.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.DashboardStats{
		TotalUsers:  len(s.users),
		TotalDebt:   decimal.Zero,
		TotalPaid:   decimal.Zero,
		PendingDebt: decimal.Zero,
	}
	for _, item := range s.items {
		if !item.CreatedAt.Before(since) {
			stats.TotalDebt = stats.TotalDebt.Add(item.Amount)
		}
	}
	for _, p := range s.payments {
		if !p.CreatedAt.Before(since) {
			stats.TotalPaid = stats.TotalPaid.Add(p.Amount)
			stats.RecentPaymentsCount++
		}
	}
	for _, c := range s.cycles {
		if c.IsPaid {
			continue
		}
		stats.ActiveCycles++
		stats.PendingDebt = stats.PendingDebt.Add(c.Remaining())
		if c.CreatedAt.Before(overdueBefore) {
			stats.OverdueCycles++
		}
	}
	return stats, nil
}

func (s *Store) RecentPayments(_ context.Context, limit int) ([]models.RecentPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := make([]models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		payments = append(payments, p)
	}
	sortNewestFirst(payments, func(p models.Payment) (time.Time, uuid.UUID) { return p.CreatedAt, p.ID })
	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
	}
	out := make([]models.RecentPayment, 0, len(payments))
	for _, p := range payments {
		c := s.cycles[p.CycleID]
		status := models.PublicStatusUnpaid
		if c.IsPaid {
			status = models.PublicStatusPaid
		}
		out = append(out, models.RecentPayment{
			ID:        p.ID,
			User:      s.users[p.UserID].Name,
			Amount:    p.Amount,
			PaidAt:    p.PaidAt,
			Status:    status,
			TotalDebt: c.Total,
		})
	}
	return out, nil
}

func (s *Store) TopDebtors(_ context.Context, limit int) ([]models.TopDebtor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byUser := make(map[uuid.UUID]*models.TopDebtor)
	for _, c := range s.cycles {
		if c.IsPaid {
			continue
		}
		d, ok := byUser[c.UserID]
		if !ok {
			u := s.users[c.UserID]
			d = &models.TopDebtor{ID: u.ID, Name: u.Name, Phone: u.Phone, TotalDebt: decimal.Zero}
			byUser[c.UserID] = d
		}
		d.TotalDebt = d.TotalDebt.Add(c.Remaining())
	}
	for _, c := range s.cycles {
		if d, ok := byUser[c.UserID]; ok {
			d.CyclesCount++
		}
	}
	out := make([]models.TopDebtor, 0, len(byUser))
	for _, d := range byUser {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TotalDebt.Equal(out[j].TotalDebt) {
			return out[i].TotalDebt.GreaterThan(out[j].TotalDebt)
		}
		return lessByName(out[i].Name, out[i].ID, out[j].Name, out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
