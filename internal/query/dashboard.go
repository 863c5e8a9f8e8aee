package query

import (
	"context"
	"strings"
	"time"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/models"
)

// Dashboard periods.
const (
	PeriodToday     = "today"
	PeriodThisWeek  = "this_week"
	PeriodThisMonth = "this_month"
	PeriodAll       = "all"
)

// periodStart resolves the first instant of period in loc. PeriodAll yields the zero time.
func periodStart(period string, now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodToday:
		return midnight, nil
	case PeriodThisWeek:
		// Weeks start on Monday.
		offset := (int(midnight.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset), nil
	case PeriodThisMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), nil
	case PeriodAll, "":
		return time.Time{}, nil
	}
	return time.Time{}, apperr.Validation("period", "Periode harus today, this_week, this_month atau all")
}

// Cards returns the headline totals.
func (s *Service) Cards(ctx context.Context) (models.DashboardCards, error) {
	return readThrough(ctx, s, "dashboard:cards", func(ctx context.Context) (models.DashboardCards, error) {
		cards, err := s.store.Cards(ctx)
		if err != nil {
			return models.DashboardCards{}, apperr.Internal(err)
		}
		return cards, nil
	})
}

// Stats aggregates debt and payment flows over period.
func (s *Service) Stats(ctx context.Context, period string) (models.DashboardStats, error) {
	now := s.now()
	since, err := periodStart(period, now, s.loc)
	if err != nil {
		return models.DashboardStats{}, err
	}
	overdueBefore := now.AddDate(0, 0, -s.overdueDays)
	stats, err := s.store.Stats(ctx, since, overdueBefore)
	if err != nil {
		return models.DashboardStats{}, apperr.Internal(err)
	}
	return stats, nil
}

func (s *Service) RecentPayments(ctx context.Context, limit int) ([]models.RecentPayment, error) {
	out, err := s.store.RecentPayments(ctx, clampPick(limit, dashboardTopLimit))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) TopDebtors(ctx context.Context, limit int) ([]models.TopDebtor, error) {
	out, err := s.store.TopDebtors(ctx, clampPick(limit, dashboardTopLimit))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Overview bundles stats, recent payments and top debtors for the landing page.
func (s *Service) Overview(ctx context.Context, period string) (models.DashboardOverview, error) {
	stats, err := s.Stats(ctx, period)
	if err != nil {
		return models.DashboardOverview{}, err
	}
	recent, err := s.RecentPayments(ctx, dashboardTopLimit)
	if err != nil {
		return models.DashboardOverview{}, err
	}
	top, err := s.TopDebtors(ctx, dashboardTopLimit)
	if err != nil {
		return models.DashboardOverview{}, err
	}
	return models.DashboardOverview{Stats: stats, RecentPayments: recent, TopDebtors: top}, nil
}
