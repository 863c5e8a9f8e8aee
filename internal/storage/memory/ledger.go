package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

// WithinUserTx holds the write lock for the whole of fn, so readers never see
// a half-applied ledger change. On error every journaled write is undone.
func (s *Store) WithinUserTx(ctx context.Context, userID uuid.UUID, fn func(tx storage.LedgerTx, user models.User) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	tx := &ledgerTx{s: s}
	if err := fn(tx, user); err != nil {
		tx.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type ledgerTx struct {
	s    *Store
	undo []func()
}

func (tx *ledgerTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *ledgerTx) OpenCycle(_ context.Context, userID uuid.UUID) (models.DebtCycle, error) {
	if c, ok := tx.s.openCycleLocked(userID); ok {
		return tx.s.withUser(c), nil
	}
	return models.DebtCycle{}, storage.ErrNotFound
}

func (tx *ledgerTx) GetCycle(_ context.Context, id uuid.UUID) (models.DebtCycle, error) {
	c, ok := tx.s.cycles[id]
	if !ok {
		return models.DebtCycle{}, storage.ErrNotFound
	}
	return tx.s.withUser(c), nil
}

func (tx *ledgerTx) CreateCycle(_ context.Context, cycle models.DebtCycle) (models.DebtCycle, error) {
	if !cycle.IsPaid {
		if _, open := tx.s.openCycleLocked(cycle.UserID); open {
			return models.DebtCycle{}, storage.ErrOpenCycleExists
		}
	}
	if cycle.ID == uuid.Nil {
		cycle.ID = uuid.New()
	}
	now := tx.s.timestamp()
	cycle.CreatedAt, cycle.UpdatedAt = now, now
	tx.s.cycles[cycle.ID] = cycle
	id := cycle.ID
	tx.undo = append(tx.undo, func() { delete(tx.s.cycles, id) })
	return tx.s.withUser(cycle), nil
}

func (tx *ledgerTx) SaveCycle(_ context.Context, cycle models.DebtCycle) error {
	prev, ok := tx.s.cycles[cycle.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if !cycle.IsPaid {
		if open, exists := tx.s.openCycleLocked(prev.UserID); exists && open.ID != cycle.ID {
			return storage.ErrOpenCycleExists
		}
	}
	next := prev
	next.Total = cycle.Total
	next.PaidTotal = cycle.PaidTotal
	next.IsPaid = cycle.IsPaid
	next.PaidAt = cycle.PaidAt
	next.UpdatedAt = tx.s.timestamp()
	tx.s.cycles[cycle.ID] = next
	tx.undo = append(tx.undo, func() { tx.s.cycles[prev.ID] = prev })
	return nil
}

func (tx *ledgerTx) DeleteCycle(_ context.Context, id uuid.UUID) error {
	cycle, ok := tx.s.cycles[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(tx.s.cycles, id)
	tx.undo = append(tx.undo, func() { tx.s.cycles[id] = cycle })
	for itemID, item := range tx.s.items {
		if item.CycleID == id {
			delete(tx.s.items, itemID)
			tx.undo = append(tx.undo, func() { tx.s.items[item.ID] = item })
		}
	}
	for paymentID, p := range tx.s.payments {
		if p.CycleID == id {
			delete(tx.s.payments, paymentID)
			tx.undo = append(tx.undo, func() { tx.s.payments[p.ID] = p })
		}
	}
	return nil
}

func (tx *ledgerTx) AddItem(_ context.Context, item models.DebtItem) (models.DebtItem, error) {
	if _, ok := tx.s.cycles[item.CycleID]; !ok {
		return models.DebtItem{}, storage.ErrNotFound
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = tx.s.timestamp()
	tx.s.items[item.ID] = item
	id := item.ID
	tx.undo = append(tx.undo, func() { delete(tx.s.items, id) })
	return item, nil
}

func (tx *ledgerTx) SumItems(_ context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, item := range tx.s.items {
		if item.CycleID == cycleID {
			sum = sum.Add(item.Amount)
		}
	}
	return sum, nil
}

func (tx *ledgerTx) AddPayment(_ context.Context, payment models.Payment) (models.Payment, error) {
	if _, ok := tx.s.cycles[payment.CycleID]; !ok {
		return models.Payment{}, storage.ErrNotFound
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = tx.s.timestamp()
	tx.s.payments[payment.ID] = payment
	id := payment.ID
	tx.undo = append(tx.undo, func() { delete(tx.s.payments, id) })
	return payment, nil
}

func (tx *ledgerTx) SumPayments(_ context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	return tx.s.paidLocked(cycleID), nil
}

func (tx *ledgerTx) DeletePayments(_ context.Context, cycleID uuid.UUID) (int, error) {
	n := 0
	for id, p := range tx.s.payments {
		if p.CycleID == cycleID {
			delete(tx.s.payments, id)
			tx.undo = append(tx.undo, func() { tx.s.payments[p.ID] = p })
			n++
		}
	}
	return n, nil
}

func (tx *ledgerTx) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, ok := tx.s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	for id, c := range tx.s.cycles {
		if c.UserID == userID {
			if err := tx.DeleteCycle(ctx, id); err != nil {
				return err
			}
		}
	}
	delete(tx.s.users, userID)
	tx.undo = append(tx.undo, func() { tx.s.users[userID] = user })
	return nil
}

// openCycleLocked must be called with mu held.
func (s *Store) openCycleLocked(userID uuid.UUID) (models.DebtCycle, bool) {
	for _, c := range s.cycles {
		if c.UserID == userID && !c.IsPaid {
			return c, true
		}
	}
	return models.DebtCycle{}, false
}

func (s *Store) paidLocked(cycleID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range s.payments {
		if p.CycleID == cycleID {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

func (s *Store) withUser(c models.DebtCycle) models.DebtCycle {
	c.User = models.UserRef{ID: c.UserID, Name: s.users[c.UserID].Name}
	return c
}

func (s *Store) GetCycle(_ context.Context, id uuid.UUID) (models.DebtCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cycles[id]
	if !ok {
		return models.DebtCycle{}, storage.ErrNotFound
	}
	return s.withUser(c), nil
}

func (s *Store) ListCycles(_ context.Context, filter storage.CycleFilter) ([]models.DebtCycle, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.DebtCycle
	for _, c := range s.cycles {
		if filter.IsPaid != nil && c.IsPaid != *filter.IsPaid {
			continue
		}
		c = s.withUser(c)
		if containsFold(c.User.Name, filter.Search) {
			matched = append(matched, c)
		}
	}
	sortNewestFirst(matched, func(c models.DebtCycle) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID })
	return paginate(matched, filter.ListParams), len(matched), nil
}

func (s *Store) CycleItems(_ context.Context, cycleID uuid.UUID) ([]models.DebtItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.cycles[cycleID]; !ok {
		return nil, storage.ErrNotFound
	}
	items := []models.DebtItem{}
	for _, item := range s.items {
		if item.CycleID == cycleID {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CyclePayments(_ context.Context, cycleID uuid.UUID) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.cycles[cycleID]; !ok {
		return nil, storage.ErrNotFound
	}
	payments := []models.Payment{}
	for _, p := range s.payments {
		if p.CycleID == cycleID {
			payments = append(payments, p)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].PaidAt.Equal(payments[j].PaidAt) {
			return payments[i].PaidAt.Before(payments[j].PaidAt)
		}
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
	return payments, nil
}

func (s *Store) ListOpenCycles(_ context.Context, search string, limit int) ([]models.OpenDebtCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.OpenDebtCycle{}
	for _, c := range s.cycles {
		if c.IsPaid {
			continue
		}
		name := s.users[c.UserID].Name
		if !containsFold(name, search) {
			continue
		}
		out = append(out, models.OpenDebtCycle{
			CycleID:   c.ID,
			UserID:    c.UserID,
			UserName:  name,
			Total:     c.Total,
			Remaining: c.Remaining(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return lessByName(out[i].UserName, out[i].UserID, out[j].UserName, out[j].UserID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PublicDebts(_ context.Context, search string, limit int) ([]models.PublicDebt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[uuid.UUID]models.DebtCycle)
	for _, c := range s.cycles {
		cur, seen := latest[c.UserID]
		switch {
		case !seen:
			latest[c.UserID] = c
		case cur.IsPaid && !c.IsPaid:
			latest[c.UserID] = c
		case cur.IsPaid == c.IsPaid && c.CreatedAt.After(cur.CreatedAt):
			latest[c.UserID] = c
		}
	}
	out := []models.PublicDebt{}
	for userID, c := range latest {
		name := s.users[userID].Name
		if !containsFold(name, search) {
			continue
		}
		row := models.PublicDebt{ID: userID, Name: name, Total: c.Total, Status: models.PublicStatusPaid}
		if !c.IsPaid {
			row.Total = c.Remaining()
			row.Status = models.PublicStatusUnpaid
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return lessByName(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListPaymentSummaries(_ context.Context, params storage.ListParams) ([]models.PaymentSummary, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byCycle := make(map[uuid.UUID]*models.PaymentSummary)
	for _, p := range s.payments {
		c, ok := s.cycles[p.CycleID]
		if !ok {
			continue
		}
		sum, seen := byCycle[c.ID]
		if !seen {
			c = s.withUser(c)
			sum = &models.PaymentSummary{
				ID:        c.ID,
				User:      c.User,
				Total:     c.Total,
				PaidTotal: c.PaidTotal,
				Remaining: c.Remaining(),
				IsPaid:    c.IsPaid,
				PaidAt:    c.PaidAt,
			}
			byCycle[c.ID] = sum
		}
		sum.PaymentsCount++
		if p.PaidAt.After(sum.LastPaymentAt) {
			sum.LastPaymentAt = p.PaidAt
		}
	}
	var matched []models.PaymentSummary
	for _, sum := range byCycle {
		if containsFold(sum.User.Name, params.Search) {
			matched = append(matched, *sum)
		}
	}
	sortNewestFirst(matched, func(p models.PaymentSummary) (time.Time, uuid.UUID) { return p.LastPaymentAt, p.ID })
	return paginate(matched, params), len(matched), nil
}
