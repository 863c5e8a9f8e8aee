package postgres

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

const cycleColumns = `c.id, c.user_id, u.name, c.total, c.paid_total, c.is_paid, c.paid_at, c.created_at, c.updated_at`

// WithinUserTx locks the user row FOR UPDATE and runs fn in the same transaction.
// Debt and payment writes for one user are therefore strictly serialized.
func (s *Store) WithinUserTx(ctx context.Context, userID uuid.UUID, fn func(tx storage.LedgerTx, user models.User) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1 FOR UPDATE`, userID)
	user, err := scanUser(row)
	if err != nil {
		return translate(err)
	}
	if err := fn(&ledgerTx{q: tx}, user); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", translate(err))
	}
	return nil
}

type ledgerTx struct {
	q querier
}

func (t *ledgerTx) OpenCycle(ctx context.Context, userID uuid.UUID) (models.DebtCycle, error) {
	row := t.q.QueryRow(ctx, `SELECT `+cycleColumns+` FROM debt_cycles c JOIN users u ON u.id = c.user_id
		WHERE c.user_id = $1 AND NOT c.is_paid`, userID)
	cycle, err := scanCycle(row)
	return cycle, translate(err)
}

func (t *ledgerTx) GetCycle(ctx context.Context, id uuid.UUID) (models.DebtCycle, error) {
	return getCycle(ctx, t.q, id)
}

func (t *ledgerTx) CreateCycle(ctx context.Context, cycle models.DebtCycle) (models.DebtCycle, error) {
	if cycle.ID == uuid.Nil {
		cycle.ID = uuid.New()
	}
	_, err := t.q.Exec(ctx, `INSERT INTO debt_cycles (id, user_id, total, paid_total, is_paid, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		cycle.ID, cycle.UserID, numeric(cycle.Total), numeric(cycle.PaidTotal), cycle.IsPaid, cycle.PaidAt)
	if err != nil {
		return models.DebtCycle{}, translate(err)
	}
	return getCycle(ctx, t.q, cycle.ID)
}

func (t *ledgerTx) SaveCycle(ctx context.Context, cycle models.DebtCycle) error {
	tag, err := t.q.Exec(ctx, `UPDATE debt_cycles
		SET total = $2, paid_total = $3, is_paid = $4, paid_at = $5, updated_at = NOW()
		WHERE id = $1`,
		cycle.ID, numeric(cycle.Total), numeric(cycle.PaidTotal), cycle.IsPaid, cycle.PaidAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *ledgerTx) DeleteCycle(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM debt_cycles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cycle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *ledgerTx) AddItem(ctx context.Context, item models.DebtItem) (models.DebtItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	row := t.q.QueryRow(ctx, `INSERT INTO debt_items (id, cycle_id, amount, note, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, cycle_id, amount, note, date, created_at`,
		item.ID, item.CycleID, numeric(item.Amount), item.Note, item.Date)
	created, err := scanItem(row)
	return created, translate(err)
}

func (t *ledgerTx) SumItems(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	return sum(ctx, t.q, `SELECT COALESCE(SUM(amount), 0) FROM debt_items WHERE cycle_id = $1`, cycleID)
}

func (t *ledgerTx) AddPayment(ctx context.Context, payment models.Payment) (models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	row := t.q.QueryRow(ctx, `INSERT INTO payments (id, user_id, cycle_id, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, cycle_id, amount, paid_at, created_at`,
		payment.ID, payment.UserID, payment.CycleID, numeric(payment.Amount), payment.PaidAt)
	created, err := scanPayment(row)
	return created, translate(err)
}

func (t *ledgerTx) SumPayments(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error) {
	return sum(ctx, t.q, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE cycle_id = $1`, cycleID)
}

func (t *ledgerTx) DeletePayments(ctx context.Context, cycleID uuid.UUID) (int, error) {
	tag, err := t.q.Exec(ctx, `DELETE FROM payments WHERE cycle_id = $1`, cycleID)
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (t *ledgerTx) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetCycle fetches a cycle with its owner's name.
func (s *Store) GetCycle(ctx context.Context, id uuid.UUID) (models.DebtCycle, error) {
	return getCycle(ctx, s.pool, id)
}

// ListCycles pages through cycles filtered by owner name and paid state.
func (s *Store) ListCycles(ctx context.Context, filter storage.CycleFilter) ([]models.DebtCycle, int, error) {
	const where = `WHERE u.name ILIKE $1 AND ($2::boolean IS NULL OR c.is_paid = $2)`
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM debt_cycles c JOIN users u ON u.id = c.user_id `+where,
		filter.Pattern(), filter.IsPaid).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cycles: %w", err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+cycleColumns+` FROM debt_cycles c JOIN users u ON u.id = c.user_id `+where+`
		ORDER BY c.created_at DESC, c.id LIMIT $3 OFFSET $4`,
		filter.Pattern(), filter.IsPaid, filter.Limit, filter.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()
	cycles := []models.DebtCycle{}
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, 0, err
		}
		cycles = append(cycles, cycle)
	}
	return cycles, total, rows.Err()
}

// CycleItems lists a cycle's items by date.
func (s *Store) CycleItems(ctx context.Context, cycleID uuid.UUID) ([]models.DebtItem, error) {
	if _, err := s.GetCycle(ctx, cycleID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT id, cycle_id, amount, note, date, created_at
		FROM debt_items WHERE cycle_id = $1 ORDER BY date, created_at`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	items := []models.DebtItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CyclePayments lists a cycle's payments by payment date.
func (s *Store) CyclePayments(ctx context.Context, cycleID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.GetCycle(ctx, cycleID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, cycle_id, amount, paid_at, created_at
		FROM payments WHERE cycle_id = $1 ORDER BY paid_at, created_at`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ListOpenCycles returns unpaid cycles whose owner name matches search.
func (s *Store) ListOpenCycles(ctx context.Context, search string, limit int) ([]models.OpenDebtCycle, error) {
	rows, err := s.pool.Query(ctx, `SELECT c.id, c.user_id, u.name, c.total, c.paid_total
		FROM debt_cycles c JOIN users u ON u.id = c.user_id
		WHERE NOT c.is_paid AND u.name ILIKE $1
		ORDER BY lower(u.name), u.id LIMIT $2`, storage.LikePattern(search), limit)
	if err != nil {
		return nil, fmt.Errorf("list open cycles: %w", err)
	}
	defer rows.Close()
	out := []models.OpenDebtCycle{}
	for rows.Next() {
		var (
			o           models.OpenDebtCycle
			total, paid pgtype.Numeric
		)
		if err := rows.Scan(&o.CycleID, &o.UserID, &o.UserName, &total, &paid); err != nil {
			return nil, err
		}
		o.Total = fromNumeric(total)
		o.Remaining = models.DebtCycle{Total: o.Total, PaidTotal: fromNumeric(paid)}.Remaining()
		out = append(out, o)
	}
	return out, rows.Err()
}

// PublicDebts reports, per matching user, the open cycle or else the latest paid one.
func (s *Store) PublicDebts(ctx context.Context, search string, limit int) ([]models.PublicDebt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (u.id) u.id, u.name, c.total, c.paid_total, c.is_paid
		FROM users u JOIN debt_cycles c ON c.user_id = u.id
		WHERE u.name ILIKE $1
		ORDER BY u.id, c.is_paid, c.created_at DESC`, storage.LikePattern(search))
	if err != nil {
		return nil, fmt.Errorf("public debts: %w", err)
	}
	defer rows.Close()
	out := []models.PublicDebt{}
	for rows.Next() {
		var (
			d           models.PublicDebt
			total, paid pgtype.Numeric
			isPaid      bool
		)
		if err := rows.Scan(&d.ID, &d.Name, &total, &paid, &isPaid); err != nil {
			return nil, err
		}
		cycle := models.DebtCycle{Total: fromNumeric(total), PaidTotal: fromNumeric(paid), IsPaid: isPaid}
		d.Total, d.Status = cycle.Total, models.PublicStatusPaid
		if !isPaid {
			d.Total, d.Status = cycle.Remaining(), models.PublicStatusUnpaid
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortPublic(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListPaymentSummaries pages through cycles that have received payments.
func (s *Store) ListPaymentSummaries(ctx context.Context, params storage.ListParams) ([]models.PaymentSummary, int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT p.cycle_id) FROM payments p
		JOIN users u ON u.id = p.user_id WHERE u.name ILIKE $1`, params.Pattern()).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count payment summaries: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, u.id, u.name, c.total, c.paid_total, c.is_paid, c.paid_at, agg.last_paid_at, agg.cnt
		FROM (
			SELECT cycle_id, MAX(paid_at) AS last_paid_at, COUNT(*) AS cnt
			FROM payments GROUP BY cycle_id
		) agg
		JOIN debt_cycles c ON c.id = agg.cycle_id
		JOIN users u ON u.id = c.user_id
		WHERE u.name ILIKE $1
		ORDER BY agg.last_paid_at DESC, c.id
		LIMIT $2 OFFSET $3`, params.Pattern(), params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list payment summaries: %w", err)
	}
	defer rows.Close()
	out := []models.PaymentSummary{}
	for rows.Next() {
		var (
			p           models.PaymentSummary
			total, paid pgtype.Numeric
			n           int64
		)
		if err := rows.Scan(&p.ID, &p.User.ID, &p.User.Name, &total, &paid, &p.IsPaid, &p.PaidAt, &p.LastPaymentAt, &n); err != nil {
			return nil, 0, err
		}
		p.Total, p.PaidTotal = fromNumeric(total), fromNumeric(paid)
		p.Remaining = models.DebtCycle{Total: p.Total, PaidTotal: p.PaidTotal}.Remaining()
		p.PaymentsCount = int(n)
		out = append(out, p)
	}
	return out, count, rows.Err()
}

func getCycle(ctx context.Context, q querier, id uuid.UUID) (models.DebtCycle, error) {
	row := q.QueryRow(ctx, `SELECT `+cycleColumns+` FROM debt_cycles c JOIN users u ON u.id = c.user_id WHERE c.id = $1`, id)
	cycle, err := scanCycle(row)
	return cycle, translate(err)
}

func sum(ctx context.Context, q querier, query string, id uuid.UUID) (decimal.Decimal, error) {
	var n pgtype.Numeric
	if err := q.QueryRow(ctx, query, id).Scan(&n); err != nil {
		return decimal.Zero, err
	}
	return fromNumeric(n), nil
}

func scanCycle(row pgx.Row) (models.DebtCycle, error) {
	var (
		c           models.DebtCycle
		total, paid pgtype.Numeric
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.User.Name, &total, &paid, &c.IsPaid, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.DebtCycle{}, err
	}
	c.User.ID = c.UserID
	c.Total, c.PaidTotal = fromNumeric(total), fromNumeric(paid)
	return c, nil
}

func scanItem(row pgx.Row) (models.DebtItem, error) {
	var (
		item   models.DebtItem
		amount pgtype.Numeric
	)
	if err := row.Scan(&item.ID, &item.CycleID, &amount, &item.Note, &item.Date, &item.CreatedAt); err != nil {
		return models.DebtItem{}, err
	}
	item.Amount = fromNumeric(amount)
	return item, nil
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var (
		p      models.Payment
		amount pgtype.Numeric
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.CycleID, &amount, &p.PaidAt, &p.CreatedAt); err != nil {
		return models.Payment{}, err
	}
	p.Amount = fromNumeric(amount)
	return p, nil
}

func sortPublic(rows []models.PublicDebt) {
	sort.Slice(rows, func(i, j int) bool {
		if a, b := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name); a != b {
			return a < b
		}
		return bytes.Compare(rows[i].ID[:], rows[j].ID[:]) < 0
	})
}
