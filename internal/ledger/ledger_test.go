package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
	"github.com/hongminglow/pw-ledger/internal/storage/memory"
)

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.Store, *countingInvalidator) {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := memory.New(memory.WithClock(clock))
	inv := &countingInvalidator{}
	svc := NewService(store, WithClock(clock), WithLocation(time.UTC), WithInvalidator(inv))
	return svc, store, inv
}

func createUser(t *testing.T, store *memory.Store, name string) models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), models.User{Name: name, Phone: "081234567890"})
	require.NoError(t, err)
	return user
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind, "unexpected kind for %v", err)
	return appErr
}

func TestAddDebtAccumulatesIntoOpenCycle(t *testing.T) {
	svc, store, inv := newTestService(t)
	ctx := context.Background()
	budi := createUser(t, store, "Budi")

	first, err := svc.AddDebt(ctx, DebtInput{UserID: budi.ID, Amount: dec(50000), Date: "2024-01-01"})
	require.NoError(t, err)
	assert.True(t, first.Cycle.Total.Equal(dec(50000)))
	assert.False(t, first.Cycle.IsPaid)

	note := "  gula  "
	second, err := svc.AddDebt(ctx, DebtInput{UserID: budi.ID, Amount: dec(20000), Date: "2024-01-02", Note: &note})
	require.NoError(t, err)
	assert.Equal(t, first.Cycle.ID, second.Cycle.ID)
	assert.True(t, second.Cycle.Total.Equal(dec(70000)))
	require.NotNil(t, second.Item.Note)
	assert.Equal(t, "gula", *second.Item.Note)

	items, err := store.CycleItems(ctx, first.Cycle.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, inv.n)
}

func TestAddDebtValidation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Sari")

	tests := []struct {
		name  string
		in    DebtInput
		field string
	}{
		{"zero amount", DebtInput{UserID: user.ID, Amount: decimal.Zero, Date: "2024-01-01"}, "amount"},
		{"negative amount", DebtInput{UserID: user.ID, Amount: dec(-5), Date: "2024-01-01"}, "amount"},
		{"three decimals", DebtInput{UserID: user.ID, Amount: decimal.RequireFromString("0.001"), Date: "2024-01-01"}, "amount"},
		{"too large", DebtInput{UserID: user.ID, Amount: decimal.New(1, 20), Date: "2024-01-01"}, "amount"},
		{"future date", DebtInput{UserID: user.ID, Amount: dec(10), Date: "2024-01-11"}, "date"},
		{"garbage date", DebtInput{UserID: user.ID, Amount: dec(10), Date: "kemarin"}, "date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddDebt(ctx, tc.in)
			appErr := requireKind(t, err, apperr.KindValidation)
			assert.Contains(t, appErr.Fields, tc.field)
		})
	}

	_, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(10), Date: "2024-01-10T23:00:00Z"})
	require.NoError(t, err, "today is accepted")

	_, err = svc.AddDebt(ctx, DebtInput{UserID: uuid.New(), Amount: dec(10), Date: "2024-01-01"})
	requireKind(t, err, apperr.KindNotFound)
}

func TestConcurrentDebtsShareOneOpenCycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Andi")

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(amount), Date: "2024-01-05"})
			errs <- err
		}(int64(i * 1000))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	open := false
	cycles, total, err := store.ListCycles(ctx, storage.CycleFilter{ListParams: storage.ListParams{Page: 1, Limit: 100}, IsPaid: &open})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	// 1000 + 2000 + ... + 50000
	assert.True(t, cycles[0].Total.Equal(dec(1000*n*(n+1)/2)), "got %s", cycles[0].Total)
}

func TestApplyPaymentClosesCycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	budi := createUser(t, store, "Budi")

	debt, err := svc.AddDebt(ctx, DebtInput{UserID: budi.ID, Amount: dec(70000), Date: "2024-01-01"})
	require.NoError(t, err)

	partial, err := svc.ApplyPayment(ctx, PaymentInput{UserID: budi.ID, Amount: dec(30000), PaidAt: "2024-01-03"})
	require.NoError(t, err)
	assert.False(t, partial.Cycle.IsPaid)
	assert.True(t, partial.Cycle.Remaining().Equal(dec(40000)))

	full, err := svc.ApplyPayment(ctx, PaymentInput{UserID: budi.ID, Amount: dec(40000), PaidAt: "2024-01-05T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, debt.Cycle.ID, full.Cycle.ID)
	assert.True(t, full.Cycle.IsPaid)
	require.NotNil(t, full.Cycle.PaidAt)
	assert.True(t, full.Cycle.Total.Equal(dec(70000)))
	assert.Equal(t, "Budi", full.User.Name)

	next, err := svc.AddDebt(ctx, DebtInput{UserID: budi.ID, Amount: dec(5000), Date: "2024-01-06"})
	require.NoError(t, err)
	assert.NotEqual(t, debt.Cycle.ID, next.Cycle.ID, "a paid cycle accepts no more items")
	assert.True(t, next.Cycle.Total.Equal(dec(5000)))
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Citra")

	debt, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(70000), Date: "2024-01-01"})
	require.NoError(t, err)

	_, err = svc.ApplyPayment(ctx, PaymentInput{UserID: user.ID, Amount: dec(70001), PaidAt: "2024-01-02"})
	appErr := requireKind(t, err, apperr.KindValidation)
	require.Contains(t, appErr.Fields, "amount")
	assert.Equal(t, "Jumlah melebihi sisa hutang (Rp 70.000)", appErr.Fields["amount"][0])

	_, err = svc.ApplyPayment(ctx, PaymentInput{UserID: user.ID, Amount: dec(100), PaidAt: "2024-02-01"})
	appErr = requireKind(t, err, apperr.KindValidation)
	assert.Contains(t, appErr.Fields, "paidat")

	payments, err := store.CyclePayments(ctx, debt.Cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	cycle, err := store.GetCycle(ctx, debt.Cycle.ID)
	require.NoError(t, err)
	assert.False(t, cycle.IsPaid)
	assert.True(t, cycle.PaidTotal.IsZero())
}

func TestAmountsMustFitMoneyColumns(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Eko")

	debt, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: decimal.RequireFromString("1500.50"), Date: "2024-01-01"})
	require.NoError(t, err, "two decimals are kept")
	assert.Equal(t, "1500.5", debt.Cycle.Total.String())

	big := decimal.RequireFromString("9999999999999999")
	_, err = svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: big, Date: "2024-01-01"})
	appErr := requireKind(t, err, apperr.KindValidation)
	assert.Contains(t, appErr.Fields, "amount", "cycle total would overflow")

	cycle, err := store.GetCycle(ctx, debt.Cycle.ID)
	require.NoError(t, err)
	assert.True(t, cycle.Total.Equal(decimal.RequireFromString("1500.50")), "rejected item left no trace")

	_, err = svc.ApplyPayment(ctx, PaymentInput{UserID: user.ID, Amount: decimal.RequireFromString("0.001"), PaidAt: "2024-01-02"})
	appErr = requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, "Jumlah maksimal 2 angka desimal", appErr.Fields["amount"][0])

	payments, err := store.CyclePayments(ctx, debt.Cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestApplyPaymentWithoutOpenDebt(t *testing.T) {
	svc, store, _ := newTestService(t)
	user := createUser(t, store, "Dewi")

	_, err := svc.ApplyPayment(context.Background(), PaymentInput{UserID: user.ID, Amount: dec(1), PaidAt: "2024-01-02"})
	require.ErrorIs(t, err, ErrNoOpenDebt)
}

func TestDeleteCycleRequiresPaid(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Eko")

	debt, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(15000), Date: "2024-01-01"})
	require.NoError(t, err)

	err = svc.DeleteCycle(ctx, debt.Cycle.ID)
	appErr := requireKind(t, err, apperr.KindConflict)
	assert.Equal(t, "Utang ini belum lunas dan tidak dapat dihapus", appErr.Message)

	items, err := store.CycleItems(ctx, debt.Cycle.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1, "rejected delete leaves data unchanged")

	_, err = svc.ApplyPayment(ctx, PaymentInput{UserID: user.ID, Amount: dec(15000), PaidAt: "2024-01-02"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCycle(ctx, debt.Cycle.ID))

	_, err = store.GetCycle(ctx, debt.Cycle.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = svc.DeleteCycle(ctx, debt.Cycle.ID)
	requireKind(t, err, apperr.KindNotFound)
}

func TestDeletePaymentsReopensPaidCycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Fajar")

	debt, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(25000), Date: "2024-01-01"})
	require.NoError(t, err)

	_, err = svc.DeletePayments(ctx, debt.Cycle.ID)
	requireKind(t, err, apperr.KindConflict)

	_, err = svc.ApplyPayment(ctx, PaymentInput{UserID: user.ID, Amount: dec(25000), PaidAt: "2024-01-02"})
	require.NoError(t, err)

	reopened, err := svc.DeletePayments(ctx, debt.Cycle.ID)
	require.NoError(t, err)
	assert.False(t, reopened.IsPaid)
	assert.Nil(t, reopened.PaidAt)
	assert.True(t, reopened.Remaining().Equal(dec(25000)))

	payments, err := store.CyclePayments(ctx, debt.Cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestDeletePaymentsRefusesSecondOpenCycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Gita")

	first, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(1000), Date: "2024-01-01"})
	require.NoError(t, err)
	_, err = svc.ApplyPayment(ctx, PaymentInput{UserID: user.ID, Amount: dec(1000), PaidAt: "2024-01-02"})
	require.NoError(t, err)
	_, err = svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(2000), Date: "2024-01-03"})
	require.NoError(t, err)

	_, err = svc.DeletePayments(ctx, first.Cycle.ID)
	requireKind(t, err, apperr.KindConflict)

	cycle, err := store.GetCycle(ctx, first.Cycle.ID)
	require.NoError(t, err)
	assert.True(t, cycle.IsPaid)
}

func TestDeleteUserGuardsOpenCycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, store, "Hadi")

	_, err := svc.AddDebt(ctx, DebtInput{UserID: user.ID, Amount: dec(1000), Date: "2024-01-01"})
	require.NoError(t, err)
	requireKind(t, svc.DeleteUser(ctx, user.ID), apperr.KindConflict)

	_, err = svc.ApplyPayment(ctx, PaymentInput{UserID: user.ID, Amount: dec(1000), PaidAt: "2024-01-02"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	_, err = store.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	requireKind(t, svc.DeleteUser(ctx, user.ID), apperr.KindNotFound)
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 70.000", FormatRupiah(dec(70000)))
	assert.Equal(t, "Rp 1.250.000", FormatRupiah(dec(1250000)))
	assert.Equal(t, "Rp 0", FormatRupiah(decimal.Zero))
}
