package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/pw-ledger/internal/accounts"
	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/ledger"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/storage/memory"
)

type mapCache struct {
	mu         sync.Mutex
	entries    map[string][]byte
	generation int
	hits       int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string][]byte{}} }

func (c *mapCache) Resolve(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d:%s", c.generation, key), nil
}

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return nil
}

type fixture struct {
	store    *memory.Store
	ledger   *ledger.Service
	accounts *accounts.Service
	query    *Service
	cache    *mapCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := base
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
	store := memory.New(memory.WithClock(clock))
	c := newMapCache()
	return fixture{
		store:    store,
		cache:    c,
		ledger:   ledger.NewService(store, ledger.WithClock(clock), ledger.WithInvalidator(c)),
		accounts: accounts.NewService(store, nil, accounts.WithInvalidator(c)),
		query:    NewService(store, WithCache(c), WithClock(clock)),
	}
}

func (f fixture) user(t *testing.T, name string) models.User {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), models.User{Name: name, Phone: "081200000000"})
	require.NoError(t, err)
	return u
}

func TestListUsersPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		f.user(t, fmt.Sprintf("User %02d", i))
	}

	page, err := f.query.ListUsers(ctx, ListInput{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 7, "default limit")
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 15}, page.Pagination)

	page, err = f.query.ListUsers(ctx, ListInput{Page: 4, Limit: 7})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 4, page.Pagination.CurrentPage)

	page, err = f.query.ListUsers(ctx, ListInput{Page: 0, Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Items, 15)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestEmptyListHasZeroPages(t *testing.T) {
	f := newFixture(t)
	page, err := f.query.ListPayments(context.Background(), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.Equal(t, 0, page.Pagination.TotalItems)
	assert.NotNil(t, page.Items)
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "Andi")
	f.user(t, "Ferdinand")
	f.user(t, "Budi")

	page, err := f.query.ListUsers(ctx, ListInput{Search: " and "})
	require.NoError(t, err)
	names := []string{}
	for _, u := range page.Items {
		names = append(names, u.Name)
	}
	assert.ElementsMatch(t, []string{"Andi", "Ferdinand"}, names)

	page, err = f.query.ListUsers(ctx, ListInput{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "wildcards are literal")
}

func TestListCyclesStatusFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	andi, budi := f.user(t, "Andi"), f.user(t, "Budi")

	_, err := f.ledger.AddDebt(ctx, ledger.DebtInput{UserID: andi.ID, Amount: decimal.NewFromInt(1000), Date: "2024-03-01"})
	require.NoError(t, err)
	_, err = f.ledger.AddDebt(ctx, ledger.DebtInput{UserID: budi.ID, Amount: decimal.NewFromInt(2000), Date: "2024-03-01"})
	require.NoError(t, err)
	_, err = f.ledger.ApplyPayment(ctx, ledger.PaymentInput{UserID: budi.ID, Amount: decimal.NewFromInt(2000), PaidAt: "2024-03-02"})
	require.NoError(t, err)

	paid, err := f.query.ListCycles(ctx, ListInput{}, "paid")
	require.NoError(t, err)
	require.Len(t, paid.Items, 1)
	assert.Equal(t, "Budi", paid.Items[0].User.Name)

	unpaid, err := f.query.ListCycles(ctx, ListInput{}, "UNPAID")
	require.NoError(t, err)
	require.Len(t, unpaid.Items, 1)
	assert.Equal(t, "Andi", unpaid.Items[0].User.Name)

	all, err := f.query.ListCycles(ctx, ListInput{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Pagination.TotalItems)

	_, err = f.query.ListCycles(ctx, ListInput{}, "lunas")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestPublicDebtsCachedUntilLedgerChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	andi := f.user(t, "Andi")

	_, err := f.ledger.AddDebt(ctx, ledger.DebtInput{UserID: andi.ID, Amount: decimal.NewFromInt(5000), Date: "2024-03-01"})
	require.NoError(t, err)

	rows, err := f.query.PublicDebts(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Total.Equal(decimal.NewFromInt(5000)))

	rows, err = f.query.PublicDebts(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, f.cache.hits)

	_, err = f.ledger.ApplyPayment(ctx, ledger.PaymentInput{UserID: andi.ID, Amount: decimal.NewFromInt(2000), PaidAt: "2024-03-02"})
	require.NoError(t, err)

	rows, err = f.query.PublicDebts(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Total.Equal(decimal.NewFromInt(3000)), "payment invalidated the cached view")
	assert.Equal(t, models.PublicStatusUnpaid, rows[0].Status)
}

func TestCachedViewsFollowCustomerChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budi, err := f.accounts.CreateUser(ctx, dto.CreateUserRequest{Name: "Budi", Phone: "081234567890"})
	require.NoError(t, err)
	_, err = f.ledger.AddDebt(ctx, ledger.DebtInput{UserID: budi.ID, Amount: decimal.NewFromInt(1000), Date: "2024-03-01"})
	require.NoError(t, err)

	cards, err := f.query.Cards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cards.TotalUsers)
	rows, err := f.query.PublicDebts(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = f.accounts.CreateUser(ctx, dto.CreateUserRequest{Name: "Andi", Phone: "081234567891"})
	require.NoError(t, err)
	rename := "Bambang"
	_, err = f.accounts.UpdateUser(ctx, budi.ID, dto.UpdateUserRequest{Name: &rename})
	require.NoError(t, err)

	cards, err = f.query.Cards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cards.TotalUsers)
	rows, err = f.query.PublicDebts(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bambang", rows[0].Name)
}

// racingStore retires the cache generation right after reading the cards, as
// a concurrent ledger write would.
type racingStore struct {
	*memory.Store
	cache *mapCache
}

func (r racingStore) Cards(ctx context.Context) (models.DashboardCards, error) {
	cards, err := r.Store.Cards(ctx)
	if err != nil {
		return cards, err
	}
	return cards, r.cache.Invalidate(ctx)
}

func TestReadThroughDoesNotCacheAcrossInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(racingStore{Store: f.store, cache: f.cache}, WithCache(f.cache))
	f.user(t, "Andi")

	cards, err := svc.Cards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cards.TotalUsers)

	f.user(t, "Budi")
	cards, err = svc.Cards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cards.TotalUsers, "value loaded before the invalidation must not be served")
	assert.Zero(t, f.cache.hits)
}

func TestCycleItemsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.query.CycleItems(context.Background(), uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPeriodStart(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// Wednesday 2024-03-13 01:30 WIB, still Tuesday in UTC.
	now := time.Date(2024, 3, 12, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{PeriodToday, time.Date(2024, 3, 13, 0, 0, 0, 0, jakarta)},
		{PeriodThisWeek, time.Date(2024, 3, 11, 0, 0, 0, 0, jakarta)},
		{PeriodThisMonth, time.Date(2024, 3, 1, 0, 0, 0, 0, jakarta)},
		{PeriodAll, time.Time{}},
	}
	for _, tc := range tests {
		t.Run(tc.period, func(t *testing.T) {
			got, err := periodStart(tc.period, now, jakarta)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}

	_, err := periodStart("yesterday", now, jakarta)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	andi, budi := f.user(t, "Andi"), f.user(t, "Budi")

	_, err := f.ledger.AddDebt(ctx, ledger.DebtInput{UserID: andi.ID, Amount: decimal.NewFromInt(10000), Date: "2024-03-01"})
	require.NoError(t, err)
	_, err = f.ledger.AddDebt(ctx, ledger.DebtInput{UserID: budi.ID, Amount: decimal.NewFromInt(4000), Date: "2024-03-01"})
	require.NoError(t, err)
	_, err = f.ledger.ApplyPayment(ctx, ledger.PaymentInput{UserID: andi.ID, Amount: decimal.NewFromInt(2500), PaidAt: "2024-03-02"})
	require.NoError(t, err)

	stats, err := f.query.Stats(ctx, PeriodAll)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.True(t, stats.TotalDebt.Equal(decimal.NewFromInt(14000)))
	assert.True(t, stats.TotalPaid.Equal(decimal.NewFromInt(2500)))
	assert.True(t, stats.PendingDebt.Equal(decimal.NewFromInt(11500)))
	assert.Equal(t, 2, stats.ActiveCycles)
	assert.Equal(t, 0, stats.OverdueCycles)
	assert.Equal(t, 1, stats.RecentPaymentsCount)

	top, err := f.query.TopDebtors(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Andi", top[0].Name)

	cards, err := f.query.Cards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cards.TotalPaidUsers)
	assert.True(t, cards.TotalDebts.Equal(decimal.NewFromInt(14000)))

	overview, err := f.query.Overview(ctx, PeriodToday)
	require.NoError(t, err)
	assert.Len(t, overview.RecentPayments, 1)
}
