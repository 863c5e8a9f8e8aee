// Package query serves the read side of the ledger: paginated listings,
// search pickers, the public status view and dashboard aggregates.
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/cache"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

const (
	MaxLimit          = 100
	DefaultPageLimit  = 7
	DefaultPickLimit  = 10
	PublicDebtsLimit  = 50
	DefaultOverdue    = 30
	dashboardTopLimit = 5
)

// Store is the read surface the query layer needs.
type Store interface {
	storage.UserStore
	storage.AdminStore
	storage.LedgerStore
	storage.DashboardStore
}

// Service answers list, search and dashboard queries.
type Service struct {
	store        Store
	cache        cache.Cache
	log          *zap.Logger
	now          func() time.Time
	loc          *time.Location
	defaultLimit int
	overdueDays  int
}

// Option customises a Service.
type Option func(*Service)

func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used to resolve dashboard periods.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDefaultLimit sets the page size used when a request omits limit.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = min(n, MaxLimit)
		}
	}
}

// WithOverdueDays sets the age after which an open cycle counts as overdue.
func WithOverdueDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.overdueDays = n
		}
	}
}

// NewService constructs the query service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		cache:        cache.Noop{},
		log:          zap.NewNop(),
		now:          time.Now,
		loc:          time.UTC,
		defaultLimit: DefaultPageLimit,
		overdueDays:  DefaultOverdue,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListInput is the raw paging request of a listing.
type ListInput struct {
	Search string
	Page   int
	Limit  int
}

func (s *Service) params(in ListInput) storage.ListParams {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	switch {
	case limit < 1:
		limit = s.defaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return storage.ListParams{Search: strings.TrimSpace(in.Search), Page: page, Limit: limit}
}

func pageOf[T any](items []T, total int, p storage.ListParams) models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return models.Page[T]{Items: items, Pagination: models.NewPagination(p.Page, p.Limit, total)}
}

func clampPick(limit, def int) int {
	switch {
	case limit < 1:
		return def
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// ListUsers pages customers, newest first, filtered by name.
func (s *Service) ListUsers(ctx context.Context, in ListInput) (models.Page[models.User], error) {
	p := s.params(in)
	users, total, err := s.store.ListUsers(ctx, p)
	if err != nil {
		return models.Page[models.User]{}, apperr.Internal(err)
	}
	return pageOf(users, total, p), nil
}

// SearchUsers backs the customer picker.
func (s *Service) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	users, err := s.store.SearchUsers(ctx, strings.TrimSpace(query), clampPick(limit, DefaultPickLimit))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// GetUser loads one customer.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, "User tidak ditemukan")
	}
	return user, nil
}

// ListCycles pages debt cycles. status is "", "paid" or "unpaid".
func (s *Service) ListCycles(ctx context.Context, in ListInput, status string) (models.Page[models.DebtCycle], error) {
	filter := storage.CycleFilter{ListParams: s.params(in)}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "":
	case models.PublicStatusPaid:
		paid := true
		filter.IsPaid = &paid
	case models.PublicStatusUnpaid:
		paid := false
		filter.IsPaid = &paid
	default:
		return models.Page[models.DebtCycle]{}, apperr.Validation("status", "Status harus paid atau unpaid")
	}
	cycles, total, err := s.store.ListCycles(ctx, filter)
	if err != nil {
		return models.Page[models.DebtCycle]{}, apperr.Internal(err)
	}
	return pageOf(cycles, total, filter.ListParams), nil
}

// OpenCycles backs the payment form picker.
func (s *Service) OpenCycles(ctx context.Context, search string, limit int) ([]models.OpenDebtCycle, error) {
	out, err := s.store.ListOpenCycles(ctx, strings.TrimSpace(search), clampPick(limit, DefaultPickLimit))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// PublicDebts is the unauthenticated status view, one row per customer.
func (s *Service) PublicDebts(ctx context.Context, search string) ([]models.PublicDebt, error) {
	search = strings.TrimSpace(search)
	return readThrough(ctx, s, "public:"+strings.ToLower(search), func(ctx context.Context) ([]models.PublicDebt, error) {
		rows, err := s.store.PublicDebts(ctx, search, PublicDebtsLimit)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return rows, nil
	})
}

// CycleItems returns a cycle with its debt items.
func (s *Service) CycleItems(ctx context.Context, cycleID uuid.UUID) (dto.DebtDetailResponse, error) {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return dto.DebtDetailResponse{}, notFound(err, "Data hutang tidak ditemukan")
	}
	items, err := s.store.CycleItems(ctx, cycleID)
	if err != nil {
		return dto.DebtDetailResponse{}, notFound(err, "Data hutang tidak ditemukan")
	}
	return dto.DebtDetailResponse{Cycle: cycle, Items: items}, nil
}

// ListPayments pages cycles that have received at least one payment.
func (s *Service) ListPayments(ctx context.Context, in ListInput) (models.Page[models.PaymentSummary], error) {
	p := s.params(in)
	rows, total, err := s.store.ListPaymentSummaries(ctx, p)
	if err != nil {
		return models.Page[models.PaymentSummary]{}, apperr.Internal(err)
	}
	return pageOf(rows, total, p), nil
}

// PaymentHistory returns a cycle with its payments.
func (s *Service) PaymentHistory(ctx context.Context, cycleID uuid.UUID) (dto.PaymentHistoryResponse, error) {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return dto.PaymentHistoryResponse{}, notFound(err, "Data hutang tidak ditemukan")
	}
	payments, err := s.store.CyclePayments(ctx, cycleID)
	if err != nil {
		return dto.PaymentHistoryResponse{}, notFound(err, "Data hutang tidak ditemukan")
	}
	return dto.PaymentHistoryResponse{Cycle: cycle, Payments: payments}, nil
}

// ListAdmins pages operator accounts filtered by name, username or email.
func (s *Service) ListAdmins(ctx context.Context, in ListInput) (models.Page[models.Admin], error) {
	p := s.params(in)
	admins, total, err := s.store.ListAdmins(ctx, p)
	if err != nil {
		return models.Page[models.Admin]{}, apperr.Internal(err)
	}
	return pageOf(admins, total, p), nil
}

func notFound(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(message)
	}
	return apperr.Internal(err)
}

// readThrough serves key from the read cache, loading and storing the value
// on a miss. Cache failures are logged and fall back to load.
func readThrough[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	resolved, err := s.cache.Resolve(ctx, key)
	if err != nil {
		s.log.Warn("read cache resolve", zap.String("key", key), zap.Error(err))
		return load(ctx)
	}
	var out T
	found, err := s.cache.Get(ctx, resolved, &out)
	switch {
	case err != nil:
		s.log.Warn("read cache get", zap.String("key", key), zap.Error(err))
	case found:
		return out, nil
	}
	out, err = load(ctx)
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, resolved, out); err != nil {
		s.log.Warn("read cache set", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}
