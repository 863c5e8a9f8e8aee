package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/pw-ledger/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict. Use errors.As with
// *UniqueError to learn which field collided.
var ErrAlreadyExists = errors.New("record already exists")

// ErrOpenCycleExists indicates a second open cycle would be created for a user.
var ErrOpenCycleExists = errors.New("user already has an open cycle")

// UniqueError names the column behind an ErrAlreadyExists.
type UniqueError struct {
	Field string
}

func (e *UniqueError) Error() string { return "duplicate " + e.Field }

func (e *UniqueError) Unwrap() error { return ErrAlreadyExists }

// ListParams is the common search and paging input for listings.
type ListParams struct {
	Search string
	Page   int
	Limit  int
}

// Offset returns the row offset for the page.
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pattern returns the ILIKE pattern for Search with wildcards escaped.
func (p ListParams) Pattern() string {
	return LikePattern(p.Search)
}

// LikePattern wraps term in % after escaping LIKE metacharacters.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// CycleFilter narrows the debt cycle listing.
type CycleFilter struct {
	ListParams
	// IsPaid filters by paid state when non-nil.
	IsPaid *bool
}

// UserStore persists customers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	ListUsers(ctx context.Context, params ListParams) ([]models.User, int, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

// AdminStore persists operator accounts.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error)
	GetAdmin(ctx context.Context, id uuid.UUID) (models.Admin, error)
	FindAdminByUsername(ctx context.Context, username string) (models.Admin, error)
	UpdateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error)
	DeleteAdmin(ctx context.Context, id uuid.UUID) error
	ListAdmins(ctx context.Context, params ListParams) ([]models.Admin, int, error)
	CountAdmins(ctx context.Context, role models.Role) (int, error)
}

// LedgerTx is the set of writes available while a user's lock is held.
// Every call made through it commits or rolls back together.
type LedgerTx interface {
	OpenCycle(ctx context.Context, userID uuid.UUID) (models.DebtCycle, error)
	GetCycle(ctx context.Context, id uuid.UUID) (models.DebtCycle, error)
	CreateCycle(ctx context.Context, cycle models.DebtCycle) (models.DebtCycle, error)
	SaveCycle(ctx context.Context, cycle models.DebtCycle) error
	DeleteCycle(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, item models.DebtItem) (models.DebtItem, error)
	SumItems(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error)
	AddPayment(ctx context.Context, payment models.Payment) (models.Payment, error)
	SumPayments(ctx context.Context, cycleID uuid.UUID) (decimal.Decimal, error)
	DeletePayments(ctx context.Context, cycleID uuid.UUID) (int, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// LedgerStore persists cycles, items, and payments.
type LedgerStore interface {
	// WithinUserTx locks the user row and runs fn inside one transaction.
	// It returns ErrNotFound when the user does not exist.
	WithinUserTx(ctx context.Context, userID uuid.UUID, fn func(tx LedgerTx, user models.User) error) error

	GetCycle(ctx context.Context, id uuid.UUID) (models.DebtCycle, error)
	ListCycles(ctx context.Context, filter CycleFilter) ([]models.DebtCycle, int, error)
	CycleItems(ctx context.Context, cycleID uuid.UUID) ([]models.DebtItem, error)
	CyclePayments(ctx context.Context, cycleID uuid.UUID) ([]models.Payment, error)
	ListOpenCycles(ctx context.Context, search string, limit int) ([]models.OpenDebtCycle, error)
	PublicDebts(ctx context.Context, search string, limit int) ([]models.PublicDebt, error)
	ListPaymentSummaries(ctx context.Context, params ListParams) ([]models.PaymentSummary, int, error)
}

// DashboardStore serves aggregate read models.
type DashboardStore interface {
	Cards(ctx context.Context) (models.DashboardCards, error)
	Stats(ctx context.Context, since, overdueBefore time.Time) (models.DashboardStats, error)
	RecentPayments(ctx context.Context, limit int) ([]models.RecentPayment, error)
	TopDebtors(ctx context.Context, limit int) ([]models.TopDebtor, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	AdminStore
	LedgerStore
	DashboardStore
	Close()
}
