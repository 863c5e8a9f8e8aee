// Package ledger owns the debt cycle rules: accumulating debt items into a
// user's open cycle and reconciling payments against it.
package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

// Invalidator is notified after every committed ledger change.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service applies ledger mutations under the owning user's lock.
type Service struct {
	store       storage.LedgerStore
	now         func() time.Time
	loc         *time.Location
	log         *zap.Logger
	invalidator Invalidator
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for validation and paidAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that defines "today" for date validation.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithInvalidator registers a hook run after each committed change.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// NewService constructs the ledger service.
func NewService(store storage.LedgerStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		loc:   time.UTC,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) changed(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.log.Warn("invalidate read cache", zap.Error(err))
	}
}

// mapStoreErr converts storage sentinels into application errors.
func mapStoreErr(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, storage.ErrOpenCycleExists):
		return apperr.Conflict("User masih memiliki hutang yang belum lunas")
	}
	return apperr.Internal(err)
}
