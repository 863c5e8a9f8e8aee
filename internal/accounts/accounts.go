// Package accounts implements customer and operator account management.
package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

// Store is the persistence the account rules need.
type Store interface {
	storage.UserStore
	storage.AdminStore
}

// Invalidator is notified after customer data shown by cached read models
// changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service applies the account rules on top of the store.
type Service struct {
	store       Store
	log         *zap.Logger
	invalidator Invalidator

	// adminMu serializes admin writes so the superadmin count cannot race.
	adminMu sync.Mutex
}

// Option customises a Service.
type Option func(*Service)

// WithInvalidator registers a hook run after each customer create or update.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// NewService constructs the accounts service.
func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, log: log}
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

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func storeErr(err error, notFound string) error {
	var uniq *storage.UniqueError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.As(err, &uniq):
		switch uniq.Field {
		case "username":
			return apperr.ConflictField("username", "Username sudah digunakan")
		case "email":
			return apperr.ConflictField("email", "Email sudah digunakan")
		}
		return apperr.Conflict("Data sudah ada")
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperr.Conflict("Data sudah ada")
	}
	return apperr.Internal(err)
}
