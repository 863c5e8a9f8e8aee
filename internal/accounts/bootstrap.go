package accounts

import (
	"context"

	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
)

// Bootstrap describes the superadmin created on an empty installation.
type Bootstrap struct {
	Name     string
	Username string
	Email    string
	Password string
}

// EnsureSuperAdmin creates the bootstrap superadmin when no admin exists yet.
// It reports whether an account was created.
func (s *Service) EnsureSuperAdmin(ctx context.Context, b Bootstrap) (bool, error) {
	if b.Username == "" || b.Password == "" {
		return false, nil
	}
	n, err := s.store.CountAdmins(ctx, "")
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if b.Name == "" {
		b.Name = b.Username
	}
	if b.Email == "" {
		b.Email = b.Username + "@localhost.localdomain"
	}
	admin, err := s.CreateAdmin(ctx, dto.CreateAdminRequest{
		Name:     b.Name,
		Username: b.Username,
		Email:    b.Email,
		Password: b.Password,
		Role:     string(models.RoleSuperAdmin),
	})
	if err != nil {
		return false, err
	}
	s.log.Info("bootstrap superadmin created", zap.String("username", admin.Username))
	return true, nil
}
