package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/auth"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/validation"
)

const adminNotFound = "Admin tidak ditemukan"

// GetAdmin loads one operator account.
func (s *Service) GetAdmin(ctx context.Context, id uuid.UUID) (models.Admin, error) {
	admin, err := s.store.GetAdmin(ctx, id)
	if err != nil {
		return models.Admin{}, storeErr(err, adminNotFound)
	}
	return admin, nil
}

// CreateAdmin registers an operator. Role defaults to ADMIN.
func (s *Service) CreateAdmin(ctx context.Context, req dto.CreateAdminRequest) (models.Admin, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if err := validation.Struct(req); err != nil {
		return models.Admin{}, err
	}
	role := models.RoleAdmin
	if req.Role != "" {
		role = models.Role(req.Role)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.Admin{}, apperr.Internal(err)
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	admin, err := s.store.CreateAdmin(ctx, models.Admin{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return models.Admin{}, storeErr(err, adminNotFound)
	}
	s.log.Info("admin created", zap.Stringer("admin_id", admin.ID), zap.String("role", string(admin.Role)))
	return admin, nil
}

// UpdateAdmin applies a partial update. Username cannot change and the last
// superadmin cannot be demoted.
func (s *Service) UpdateAdmin(ctx context.Context, id uuid.UUID, req dto.UpdateAdminRequest) (models.Admin, error) {
	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		if v == "" {
			return models.Admin{}, apperr.Validation("name", "Nama wajib diisi")
		}
		req.Name = &v
	}
	if req.Email != nil {
		v := strings.TrimSpace(*req.Email)
		req.Email = &v
	}
	if req.Role != nil {
		v := strings.ToUpper(strings.TrimSpace(*req.Role))
		req.Role = &v
	}
	if err := validation.Struct(req); err != nil {
		return models.Admin{}, err
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	admin, err := s.store.GetAdmin(ctx, id)
	if err != nil {
		return models.Admin{}, storeErr(err, adminNotFound)
	}
	if req.Username != nil && !strings.EqualFold(strings.TrimSpace(*req.Username), admin.Username) {
		return models.Admin{}, apperr.Validation("username", "Username tidak dapat diubah")
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		if admin.Role == models.RoleSuperAdmin && role != models.RoleSuperAdmin {
			if err := s.ensureAnotherSuperAdmin(ctx); err != nil {
				return models.Admin{}, err
			}
		}
		admin.Role = role
	}
	if req.Name != nil {
		admin.Name = *req.Name
	}
	if req.Email != nil {
		admin.Email = *req.Email
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return models.Admin{}, apperr.Internal(err)
		}
		admin.PasswordHash = hash
	}
	updated, err := s.store.UpdateAdmin(ctx, admin)
	if err != nil {
		return models.Admin{}, storeErr(err, adminNotFound)
	}
	s.log.Info("admin updated", zap.Stringer("admin_id", id))
	return updated, nil
}

// DeleteAdmin removes an operator. Admins cannot delete themselves and the
// last superadmin is kept.
func (s *Service) DeleteAdmin(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return apperr.Conflict("Anda tidak dapat menghapus akun sendiri")
	}
	s.adminMu.Lock()
	defer s.adminMu.Unlock()
	admin, err := s.store.GetAdmin(ctx, id)
	if err != nil {
		return storeErr(err, adminNotFound)
	}
	if admin.Role == models.RoleSuperAdmin {
		if err := s.ensureAnotherSuperAdmin(ctx); err != nil {
			return err
		}
	}
	if err := s.store.DeleteAdmin(ctx, id); err != nil {
		return storeErr(err, adminNotFound)
	}
	s.log.Info("admin deleted", zap.Stringer("admin_id", id), zap.Stringer("actor_id", actorID))
	return nil
}

func (s *Service) ensureAnotherSuperAdmin(ctx context.Context) error {
	n, err := s.store.CountAdmins(ctx, models.RoleSuperAdmin)
	if err != nil {
		return apperr.Internal(err)
	}
	if n <= 1 {
		return apperr.Conflict("Harus ada minimal satu SUPERADMIN")
	}
	return nil
}
