package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/validation"
)

const userNotFound = "User tidak ditemukan"

// CreateUser registers a customer.
func (s *Service) CreateUser(ctx context.Context, req dto.CreateUserRequest) (models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = trimmed(req.Address)
	if err := validation.Struct(req); err != nil {
		return models.User{}, err
	}
	user, err := s.store.CreateUser(ctx, models.User{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return models.User{}, storeErr(err, userNotFound)
	}
	s.log.Info("user created", zap.Stringer("user_id", user.ID))
	s.changed(ctx)
	return user, nil
}

// UpdateUser applies a partial update. An empty address clears it.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (models.User, error) {
	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		if v == "" {
			return models.User{}, apperr.Validation("name", "Nama wajib diisi")
		}
		req.Name = &v
	}
	if req.Phone != nil {
		v := strings.TrimSpace(*req.Phone)
		req.Phone = &v
	}
	if err := validation.Struct(req); err != nil {
		return models.User{}, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, storeErr(err, userNotFound)
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = trimmed(req.Address)
	}
	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return models.User{}, storeErr(err, userNotFound)
	}
	s.log.Info("user updated", zap.Stringer("user_id", id))
	s.changed(ctx)
	return updated, nil
}
