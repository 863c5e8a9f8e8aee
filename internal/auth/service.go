// Package auth authenticates admins and issues the session tokens that the
// HTTP layer carries in a cookie.
package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

const invalidCredentials = "Username atau password salah"

// Service verifies credentials and resolves sessions from tokens.
type Service struct {
	admins storage.AdminStore
	tokens *TokenManager
	log    *zap.Logger
}

// NewService constructs the authentication service.
func NewService(admins storage.AdminStore, tokens *TokenManager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{admins: admins, tokens: tokens, log: log}
}

// Login checks username and password and returns the admin with a fresh token.
// Unknown usernames and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, username, password string) (models.Admin, string, error) {
	admin, err := s.admins.FindAdminByUsername(ctx, strings.TrimSpace(username))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		CheckPassword(string(dummyHash), password)
		s.log.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown username"))
		return models.Admin{}, "", apperr.Unauthorized(invalidCredentials)
	case err != nil:
		return models.Admin{}, "", apperr.Internal(err)
	}
	if !CheckPassword(admin.PasswordHash, password) {
		s.log.Info("login rejected", zap.String("username", username), zap.String("reason", "wrong password"))
		return models.Admin{}, "", apperr.Unauthorized(invalidCredentials)
	}
	token, err := s.tokens.Generate(admin)
	if err != nil {
		return models.Admin{}, "", apperr.Internal(err)
	}
	s.log.Info("admin logged in", zap.Stringer("admin_id", admin.ID))
	return admin, token, nil
}

// Resolve verifies a token and re-reads the admin it belongs to, so deleted
// accounts and role changes take effect on the next request.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, apperr.Unauthorized("Silakan login terlebih dahulu")
	}
	id, _, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, apperr.Unauthorized("Sesi tidak valid, silakan login kembali")
	}
	admin, err := s.admins.GetAdmin(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return Session{}, apperr.Unauthorized("Sesi tidak valid, silakan login kembali")
	case err != nil:
		return Session{}, apperr.Internal(err)
	}
	return Session{Admin: admin}, nil
}
