package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

func (s *Store) CreateAdmin(_ context.Context, admin models.Admin) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAdminUnique(admin); err != nil {
		return models.Admin{}, err
	}
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	now := s.timestamp()
	admin.CreatedAt, admin.UpdatedAt = now, now
	s.admins[admin.ID] = admin
	return admin, nil
}

func (s *Store) GetAdmin(_ context.Context, id uuid.UUID) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[id]
	if !ok {
		return models.Admin{}, storage.ErrNotFound
	}
	return admin, nil
}

func (s *Store) FindAdminByUsername(_ context.Context, username string) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return models.Admin{}, storage.ErrNotFound
}

func (s *Store) UpdateAdmin(_ context.Context, admin models.Admin) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.admins[admin.ID]
	if !ok {
		return models.Admin{}, storage.ErrNotFound
	}
	if err := s.checkAdminUnique(admin); err != nil {
		return models.Admin{}, err
	}
	admin.CreatedAt = existing.CreatedAt
	admin.UpdatedAt = s.timestamp()
	s.admins[admin.ID] = admin
	return admin, nil
}

func (s *Store) DeleteAdmin(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.admins, id)
	return nil
}

func (s *Store) ListAdmins(_ context.Context, params storage.ListParams) ([]models.Admin, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.Admin
	for _, a := range s.admins {
		if containsFold(a.Name, params.Search) || containsFold(a.Username, params.Search) || containsFold(a.Email, params.Search) {
			matched = append(matched, a)
		}
	}
	sortNewestFirst(matched, func(a models.Admin) (time.Time, uuid.UUID) { return a.CreatedAt, a.ID })
	return paginate(matched, params), len(matched), nil
}

func (s *Store) CountAdmins(_ context.Context, role models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.admins {
		if role == "" || a.Role == role {
			n++
		}
	}
	return n, nil
}

// checkAdminUnique must be called with mu held.
func (s *Store) checkAdminUnique(admin models.Admin) error {
	for _, other := range s.admins {
		if other.ID == admin.ID {
			continue
		}
		if strings.EqualFold(other.Username, admin.Username) {
			return &storage.UniqueError{Field: "username"}
		}
		if strings.EqualFold(other.Email, admin.Email) {
			return &storage.UniqueError{Field: "email"}
		}
	}
	return nil
}
