package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.timestamp()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = s.timestamp()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) ListUsers(_ context.Context, params storage.ListParams) ([]models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.User
	for _, u := range s.users {
		if containsFold(u.Name, params.Search) {
			matched = append(matched, u)
		}
	}
	sortNewestFirst(matched, func(u models.User) (time.Time, uuid.UUID) { return u.CreatedAt, u.ID })
	return paginate(matched, params), len(matched), nil
}

func (s *Store) SearchUsers(_ context.Context, query string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []models.User{}
	for _, u := range s.users {
		if containsFold(u.Name, query) || containsFold(u.Phone, query) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return lessByName(matched[i].Name, matched[i].ID, matched[j].Name, matched[j].ID)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
