// Package memory is an in-process implementation of storage.Store used for
// local development and tests. Ledger transactions are serialized store-wide
// and journaled so a failing transaction leaves no trace.
package memory

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every entity in maps guarded by one RWMutex.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	admins   map[uuid.UUID]models.Admin
	cycles   map[uuid.UUID]models.DebtCycle
	items    map[uuid.UUID]models.DebtItem
	payments map[uuid.UUID]models.Payment
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		users:    make(map[uuid.UUID]models.User),
		admins:   make(map[uuid.UUID]models.Admin),
		cycles:   make(map[uuid.UUID]models.DebtCycle),
		items:    make(map[uuid.UUID]models.DebtItem),
		payments: make(map[uuid.UUID]models.Payment),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func containsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// paginate slices items for the page described by params.
func paginate[T any](items []T, params storage.ListParams) []T {
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if params.Limit > 0 && start+params.Limit < end {
		end = start + params.Limit
	}
	return items[start:end]
}

// sortNewestFirst orders items by time descending, then id ascending, matching
// the ORDER BY of the postgres store so pages never overlap.
func sortNewestFirst[T any](items []T, key func(T) (time.Time, uuid.UUID)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return bytes.Compare(idi[:], idj[:]) < 0
	})
}

// lessByName orders case-insensitively by name, then by id.
func lessByName(ni string, idi uuid.UUID, nj string, idj uuid.UUID) bool {
	if a, b := strings.ToLower(ni), strings.ToLower(nj); a != b {
		return a < b
	}
	return bytes.Compare(idi[:], idj[:]) < 0
}
