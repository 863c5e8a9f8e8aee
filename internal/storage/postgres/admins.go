package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

const adminColumns = `a.id, a.name, a.username, a.email, a.password_hash, a.role, a.created_at, a.updated_at`

// CreateAdmin inserts a new admin row.
func (s *Store) CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error) {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	const query = `
		INSERT INTO admins AS a (id, name, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + adminColumns
	row := s.pool.QueryRow(ctx, query, admin.ID, admin.Name, admin.Username, admin.Email, admin.PasswordHash, string(admin.Role))
	created, err := scanAdmin(row)
	return created, translate(err)
}

// GetAdmin fetches an admin by id.
func (s *Store) GetAdmin(ctx context.Context, id uuid.UUID) (models.Admin, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins a WHERE a.id = $1`, id)
	admin, err := scanAdmin(row)
	return admin, translate(err)
}

// FindAdminByUsername fetches an admin by username, case-insensitively.
func (s *Store) FindAdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins a WHERE lower(a.username) = lower($1)`, username)
	admin, err := scanAdmin(row)
	return admin, translate(err)
}

// UpdateAdmin overwrites the mutable fields of an admin. Username is never written.
func (s *Store) UpdateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error) {
	const query = `
		UPDATE admins AS a SET name = $2, email = $3, password_hash = $4, role = $5, updated_at = NOW()
		WHERE a.id = $1
		RETURNING ` + adminColumns
	row := s.pool.QueryRow(ctx, query, admin.ID, admin.Name, admin.Email, admin.PasswordHash, string(admin.Role))
	updated, err := scanAdmin(row)
	return updated, translate(err)
}

// DeleteAdmin removes an admin row.
func (s *Store) DeleteAdmin(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListAdmins pages through admins matching the search on name, username, or email.
func (s *Store) ListAdmins(ctx context.Context, params storage.ListParams) ([]models.Admin, int, error) {
	const where = `WHERE a.name ILIKE $1 OR a.username ILIKE $1 OR a.email ILIKE $1`
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins a `+where, params.Pattern()).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count admins: %w", err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins a `+where+`
		ORDER BY a.created_at DESC, a.id LIMIT $2 OFFSET $3`, params.Pattern(), params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()
	admins := []models.Admin{}
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, 0, err
		}
		admins = append(admins, admin)
	}
	return admins, total, rows.Err()
}

// CountAdmins counts admins with role, or all admins when role is empty.
func (s *Store) CountAdmins(ctx context.Context, role models.Role) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins WHERE $1 = '' OR role = $1`, string(role)).Scan(&n)
	return n, err
}

func scanAdmin(row pgx.Row) (models.Admin, error) {
	var admin models.Admin
	var role string
	if err := row.Scan(&admin.ID, &admin.Name, &admin.Username, &admin.Email, &admin.PasswordHash, &role, &admin.CreatedAt, &admin.UpdatedAt); err != nil {
		return models.Admin{}, err
	}
	admin.Role = models.Role(role)
	return admin, nil
}
