package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/auth"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	return appErr
}

func newAdmin(t *testing.T, svc *Service, username string, role models.Role) models.Admin {
	t.Helper()
	admin, err := svc.CreateAdmin(context.Background(), dto.CreateAdminRequest{
		Name:     "Admin " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "rahasia",
		Role:     string(role),
	})
	require.NoError(t, err)
	return admin
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(memory.New(), nil)
	_, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{Name: "  ", Phone: "abc"})
	appErr := requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, []string{"Nama wajib diisi"}, appErr.Fields["name"])
	assert.Equal(t, []string{"Format nomor telepon tidak valid"}, appErr.Fields["phone"])

	user, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{Name: " Budi ", Phone: "081234567890", Address: ptr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "Budi", user.Name)
	assert.Nil(t, user.Address)
}

func TestUpdateUserPartial(t *testing.T) {
	svc := NewService(memory.New(), nil)
	ctx := context.Background()
	user, err := svc.CreateUser(ctx, dto.CreateUserRequest{Name: "Budi", Phone: "081234567890", Address: ptr("Jl. Mawar 1")})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, user.ID, dto.UpdateUserRequest{Phone: ptr("+628111111111")})
	require.NoError(t, err)
	assert.Equal(t, "Budi", updated.Name)
	assert.Equal(t, "+628111111111", updated.Phone)
	require.NotNil(t, updated.Address)

	updated, err = svc.UpdateUser(ctx, user.ID, dto.UpdateUserRequest{Address: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Address)

	_, err = svc.UpdateUser(ctx, user.ID, dto.UpdateUserRequest{Name: ptr(" ")})
	requireKind(t, err, apperr.KindValidation)
}

func TestCreateAdminUniqueness(t *testing.T) {
	svc := NewService(memory.New(), nil)
	ctx := context.Background()
	root := newAdmin(t, svc, "root", models.RoleSuperAdmin)
	assert.NotEqual(t, "rahasia", root.PasswordHash)
	assert.True(t, auth.CheckPassword(root.PasswordHash, "rahasia"))

	_, err := svc.CreateAdmin(ctx, dto.CreateAdminRequest{Name: "X", Username: "ROOT", Email: "x@example.com", Password: "rahasia"})
	appErr := requireKind(t, err, apperr.KindConflict)
	assert.Contains(t, appErr.Fields, "username")

	_, err = svc.CreateAdmin(ctx, dto.CreateAdminRequest{Name: "X", Username: "x", Email: "x@example.com", Password: "123"})
	appErr = requireKind(t, err, apperr.KindValidation)
	assert.Contains(t, appErr.Fields, "username")
	assert.Equal(t, []string{"Password minimal 6 karakter"}, appErr.Fields["password"])

	kasir, err := svc.CreateAdmin(ctx, dto.CreateAdminRequest{Name: "Kasir", Username: "kasir", Email: "kasir@example.com", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, kasir.Role)
}

func TestUpdateAdminRules(t *testing.T) {
	svc := NewService(memory.New(), nil)
	ctx := context.Background()
	root := newAdmin(t, svc, "root", models.RoleSuperAdmin)

	_, err := svc.UpdateAdmin(ctx, root.ID, dto.UpdateAdminRequest{Username: ptr("boss")})
	appErr := requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, []string{"Username tidak dapat diubah"}, appErr.Fields["username"])

	_, err = svc.UpdateAdmin(ctx, root.ID, dto.UpdateAdminRequest{Username: ptr("root"), Name: ptr("Root")})
	require.NoError(t, err, "unchanged username is accepted")

	_, err = svc.UpdateAdmin(ctx, root.ID, dto.UpdateAdminRequest{Role: ptr("ADMIN")})
	requireKind(t, err, apperr.KindConflict)

	newAdmin(t, svc, "second", models.RoleSuperAdmin)
	demoted, err := svc.UpdateAdmin(ctx, root.ID, dto.UpdateAdminRequest{Role: ptr("admin"), Password: ptr("baru123")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, demoted.Role)
	assert.True(t, auth.CheckPassword(demoted.PasswordHash, "baru123"))
}

func TestDeleteAdminRules(t *testing.T) {
	svc := NewService(memory.New(), nil)
	ctx := context.Background()
	root := newAdmin(t, svc, "root", models.RoleSuperAdmin)
	kasir := newAdmin(t, svc, "kasir", models.RoleAdmin)

	requireKind(t, svc.DeleteAdmin(ctx, root.ID, root.ID), apperr.KindConflict)
	requireKind(t, svc.DeleteAdmin(ctx, kasir.ID, root.ID), apperr.KindConflict)

	require.NoError(t, svc.DeleteAdmin(ctx, root.ID, kasir.ID))
	requireKind(t, svc.DeleteAdmin(ctx, root.ID, kasir.ID), apperr.KindNotFound)
}

func TestEnsureSuperAdmin(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil)
	ctx := context.Background()

	created, err := svc.EnsureSuperAdmin(ctx, Bootstrap{})
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureSuperAdmin(ctx, Bootstrap{Username: "owner", Password: "rahasia"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureSuperAdmin(ctx, Bootstrap{Username: "owner2", Password: "rahasia"})
	require.NoError(t, err)
	assert.False(t, created)

	owner, err := store.FindAdminByUsername(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, owner.Role)
}
