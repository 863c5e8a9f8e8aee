package auth

import (
	"context"

	"github.com/hongminglow/pw-ledger/internal/models"
)

// Session is the authenticated admin resolved for one request.
type Session struct {
	Admin models.Admin
}

// IsSuperAdmin reports whether the session may manage admins.
func (s Session) IsSuperAdmin() bool {
	return s.Admin.Role == models.RoleSuperAdmin
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session placed by the authentication middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
