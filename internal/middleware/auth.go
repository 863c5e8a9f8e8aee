package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/auth"
	"github.com/hongminglow/pw-ledger/internal/http/respond"
	"github.com/hongminglow/pw-ledger/internal/models"
)

// SessionResolver turns a raw token into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (auth.Session, error)
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an Authorization: Bearer header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticate rejects requests without a valid session and stores the
// session in the request context.
func Authenticate(resolver SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := resolver.Resolve(r.Context(), TokenFromRequest(r, cookieName))
			if err != nil {
				respond.Err(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// RequireRole allows only sessions with the given role.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := auth.FromContext(r.Context())
			if !ok {
				respond.Err(w, apperr.Unauthorized("Silakan login terlebih dahulu"))
				return
			}
			if session.Admin.Role != role {
				respond.Err(w, apperr.Forbidden("Anda tidak memiliki akses ke halaman ini"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
