package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/auth"
	"github.com/hongminglow/pw-ledger/internal/http/respond"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/validation"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
	TTL    time.Duration
}

func (c CookieConfig) cookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if c.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	}
}

// AuthHandler owns login, logout and session introspection.
type AuthHandler struct {
	svc    *auth.Service
	cookie CookieConfig
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc *auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

// RegisterPublic attaches the routes that need no session.
func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
}

// Register attaches the routes that need a session.
func (h *AuthHandler) Register(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		respond.Err(w, err)
		return
	}
	admin, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.Err(w, err)
		return
	}
	http.SetCookie(w, h.cookie.cookie(token, int(h.cookie.TTL.Seconds())))
	respond.JSON(w, http.StatusOK, "Login berhasil", dto.LoginResponse{User: admin})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie.cookie("", -1))
	respond.JSON(w, http.StatusOK, "Logout berhasil", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Err(w, apperr.Unauthorized("Silakan login terlebih dahulu"))
		return
	}
	respond.JSON(w, http.StatusOK, "OK", dto.LoginResponse{User: session.Admin})
}
