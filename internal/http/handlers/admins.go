package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/pw-ledger/internal/accounts"
	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/auth"
	"github.com/hongminglow/pw-ledger/internal/http/respond"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/query"
)

const adminNotFound = "Admin tidak ditemukan"

// AdminHandler manages operator accounts. Mount it behind RequireRole(SUPERADMIN).
type AdminHandler struct {
	accounts *accounts.Service
	query    *query.Service
}

func NewAdminHandler(accounts *accounts.Service, query *query.Service) *AdminHandler {
	return &AdminHandler{accounts: accounts, query: query}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/admin", h.handleList)
	r.Post("/admin", h.handleCreate)
	r.Get("/admin/{id}", h.handleGet)
	r.Put("/admin/{id}", h.handleUpdate)
	r.Delete("/admin/{id}", h.handleDelete)
}

func (h *AdminHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.query.ListAdmins(r.Context(), listInput(r))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.Page(w, "OK", page)
}

func (h *AdminHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	admin, err := h.accounts.CreateAdmin(r.Context(), req)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "Admin berhasil ditambahkan", admin)
}

func (h *AdminHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", adminNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	admin, err := h.accounts.GetAdmin(r.Context(), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", admin)
}

func (h *AdminHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", adminNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	var req dto.UpdateAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	admin, err := h.accounts.UpdateAdmin(r.Context(), id, req)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Admin berhasil diperbarui", admin)
}

func (h *AdminHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", adminNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	session, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Err(w, apperr.Unauthorized("Silakan login terlebih dahulu"))
		return
	}
	if err := h.accounts.DeleteAdmin(r.Context(), session.Admin.ID, id); err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Admin berhasil dihapus", nil)
}
