package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/pw-ledger/internal/accounts"
	"github.com/hongminglow/pw-ledger/internal/http/respond"
	"github.com/hongminglow/pw-ledger/internal/ledger"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/query"
)

const userNotFound = "User tidak ditemukan"

// UserHandler manages customers.
type UserHandler struct {
	accounts *accounts.Service
	ledger   *ledger.Service
	query    *query.Service
}

func NewUserHandler(accounts *accounts.Service, ledger *ledger.Service, query *query.Service) *UserHandler {
	return &UserHandler{accounts: accounts, ledger: ledger, query: query}
}

func (h *UserHandler) Register(r chi.Router) {
	r.Get("/user", h.handleList)
	r.Post("/user", h.handleCreate)
	r.Get("/user/search", h.handleSearch)
	r.Get("/user/{id}", h.handleGet)
	r.Put("/user/{id}", h.handleUpdate)
	r.Delete("/user/{id}", h.handleDelete)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.query.ListUsers(r.Context(), listInput(r))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.Page(w, "OK", page)
}

func (h *UserHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	users, err := h.query.SearchUsers(r.Context(), r.URL.Query().Get("query"), queryInt(r, "limit"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", users)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	user, err := h.accounts.CreateUser(r.Context(), req)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "User berhasil ditambahkan", user)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", userNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	user, err := h.query.GetUser(r.Context(), id)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "OK", user)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", userNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	var req dto.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Err(w, err)
		return
	}
	user, err := h.accounts.UpdateUser(r.Context(), id, req)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "User berhasil diperbarui", user)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", userNotFound)
	if err != nil {
		respond.Err(w, err)
		return
	}
	if err := h.ledger.DeleteUser(r.Context(), id); err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "User berhasil dihapus", nil)
}
