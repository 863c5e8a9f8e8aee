package dto

import "github.com/hongminglow/pw-ledger/internal/models"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User models.Admin `json:"user"`
}
