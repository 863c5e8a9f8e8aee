package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a customer whose debts are tracked by the ledger.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRef is the compact user shape embedded in cycle and payment listings.
type UserRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
