package dto

type CreateUserRequest struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Phone   string  `json:"phone" validate:"required,phone"`
	Address *string `json:"address" validate:"omitempty,max=255"`
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,phone"`
	Address *string `json:"address" validate:"omitempty,max=255"`
}
