package dto

type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN SUPERADMIN"`
}

// UpdateAdminRequest carries username only so a changed value can be rejected.
type UpdateAdminRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Username *string `json:"username"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN SUPERADMIN"`
}
