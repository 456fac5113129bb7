package dto

import (
	"time"

	"github.com/educore-labs/educore-api/internal/models"
)

// UserResponse is the public representation of a user account.
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UserLite summarizes a user in nested responses.
type UserLite struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UserListRequest carries listing filters for the admin user index.
type UserListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
	Role     string `query:"role" validate:"omitempty,oneof=admin lecturer student"`
	Search   string `query:"search"`
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// UserUpdateRequest carries profile fields a user may change about
// themselves. Role is deliberately absent.
type UserUpdateRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=150"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
	Bio         *string `json:"bio"`
}

// UserRoleUpdateRequest is the admin-only role change payload.
type UserRoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=admin lecturer student"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:          model.ID,
		Email:       model.Email,
		Role:        model.Role,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		FullName:    model.FullName(),
		PhoneNumber: model.PhoneNumber,
		Bio:         model.Bio,
		Active:      model.Active,
		LastLoginAt: model.LastLoginAt,
		CreatedAt:   model.CreatedAt,
	}
}

// NewUserLite converts a User model into its nested summary form.
func NewUserLite(model models.User) UserLite {
	return UserLite{
		ID:       model.ID,
		Email:    model.Email,
		FullName: model.FullName(),
		Role:     model.Role,
	}
}
