package dto

import (
	"encoding/json"

	"yamdb/internal/microservices/http-api/models"
)

// CreateUserRequest for POST /users. Role defaults to "user".
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,max=150,username"`
	Email     string `json:"email" binding:"required,max=254,email"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Bio       string `json:"bio" binding:"max=500"`
	Role      string `json:"role"`
}

// UpdateUserRequest is used by PATCH and PUT on /users/{username}.
// Nil fields are left unchanged; PUT additionally requires username and email.
type UpdateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=150,username"`
	Email     *string `json:"email" binding:"omitempty,max=254,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	Role      *string `json:"role"`
}

// UpdateMeRequest is PATCH /users/me. Role is accepted in any JSON form and
// dropped, so a caller cannot change their own role.
type UpdateMeRequest struct {
	Username  *string         `json:"username" binding:"omitempty,max=150,username"`
	Email     *string         `json:"email" binding:"omitempty,max=254,email"`
	FirstName *string         `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string         `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string         `json:"bio" binding:"omitempty,max=500"`
	Role      json.RawMessage `json:"role"`
}

// Update returns the profile fields of r with no role.
func (r UpdateMeRequest) Update() UpdateUserRequest {
	return UpdateUserRequest{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
	}
}

type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func UserFromModel(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
	}
}
