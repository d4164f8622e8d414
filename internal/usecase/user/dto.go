package user

import (
	"time"

	domain "dbplayground/internal/domain/user"
)

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Age       int    `validate:"gte=0,lte=150"`
}

// FindUserRequest holds the conditions of a single-user lookup.
// Empty names and a nil Age are not part of the condition; at least one must be set.
type FindUserRequest struct {
	FirstName string
	LastName  string
	Age       *int `validate:"omitempty,gte=0,lte=150"`
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// UserResponse represents a user DTO (Data Transfer Object) for callers.
type UserResponse struct {
	ID        int64
	FirstName string
	LastName  string
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns the first and last name joined by a single space.
func (u UserResponse) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ListUsersResponse represents the response payload for the full user scan.
type ListUsersResponse struct {
	Users []UserResponse
}

func toResponse(u domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
