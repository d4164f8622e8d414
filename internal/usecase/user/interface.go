package user

import "context"

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*UserResponse, error)
	FindUser(ctx context.Context, in FindUserRequest) (*UserResponse, error)
	GetUser(ctx context.Context, in GetUserRequest) (*UserResponse, error)
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	CountUsers(ctx context.Context) (int64, error)
}
