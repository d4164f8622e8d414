package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "dbplayground/internal/domain/user"
	pkgerrors "dbplayground/pkg/errors"
	"dbplayground/pkg/logger"
	"dbplayground/pkg/security"
)

// Repository defines the interface for user data access operations.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)  // Create a new user
	FindOne(ctx context.Context, f domain.Filter) (*domain.User, error) // First user matching f, by ID
	FindByID(ctx context.Context, id int64) (*domain.User, error)       // Retrieve user by ID
	FindAll(ctx context.Context) ([]domain.User, error)                 // Every user, by ID
	Count(ctx context.Context) (int64, error)                           // Number of users
}

// Service implements the business logic for user operations.
// It sits between the transports (script, HTTP) and the data layer.
type Service struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

var _ Usecase = (*Service)(nil)

// New creates a new Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a human-readable error.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		case "gte":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "lte":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
}

// requiredName applies the lookup name rule to a stored name, which must not be blank.
func requiredName(field, name string) (string, error) {
	clean, err := security.ValidateName(name)
	if err != nil {
		return "", pkgerrors.NewValidationError(field, err.Error())
	}
	if clean == "" {
		return "", pkgerrors.NewValidationError(field, fmt.Sprintf("%s is required", field))
	}
	return clean, nil
}

// CreateUser validates the request and stores a new user.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*UserResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("creating user", zap.String("first_name", in.FirstName), zap.String("last_name", in.LastName), zap.Int("age", in.Age))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	firstName, err := requiredName("FirstName", in.FirstName)
	if err != nil {
		log.Warn("invalid first name", zap.Error(err))
		return nil, err
	}
	lastName, err := requiredName("LastName", in.LastName)
	if err != nil {
		log.Warn("invalid last name", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.User{
		FirstName: firstName,
		LastName:  lastName,
		Age:       in.Age,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	return toResponse(*created), nil
}

// FindUser returns the first user, by ID, matching every condition of the request.
// A request without conditions is a validation error; no match is a NotFoundError.
func (s *Service) FindUser(ctx context.Context, in FindUserRequest) (*UserResponse, error) {
	log := logger.WithContext(ctx, s.log)

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	firstName, err := security.ValidateName(in.FirstName)
	if err != nil {
		log.Warn("invalid first name filter", zap.String("first_name", in.FirstName), zap.Error(err))
		return nil, pkgerrors.NewValidationError("FirstName", err.Error())
	}
	lastName, err := security.ValidateName(in.LastName)
	if err != nil {
		log.Warn("invalid last name filter", zap.String("last_name", in.LastName), zap.Error(err))
		return nil, pkgerrors.NewValidationError("LastName", err.Error())
	}

	filter := domain.Filter{FirstName: firstName, LastName: lastName, Age: in.Age}
	if filter.IsEmpty() {
		log.Warn("find user without conditions")
		return nil, pkgerrors.NewValidationError("", "at least one lookup condition is required")
	}

	log.Info("finding user", zap.String("filter", filter.Key()))

	u, err := s.repo.FindOne(ctx, filter)
	if err != nil {
		log.Error("failed to find user", zap.String("filter", filter.Key()), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to find user", err)
	}
	if u == nil {
		return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("no user matches %s", filter.Key()))
	}

	return toResponse(*u), nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*UserResponse, error) {
	log := logger.WithContext(ctx, s.log)

	if in.ID <= 0 {
		log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, pkgerrors.NewValidationError("ID", "invalid user id")
	}

	u, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", in.ID))
	}

	return toResponse(*u), nil
}

// ListUsers returns every user in store order.
func (s *Service) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("listing users")

	domainUsers, err := s.repo.FindAll(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]UserResponse, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = *toResponse(du)
	}

	return &ListUsersResponse{Users: users}, nil
}

// CountUsers returns the number of stored users.
func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to count users", zap.Error(err))
		return 0, pkgerrors.NewInternalError("failed to count users", err)
	}
	return n, nil
}
