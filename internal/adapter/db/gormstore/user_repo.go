package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dbplayground/internal/domain/user"
)

// ErrEmptyFilter is returned by FindOne when the filter has no conditions.
var ErrEmptyFilter = errors.New("filter cannot be empty")

// UserRepo implements the user Repository on top of GORM.
// It is driver-agnostic; the dialector is chosen when the *gorm.DB is opened.
type UserRepo struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	FirstName string    `gorm:"size:100;not null;index"`
	LastName  string    `gorm:"size:100;not null"`
	Age       int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (s UserSchema) toDomain() user.User {
	return user.User{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Age:       s.Age,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Migrate creates or updates the users table.
func (r *UserRepo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&UserSchema{}); err != nil {
		r.log.Error("failed to migrate users table", zap.Error(err))
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	r.log.Debug("users table migrated")
	return nil
}

// Create inserts a new user and returns the stored record with ID and timestamps set.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := UserSchema{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("first_name", u.FirstName))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	created := model.toDomain()
	return &created, nil
}

// FindOne returns the user with the lowest ID matching every condition in f.
// It returns (nil, nil) when nothing matches.
func (r *UserRepo) FindOne(ctx context.Context, f user.Filter) (*user.User, error) {
	if f.IsEmpty() {
		return nil, ErrEmptyFilter
	}

	conds := map[string]any{}
	if f.FirstName != "" {
		conds["first_name"] = f.FirstName
	}
	if f.LastName != "" {
		conds["last_name"] = f.LastName
	}
	if f.Age != nil {
		conds["age"] = *f.Age
	}

	var model UserSchema
	if err := r.db.WithContext(ctx).Where(conds).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("no user matches filter", zap.String("filter", f.Key()))
			return nil, nil
		}
		r.log.Error("failed to find user in db", zap.Error(err), zap.String("filter", f.Key()))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	found := model.toDomain()
	return &found, nil
}

// FindByID retrieves a user by primary key. It returns (nil, nil) when the ID does not exist.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	found := model.toDomain()
	return &found, nil
}

// FindAll returns every user ordered by ID. An empty table yields an empty slice.
func (r *UserRepo) FindAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}

	return users, nil
}

// Count returns the number of rows in the users table.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Count(&n).Error; err != nil {
		r.log.Error("failed to count users", zap.Error(err))
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
