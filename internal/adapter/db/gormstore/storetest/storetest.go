// Package storetest opens throwaway in-memory stores for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dbplayground/internal/adapter/db/gormstore"
	"dbplayground/internal/domain/user"
)

// OpenDB returns a migrated in-memory SQLite database closed at test cleanup.
// The pool is pinned to one connection because every new connection to
// ":memory:" would otherwise see its own empty database.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&gormstore.UserSchema{}))
	return db
}

// NewRepo returns a UserRepo over a fresh in-memory database.
func NewRepo(t testing.TB) *gormstore.UserRepo {
	t.Helper()
	return gormstore.NewUserRepo(OpenDB(t), zaptest.NewLogger(t))
}

// Seed inserts users in order and returns them as stored.
func Seed(t testing.TB, repo *gormstore.UserRepo, users ...user.User) []user.User {
	t.Helper()

	stored := make([]user.User, 0, len(users))
	for i := range users {
		created, err := repo.Create(context.Background(), &users[i])
		require.NoError(t, err)
		stored = append(stored, *created)
	}
	return stored
}
