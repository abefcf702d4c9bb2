// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/config"
	"github.com/javajoker/coopmarket-backend/internal/database"
	"github.com/javajoker/coopmarket-backend/internal/models"
)

// NewTestDB opens a private in-memory SQLite database with the schema migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Initialize(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel:   "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	t.Cleanup(func() { database.Close(db) })
	return db
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Name:  string(role) + " user",
		Email: uuid.NewString() + "@example.com",
		Role:  role,
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)
	return user
}
