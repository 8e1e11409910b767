package repositories

import (
	"testing"

	"github.com/fanloft-app/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the same error
// translation the production Postgres connection uses, so duplicate-key
// handling behaves identically.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A fresh in-memory database exists per connection; pin the pool to one
	// so every query sees the migrated schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.CommentLike{},
		&models.PostLike{},
		&models.Subscription{},
		&models.Notification{},
	))
	return db
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }
