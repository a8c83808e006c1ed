package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/smartcooking/backend/config"
	"github.com/pageza/smartcooking/backend/internal/models"
)

func TestNewSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "smartcooking.db"),
	}

	db, err := New(cfg)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, RunMigrations(db))
	require.NoError(t, RunMigrations(db), "migrations must be repeatable")
	require.NoError(t, HealthCheck(context.Background(), db))

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasIndex(&models.SavedRecipe{}, "idx_saved_recipe_user"))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(&config.Config{StoreDriver: "cassandra"})
	assert.Error(t, err)
}
