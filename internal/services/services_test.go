package services

import (
	"context"
	"testing"

	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/repositories"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

func newTestPool(t *testing.T) *database.DatabasePool {
	t.Helper()

	config := database.DefaultPoolConfig()
	config.Driver = database.DriverSQLite
	config.DSN = ":memory:"
	config.LogLevel = logger.Silent

	pool, err := database.NewDatabasePool(config)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, pool.Migrate(context.Background()))
	return pool
}

func newTestAuthService(t *testing.T) (*AuthServiceImpl, *repositories.GormUserRepository) {
	t.Helper()
	users := repositories.NewUserRepository(newTestPool(t).DB)
	return NewAuthService(users, bcrypt.MinCost, logging.Discard()), users
}
