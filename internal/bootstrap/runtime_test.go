package bootstrap

import (
	"context"
	"testing"

	"campusforum/internal/auth"
	"campusforum/internal/config"
	"campusforum/internal/models"
	"campusforum/internal/seed"
	"campusforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDevAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("skipped outside development", func(t *testing.T) {
		db := testutil.NewDB(t)
		cfg := &config.Config{Env: "production", SeedDemoPassword: "orientation-9"}
		require.NoError(t, ensureDevAdmin(ctx, cfg, db))

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("skipped without password", func(t *testing.T) {
		db := testutil.NewDB(t)
		require.NoError(t, ensureDevAdmin(ctx, &config.Config{Env: "development"}, db))

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("creates then repairs admin", func(t *testing.T) {
		db := testutil.NewDB(t)
		cfg := &config.Config{Env: "development", SeedDemoPassword: "orientation-9"}
		require.NoError(t, ensureDevAdmin(ctx, cfg, db))

		var admin models.User
		require.NoError(t, db.Where("email = ?", seed.AdminEmail).First(&admin).Error)
		assert.Equal(t, models.RoleAdmin, admin.Role)
		assert.True(t, auth.CheckPassword(admin.Password, "orientation-9"))

		require.NoError(t, db.Model(&admin).Updates(map[string]any{"role": models.RoleStudent, "is_active": false}).Error)
		require.NoError(t, ensureDevAdmin(ctx, cfg, db))

		require.NoError(t, db.First(&admin, admin.ID).Error)
		assert.Equal(t, models.RoleAdmin, admin.Role)
		assert.True(t, admin.IsActive)
	})
}
