package database

import (
	"testing"
	"time"

	"campusforum/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db", DBPort: "5432", DBUser: "forum", DBPassword: "secret", DBName: "campus",
	}
	assert.Equal(t, "host=db port=5432 user=forum password=secret dbname=campus sslmode=disable", DSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")
}

func TestReadDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db", DBPort: "5432", DBUser: "forum", DBPassword: "secret", DBName: "campus",
	}
	assert.Empty(t, ReadDSN(cfg))

	cfg.DBReadHost = "replica"
	assert.Equal(t, "host=replica port=5432 user=forum password=secret dbname=campus sslmode=disable", ReadDSN(cfg))

	cfg.DBReadPort = "6432"
	cfg.DBReadUser = "reader"
	cfg.DBReadPassword = "ro"
	assert.Equal(t, "host=replica port=6432 user=reader password=ro dbname=campus sslmode=disable", ReadDSN(cfg))
}

func TestGetReadDB(t *testing.T) {
	prev := ReadDB
	t.Cleanup(func() { ReadDB = prev })

	ReadDB = nil
	assert.Nil(t, GetReadDB())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	ReadDB = db
	assert.Same(t, db, GetReadDB())
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(nil)
	assert.Equal(t, 200*time.Millisecond, l.Config.SlowThreshold)

	silent := l.LogMode(1).(*CustomGormLogger)
	assert.EqualValues(t, 1, silent.Config.LogLevel)
	assert.NotEqual(t, l.Config.LogLevel, silent.Config.LogLevel)

	// Silent never touches the (nil) slog logger.
	silent.Trace(t.Context(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
}
