// Package database opens the gorm connections and owns the schema.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campusforum/internal/config"
	"campusforum/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the primary connection.
var DB *gorm.DB

// ReadDB is the optional read replica used by analytics queries.
var ReadDB *gorm.DB

// GetReadDB returns the read replica, or nil when none is configured.
func GetReadDB() *gorm.DB {
	return ReadDB
}

// CustomGormLogger integrates GORM with slog
type CustomGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger logs warnings and slow queries through l.
func NewGormLogger(l *slog.Logger) *CustomGormLogger {
	return &CustomGormLogger{
		logger: l,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	}
}

// LogMode sets the logging level and returns a new interface instance.
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs failed and slow statements, and every statement at Info level.
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error &&
		!(l.Config.IgnoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound)):
		l.logger.ErrorContext(ctx, "gorm query error", append(attrs, slog.String("error", err.Error()))...)
	case l.Config.SlowThreshold != 0 && elapsed > l.Config.SlowThreshold && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "gorm slow query", attrs...)
	case l.Config.LogLevel >= logger.Info:
		l.logger.DebugContext(ctx, "gorm query", attrs...)
	}
}

// DSN builds the libpq connection string for the primary database.
func DSN(cfg *config.Config) string {
	return buildDSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
}

// ReadDSN builds the replica connection string. Unset replica fields fall
// back to the primary's. It returns "" when no replica host is configured.
func ReadDSN(cfg *config.Config) string {
	if cfg.DBReadHost == "" {
		return ""
	}
	port, user, password := cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword
	if port == "" {
		port = cfg.DBPort
	}
	if user == "" {
		user = cfg.DBUser
		password = cfg.DBPassword
	}
	return buildDSN(cfg.DBReadHost, port, user, password, cfg.DBName, cfg.DBSSLMode)
}

func buildDSN(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode)
}

// Connect opens the primary connection and, when configured, the read
// replica. A replica that cannot be reached is logged and skipped.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: NewGormLogger(middleware.Logger)}

	primary, err := gorm.Open(postgres.Open(DSN(cfg)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configurePool(primary, cfg); err != nil {
		return nil, err
	}
	middleware.Logger.Info("database connected", slog.String("host", cfg.DBHost), slog.String("name", cfg.DBName))

	ReadDB = nil
	if dsn := ReadDSN(cfg); dsn != "" {
		replica, err := gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			err = configurePool(replica, cfg)
		}
		if err != nil {
			middleware.Logger.Warn("read replica unavailable, analytics will use the primary",
				slog.String("host", cfg.DBReadHost), slog.String("error", err.Error()))
		} else {
			ReadDB = replica
			middleware.Logger.Info("read replica connected", slog.String("host", cfg.DBReadHost))
		}
	}

	DB = primary
	return DB, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute)
	return nil
}

// Close releases the primary and replica pools.
func Close() {
	for _, db := range []*gorm.DB{DB, ReadDB} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
