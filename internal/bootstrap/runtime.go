// Package bootstrap wires the runtime shared by the command binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusforum/internal/auth"
	"campusforum/internal/cache"
	"campusforum/internal/config"
	"campusforum/internal/database"
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/observability"
	"campusforum/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ServiceName string
	// ApplySchema runs the configured schema policy after connecting.
	ApplySchema bool
	// SkipRedis leaves Runtime.Redis nil for tools that never need it.
	SkipRedis    bool
	SeedBuiltIns bool
}

// Runtime holds the process-wide dependencies.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime loads configuration, installs the logger and tracer, connects
// to the database and Redis and optionally seeds the built-in categories.
func InitRuntime(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return InitRuntimeWithConfig(ctx, cfg, opts)
}

// InitRuntimeWithConfig is InitRuntime for an already loaded config.
func InitRuntimeWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	name := opts.ServiceName
	if name == "" {
		name = "campusforum-api"
	}
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    name,
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, shutdownTracing: shutdown}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	if !opts.SkipRedis {
		// May leave a nil client when Redis is unreachable.
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	if err := ensureDevAdmin(ctx, cfg, db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedBuiltIns {
		if _, err := seed.Categories(db.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("failed to seed built-in categories: %w", err)
		}
		if _, err := seed.Tags(db.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("failed to seed built-in tags: %w", err)
		}
	}

	return rt, nil
}

// Close flushes traces and releases the database and Redis connections.
func (r *Runtime) Close(ctx context.Context) {
	if r.shutdownTracing != nil {
		if err := r.shutdownTracing(ctx); err != nil {
			middleware.Logger.Error("tracer shutdown failed", "error", err.Error())
		}
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	database.Close()
}

// ensureDevAdmin makes sure a development database always has an admin
// account to log in with. It only runs in development with
// SEED_DEMO_PASSWORD set.
func ensureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || cfg.SeedDemoPassword == "" {
		return nil
	}

	hashed, err := auth.HashPassword(cfg.SeedDemoPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("email = ?", seed.AdminEmail).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				Email:     seed.AdminEmail,
				Password:  hashed,
				FirstName: "Campus",
				LastName:  "Admin",
				Role:      models.RoleAdmin,
				IsActive:  true,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		}
		return tx.Model(&models.User{}).Where("id = ?", admin.ID).
			Updates(map[string]any{"role": models.RoleAdmin, "is_active": true}).Error
	})
	if err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "development admin ensured", "email", seed.AdminEmail)
	return nil
}
