package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campusforum/internal/config"
	"campusforum/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what the configured policy will do on startup.
type SchemaPlan struct {
	Mode string
	// SQL applies the embedded migrations.
	SQL bool
	// Auto runs gorm AutoMigrate after the SQL step.
	Auto bool
}

// SchemaStatus is a SchemaPlan plus migration bookkeeping.
type SchemaStatus struct {
	SchemaPlan
	Environment string
	Applied     []int
	Pending     []Migration
}

var prodLikeEnvs = map[string]bool{"production": true, "prod": true, "staging": true, "stage": true}

// planSchema resolves DB_SCHEMA_MODE against APP_ENV. Hybrid applies the SQL
// migrations everywhere and lets AutoMigrate add columns outside production.
func planSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	prodLike := prodLikeEnvs[strings.ToLower(strings.TrimSpace(cfg.Env))]

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL, plan.Auto = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto needs DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true in %q", cfg.Env)
		}
		plan.Auto = true
	default:
		return plan, fmt.Errorf("unknown DB_SCHEMA_MODE %q", cfg.DBSchemaMode)
	}
	return plan, nil
}

// AutoMigrate creates or extends the forum tables from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date according to the schema policy.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}
	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	if !plan.Auto {
		return nil
	}
	middleware.Logger.InfoContext(ctx, "auto-migrating models",
		slog.String("mode", plan.Mode),
		slog.Int("models", len(PersistentModels())),
	)
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan and, when SQL migrations are in play,
// the applied and pending versions.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan, Environment: cfg.Env}
	if !plan.SQL {
		return status, nil
	}

	if status.Applied, err = AppliedVersions(ctx, db); err != nil {
		return nil, err
	}
	if status.Pending, err = PendingMigrations(status.Applied); err != nil {
		return nil, err
	}
	return status, nil
}
