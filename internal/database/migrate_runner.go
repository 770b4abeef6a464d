package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campusforum/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog is a row of the schema_migrations table.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "schema_migrations"
}

// AppliedVersions lists the recorded migration versions in ascending order.
// A database that never ran a migration has none.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	versions := []int{}
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return versions, nil
	}
	err := db.WithContext(ctx).Model(&MigrationLog{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return versions, nil
}

// PendingMigrations returns the embedded migrations missing from applied. It
// fails when applied holds a version this build does not know, which means
// the database is ahead of the binary.
func PendingMigrations(applied []int) ([]Migration, error) {
	known := make(map[int]bool, len(migrations))
	for _, m := range migrations {
		known[m.Version] = true
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		if !known[v] {
			return nil, fmt.Errorf("schema_migrations has version %06d unknown to this build", v)
		}
		done[v] = true
	}

	var pending []Migration
	for _, m := range migrations {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// RunMigrations applies every pending embedded migration in version order.
// Each script and its schema_migrations row commit together.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	pending, err := PendingMigrations(applied)
	if err != nil {
		return err
	}

	for _, m := range pending {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.String(), err)
		}
		middleware.Logger.InfoContext(ctx, "migration applied", slog.String("migration", m.String()))
	}
	return nil
}

// RollbackLatest reverts the most recently applied migration and returns
// it, or nil when nothing has been applied.
func RollbackLatest(ctx context.Context, db *gorm.DB) (*Migration, error) {
	applied, err := AppliedVersions(ctx, db)
	if err != nil || len(applied) == 0 {
		return nil, err
	}

	m := GetMigrationByVersion(applied[len(applied)-1])
	if m == nil {
		return nil, fmt.Errorf("migration %06d is not part of this build", applied[len(applied)-1])
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", m.Version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("revert %s: %w", m.String(), err)
	}
	middleware.Logger.InfoContext(ctx, "migration reverted", slog.String("migration", m.String()))
	return m, nil
}
