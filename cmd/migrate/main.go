// Command migrate manages the forum schema.
//
//	migrate up      apply pending SQL migrations
//	migrate auto    run gorm AutoMigrate for the persistent models
//	migrate status  show the schema policy and pending versions
//	migrate down    revert the newest applied migration
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"campusforum/internal/bootstrap"
	"campusforum/internal/config"
	"campusforum/internal/database"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <up|auto|status|down>")

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, out io.Writer) error

var commands = map[string]command{
	"up":     migrateUp,
	"auto":   migrateAuto,
	"status": migrateStatus,
	"down":   migrateDown,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(os.Args[1]))]
	if !ok {
		fmt.Fprintln(os.Stderr, errUsage)
		os.Exit(2)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, bootstrap.Options{ServiceName: "campusforum-migrate", SkipRedis: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = cmd(ctx, rt.DB, rt.Config, os.Stdout)
	rt.Close(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, out io.Writer) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "migrations applied")
	return err
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, out io.Writer) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "auto-migrated %d models\n", len(database.PersistentModels()))
	return err
}

func migrateStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, out io.Writer) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "mode\t%s\n", status.Mode)
	fmt.Fprintf(w, "environment\t%s\n", status.Environment)
	fmt.Fprintf(w, "sql migrations\t%t\n", status.SQL)
	fmt.Fprintf(w, "auto migrate\t%t\n", status.Auto)
	fmt.Fprintf(w, "applied\t%v\n", status.Applied)
	for _, m := range status.Pending {
		fmt.Fprintf(w, "pending\t%s\n", m.String())
	}
	return w.Flush()
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, out io.Writer) error {
	m, err := database.RollbackLatest(ctx, db)
	if err != nil {
		return err
	}
	if m == nil {
		_, err = fmt.Fprintln(out, "no applied migrations")
		return err
	}
	_, err = fmt.Fprintf(out, "reverted %s\n", m.String())
	return err
}
