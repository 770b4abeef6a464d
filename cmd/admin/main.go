// Package main provides operator commands for campus forum accounts and
// statistics.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"campusforum/internal/auth"
	"campusforum/internal/authz"
	"campusforum/internal/bootstrap"
	"campusforum/internal/featureflags"
	"campusforum/internal/models"
	"campusforum/internal/repository"
	"campusforum/internal/service"

	"gopkg.in/yaml.v3"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <email> [ADMIN|PROFESSOR]  - Grant a moderator role (default PROFESSOR)")
	fmt.Println("  go run ./cmd/admin demote <email>                     - Set the role back to STUDENT")
	fmt.Println("  go run ./cmd/admin deactivate <email>                 - Block the account from logging in")
	fmt.Println("  go run ./cmd/admin list-moderators                    - List admins and professors")
	fmt.Println("  go run ./cmd/admin export-stats [file]                - Write platform statistics as YAML")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, bootstrap.Options{ServiceName: "campusforum-admin", SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	store := repository.NewStore(rt.DB)
	svc := service.New(store, auth.NewIssuer(auth.SettingsFromConfig(rt.Config)), featureflags.NewManager(rt.Config.FeatureFlags), time.Now)

	if err := run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, svc *service.Services, args []string, out io.Writer) error {
	command := args[0]
	switch command {
	case "promote":
		if len(args) < 2 {
			return fmt.Errorf("usage: promote <email> [ADMIN|PROFESSOR]")
		}
		role := models.RoleProfessor
		if len(args) > 2 {
			role = models.Role(args[2])
		}
		if !role.IsModerator() {
			return fmt.Errorf("promote takes ADMIN or PROFESSOR, got %q", role)
		}
		user, err := svc.Users.SetRole(ctx, args[1], role)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "Promoted %s (ID: %d) to %s\n", user.Email, user.ID, user.Role)
		return err

	case "demote":
		if len(args) < 2 {
			return fmt.Errorf("usage: demote <email>")
		}
		user, err := svc.Users.SetRole(ctx, args[1], models.RoleStudent)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "Demoted %s (ID: %d) to %s\n", user.Email, user.ID, user.Role)
		return err

	case "deactivate":
		if len(args) < 2 {
			return fmt.Errorf("usage: deactivate <email>")
		}
		user, err := svc.Users.Deactivate(ctx, args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "Deactivated %s (ID: %d)\n", user.Email, user.ID)
		return err

	case "list-moderators":
		users, err := svc.Users.ListModerators(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			_, err = fmt.Fprintln(out, "No moderators found")
			return err
		}
		for _, u := range users {
			if _, err := fmt.Fprintf(out, "ID: %d | %-9s | %s | %s\n", u.ID, u.Role, u.Email, u.FullName()); err != nil {
				return err
			}
		}
		return nil

	case "export-stats":
		// Operators act with admin rights.
		stats, err := svc.Analytics.Platform(ctx, &authz.Principal{Role: models.RoleAdmin})
		if err != nil {
			return err
		}
		w := out
		if len(args) > 1 {
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(stats); err != nil {
			return err
		}
		return enc.Close()

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
