// Command seed fills the database with a demo campus.
package main

import (
	"context"
	"flag"
	"log"

	"campusforum/internal/bootstrap"
	"campusforum/internal/seed"
)

func main() {
	professors := flag.Int("professors", 3, "Number of professors to create")
	students := flag.Int("students", 12, "Number of students to create")
	postsPerCategory := flag.Int("posts", 6, "Posts per category")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 2024, "Random seed for repeatable content, 0 for random")
	flag.Parse()

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, bootstrap.Options{
		ServiceName: "campusforum-seed",
		ApplySchema: true,
		SkipRedis:   true,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	password := rt.Config.SeedDemoPassword
	if password == "" {
		password = seed.DefaultPassword
	}

	summary, err := seed.Seed(ctx, rt.DB, seed.Options{
		Seed:             *randSeed,
		Password:         password,
		Clean:            *clean,
		Professors:       *professors,
		Students:         *students,
		PostsPerCategory: *postsPerCategory,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d categories, %d posts, %d comments, %d reports",
		summary.Users, summary.Categories, summary.Posts, summary.Comments, summary.Reports)
	log.Printf("Log in as %s with the demo password", seed.AdminEmail)
}
