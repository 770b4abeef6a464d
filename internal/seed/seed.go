package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"campusforum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInCategory is one of the categories every campus starts with.
type BuiltInCategory struct {
	Name        string
	Description string
	Status      models.CategoryStatus
}

// BuiltInCategories covers every category status so the demo exercises the
// whole lifecycle.
var BuiltInCategories = []BuiltInCategory{
	{Name: "Announcements", Description: "Official news from faculty and staff.", Status: models.CategoryActive},
	{Name: "Mathematics", Description: "Calculus, algebra and problem sets.", Status: models.CategoryActive},
	{Name: "Computer Science", Description: "Programming, algorithms and systems.", Status: models.CategoryActive},
	{Name: "Physics", Description: "Mechanics, waves and lab reports.", Status: models.CategoryActive},
	{Name: "Study Groups", Description: "Find people to revise with.", Status: models.CategoryActive},
	{Name: "Campus Life", Description: "Clubs, events and housing.", Status: models.CategoryInactive},
	{Name: "Fall Orientation", Description: "Questions from last year's orientation week.", Status: models.CategoryArchived},
}

// BuiltInTags are attached to seeded posts at random.
var BuiltInTags = []string{"homework", "exam", "question", "resources", "event", "lab", "help", "discussion"}

// Categories upserts the built-in categories by name. Running it twice
// leaves one row per category.
func Categories(db *gorm.DB) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(BuiltInCategories))
	for _, item := range BuiltInCategories {
		description := item.Description
		category := models.Category{Name: item.Name, Description: &description, Status: item.Status}

		err := db.Omit("CreatedBy").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "status", "updated_at"}),
		}).Create(&category).Error
		if err != nil {
			return nil, fmt.Errorf("seed built-in category %s: %w", item.Name, err)
		}
		if category.ID == 0 {
			if err := db.Where("name = ?", item.Name).First(&category).Error; err != nil {
				return nil, fmt.Errorf("reload category %s: %w", item.Name, err)
			}
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// Tags creates the built-in tags that do not exist yet.
func Tags(db *gorm.DB) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(BuiltInTags))
	for _, name := range BuiltInTags {
		var tag models.Tag
		if err := db.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("seed tag %s: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Summary counts what a Seed run wrote.
type Summary struct {
	Users      int
	Categories int
	Tags       int
	Posts      int
	Comments   int
	Reports    int
}

// AdminEmail is the seeded administrator account.
const AdminEmail = "admin@campus.test"

// Seed writes the demo dataset: an admin, professors and students, the
// built-in categories and tags, posts in every status, comments on published
// posts and reports in every status.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	if opts.DryRun {
		return nil, errors.New("dry-run is only supported by Factory")
	}
	f, err := NewFactory(db.WithContext(ctx), opts)
	if err != nil {
		return nil, err
	}
	opts = f.opts

	slog.InfoContext(ctx, "seeding database",
		"professors", opts.Professors, "students", opts.Students, "posts_per_category", opts.PostsPerCategory)

	if opts.Clean {
		if err := clearData(db.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	var summary Summary
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f.db = tx
		return f.populate(&summary)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "database seeding completed",
		"users", summary.Users, "categories", summary.Categories, "tags", summary.Tags,
		"posts", summary.Posts, "comments", summary.Comments, "reports", summary.Reports)
	return &summary, nil
}

func (f *Factory) populate(summary *Summary) error {
	admin, err := f.CreateUser(models.RoleAdmin, func(u *models.User) {
		u.Email = AdminEmail
		u.FirstName, u.LastName = "Campus", "Admin"
	})
	if err != nil {
		return err
	}
	moderators := []*models.User{admin}
	for i := 0; i < f.opts.Professors; i++ {
		u, err := f.CreateUser(models.RoleProfessor)
		if err != nil {
			return err
		}
		moderators = append(moderators, u)
	}
	students := make([]*models.User, 0, f.opts.Students)
	for i := 0; i < f.opts.Students; i++ {
		u, err := f.CreateUser(models.RoleStudent)
		if err != nil {
			return err
		}
		students = append(students, u)
	}
	everyone := append(append([]*models.User{}, moderators...), students...)
	summary.Users = len(everyone)

	categories, err := Categories(f.db)
	if err != nil {
		return err
	}
	summary.Categories = len(categories)
	tags, err := Tags(f.db)
	if err != nil {
		return err
	}
	summary.Tags = len(tags)

	var published []*models.Post
	for i := range categories {
		category := &categories[i]
		for n := 0; n < f.opts.PostsPerCategory; n++ {
			post, err := f.CreatePost(f.pickUser(everyone), category, f.postStatus(category, n), f.pickTags(tags))
			if err != nil {
				return err
			}
			summary.Posts++
			if post.Status == models.PostPublished {
				published = append(published, post)
			}
		}
	}

	var comments []*models.Comment
	for _, post := range published {
		for n := f.faker.Number(0, 4); n > 0; n-- {
			c, err := f.CreateComment(f.pickUser(everyone), post)
			if err != nil {
				return err
			}
			comments = append(comments, c)
			summary.Comments++
		}
	}

	reports, err := f.seedReports(students, moderators, published, comments)
	summary.Reports = reports
	return err
}

// postStatus keeps inactive and archived categories free of drafts and
// gives active categories a mix of every status.
func (f *Factory) postStatus(category *models.Category, n int) models.PostStatus {
	if category.Status != models.CategoryActive {
		return models.PostPublished
	}
	switch n % 6 {
	case 4:
		return models.PostDraft
	case 5:
		return models.PostArchived
	}
	return models.PostPublished
}

// seedReports files one report per status against published content.
func (f *Factory) seedReports(students, moderators []*models.User, posts []*models.Post, comments []*models.Comment) (int, error) {
	if len(students) == 0 || len(posts) == 0 {
		return 0, nil
	}
	reviewer := moderators[len(moderators)-1]

	type plannedReport struct {
		status   models.ReportStatus
		reviewer *models.User
		action   string
	}
	planned := []plannedReport{
		{status: models.ReportPending},
		{status: models.ReportPending},
		{status: models.ReportReviewed, reviewer: reviewer},
		{status: models.ReportResolved, reviewer: reviewer, action: "Warned the author"},
		{status: models.ReportDismissed, reviewer: reviewer, action: models.DismissedPlaceholder},
	}

	count := 0
	for i, s := range planned {
		post := posts[i%len(posts)]
		if _, err := f.CreatePostReport(f.pickUser(students), post, s.status, s.reviewer, s.action); err != nil {
			return count, err
		}
		count++
	}
	if len(comments) > 0 {
		if _, err := f.CreateCommentReport(f.pickUser(students), comments[0], models.ReportPending, nil, ""); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (f *Factory) pickUser(users []*models.User) *models.User {
	return users[f.faker.Number(0, len(users)-1)]
}

func (f *Factory) pickTags(tags []models.Tag) []models.Tag {
	n := f.faker.Number(0, 2)
	if n == 0 || len(tags) == 0 {
		return nil
	}
	start := f.faker.Number(0, len(tags)-1)
	picked := make([]models.Tag, 0, n)
	for i := 0; i < n && i < len(tags); i++ {
		picked = append(picked, tags[(start+i)%len(tags)])
	}
	return picked
}

func clearData(db *gorm.DB) error {
	slog.Info("clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE reports, comments, post_tags, posts, tags, categories, users RESTART IDENTITY CASCADE;`).Error
	}
	for _, table := range []string{"reports", "comments", "post_tags", "posts", "tags", "categories", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
