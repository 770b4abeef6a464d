// Package seed provides helpers to create demo data for the forum database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campusforum/internal/auth"
	"campusforum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is used for every seeded account unless Options.Password is set.
const DefaultPassword = "campus-demo-2024"

// Options controls what the seeder writes.
type Options struct {
	// Seed makes the generated content repeatable. Zero uses a random seed.
	Seed       int64
	Password   string
	SkipBcrypt bool
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays          int
	DryRun           bool
	Clean            bool
	Professors       int
	Students         int
	PostsPerCategory int
}

func (o Options) withDefaults() Options {
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 30
	}
	if o.Professors <= 0 {
		o.Professors = 3
	}
	if o.Students <= 0 {
		o.Students = 12
	}
	if o.PostsPerCategory <= 0 {
		o.PostsPerCategory = 6
	}
	return o
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	now   time.Time

	password string
	seq      int
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	opts = opts.withDefaults()

	password := opts.Password
	if !opts.SkipBcrypt {
		hashed, err := auth.HashPassword(opts.Password)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		password = hashed
	}

	return &Factory{
		db:       db,
		opts:     opts,
		faker:    gofakeit.New(opts.Seed),
		now:      time.Now().UTC(),
		password: password,
		nextID:   1000,
	}, nil
}

func (f *Factory) create(kind string, value any, setID func(uint), omit ...string) error {
	if f.opts.DryRun {
		f.nextID++
		setID(f.nextID)
		slog.Debug("dry-run create", "kind", kind, "id", f.nextID)
		return nil
	}
	q := f.db
	if len(omit) > 0 {
		q = q.Omit(omit...)
	}
	if err := q.Create(value).Error; err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	return nil
}

// pastTime returns a moment within the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}

// CreateUser constructs and persists a user with role. Optional overrides
// may modify the generated user before saving.
func (f *Factory) CreateUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Email:     strings.ToLower(fmt.Sprintf("%s.%s%d@campus.test", first, last, f.seq)),
		Password:  f.password,
		FirstName: first,
		LastName:  last,
		Role:      role,
		IsActive:  true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.create("user", user, func(id uint) { user.ID = id }); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCategory persists a category in status.
func (f *Factory) CreateCategory(name, description string, status models.CategoryStatus, creator *models.User) (*models.Category, error) {
	category := &models.Category{Name: name, Status: status}
	if description != "" {
		category.Description = &description
	}
	if creator != nil {
		category.CreatedByID = &creator.ID
	}
	if err := f.create("category", category, func(id uint) { category.ID = id }, "CreatedBy"); err != nil {
		return nil, err
	}
	return category, nil
}

// CreateTag persists a tag.
func (f *Factory) CreateTag(name string) (*models.Tag, error) {
	tag := &models.Tag{Name: name}
	if err := f.create("tag", tag, func(id uint) { tag.ID = id }); err != nil {
		return nil, err
	}
	return tag, nil
}

// BuildPost constructs a post without persisting it.
func (f *Factory) BuildPost(author *models.User, category *models.Category, status models.PostStatus, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(4, 9)), ".")
	if len([]rune(title)) > 200 {
		title = string([]rune(title)[:200])
	}
	created := f.pastTime()
	post := &models.Post{
		Title:      title,
		Content:    f.faker.Paragraph(f.faker.Number(1, 3), f.faker.Number(2, 5), 12, "\n\n"),
		CategoryID: category.ID,
		AuthorID:   author.ID,
		Status:     status,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a post. Tags are linked in the same insert.
func (f *Factory) CreatePost(author *models.User, category *models.Category, status models.PostStatus, tags []models.Tag, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, category, status, overrides...)
	post.Tags = tags
	if err := f.create("post", post, func(id uint) { post.ID = id }, "Category", "Author"); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by author on post, dated after the post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	created := post.CreatedAt.Add(time.Duration(f.faker.Number(5, 6*60)) * time.Minute)
	if created.After(f.now) {
		created = f.now
	}
	comment := &models.Comment{
		Content:   f.faker.Sentence(f.faker.Number(6, 20)),
		PostID:    post.ID,
		AuthorID:  author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := f.create("comment", comment, func(id uint) { comment.ID = id }, "Post", "Author"); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreatePostReport persists a report against post. A non-nil reviewer
// records the report as handled in status.
func (f *Factory) CreatePostReport(reporter *models.User, post *models.Post, status models.ReportStatus, reviewer *models.User, action string) (*models.Report, error) {
	report := &models.Report{Type: models.ReportTypePost, ReporterID: reporter.ID, PostID: &post.ID}
	return f.createReport(report, status, reviewer, action)
}

// CreateCommentReport persists a report against comment.
func (f *Factory) CreateCommentReport(reporter *models.User, comment *models.Comment, status models.ReportStatus, reviewer *models.User, action string) (*models.Report, error) {
	report := &models.Report{Type: models.ReportTypeComment, ReporterID: reporter.ID, CommentID: &comment.ID}
	return f.createReport(report, status, reviewer, action)
}

var reportReasons = []string{
	"Spam or advertising",
	"Off-topic for this category",
	"Shares graded homework answers",
	"Harassment of another student",
	"Contains personal information",
}

func (f *Factory) createReport(report *models.Report, status models.ReportStatus, reviewer *models.User, action string) (*models.Report, error) {
	report.Reason = reportReasons[f.faker.Number(0, len(reportReasons)-1)]
	report.Status = status
	if reviewer != nil {
		at := f.pastTime()
		report.ReviewerID = &reviewer.ID
		report.ReviewedAt = &at
	}
	if action != "" {
		report.ActionTaken = &action
	}
	if err := f.create("report", report, func(id uint) { report.ID = id }, "Reporter", "Post", "Comment", "Reviewer"); err != nil {
		return nil, err
	}
	return report, nil
}
