// Package testutil provides shared test databases and fixtures.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"campusforum/internal/database"
	"campusforum/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Uint64

// NewDB opens an isolated in-memory SQLite database with foreign keys
// enforced and the full schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// Fixtures creates rows with sensible defaults.
type Fixtures struct {
	t   testing.TB
	db  *gorm.DB
	seq int
}

// NewFixtures binds a fixture builder to db.
func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) next() int {
	f.seq++
	return f.seq
}

// User creates an active user with role.
func (f *Fixtures) User(role models.Role) *models.User {
	f.t.Helper()
	n := f.next()
	u := &models.User{
		Email:     fmt.Sprintf("user%d@campus.test", n),
		Password:  "x",
		FirstName: "User",
		LastName:  fmt.Sprintf("N%d", n),
		Role:      role,
		IsActive:  true,
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

// Category creates a category in status.
func (f *Fixtures) Category(name string, status models.CategoryStatus) *models.Category {
	f.t.Helper()
	c := &models.Category{Name: name, Status: status}
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

// Tag creates a tag.
func (f *Fixtures) Tag(name string) *models.Tag {
	f.t.Helper()
	tag := &models.Tag{Name: name}
	require.NoError(f.t, f.db.Create(tag).Error)
	return tag
}

// Post creates a post by author in category with status.
func (f *Fixtures) Post(author *models.User, category *models.Category, status models.PostStatus) *models.Post {
	f.t.Helper()
	n := f.next()
	p := &models.Post{
		Title:      fmt.Sprintf("Post number %d", n),
		Content:    fmt.Sprintf("Body of post number %d with enough text.", n),
		CategoryID: category.ID,
		AuthorID:   author.ID,
		Status:     status,
	}
	require.NoError(f.t, f.db.Omit("Category", "Author", "Tags").Create(p).Error)
	return p
}

// Comment creates a comment by author on post.
func (f *Fixtures) Comment(author *models.User, post *models.Post) *models.Comment {
	f.t.Helper()
	c := &models.Comment{Content: fmt.Sprintf("Comment %d here", f.next()), PostID: post.ID, AuthorID: author.ID}
	require.NoError(f.t, f.db.Omit("Post", "Author").Create(c).Error)
	return c
}

// PostReport creates a pending report against post.
func (f *Fixtures) PostReport(reporter *models.User, post *models.Post) *models.Report {
	f.t.Helper()
	r := &models.Report{Type: models.ReportTypePost, ReporterID: reporter.ID, PostID: &post.ID, Reason: "spam", Status: models.ReportPending}
	require.NoError(f.t, f.db.Omit("Reporter", "Post", "Comment", "Reviewer").Create(r).Error)
	return r
}

// CommentReport creates a pending report against comment.
func (f *Fixtures) CommentReport(reporter *models.User, comment *models.Comment) *models.Report {
	f.t.Helper()
	r := &models.Report{Type: models.ReportTypeComment, ReporterID: reporter.ID, CommentID: &comment.ID, Reason: "rude", Status: models.ReportPending}
	require.NoError(f.t, f.db.Omit("Reporter", "Post", "Comment", "Reviewer").Create(r).Error)
	return r
}
