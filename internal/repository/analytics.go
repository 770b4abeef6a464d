package repository

import (
	"context"
	"strings"
	"time"

	"campusforum/internal/models"
	"campusforum/internal/observability"

	"gorm.io/gorm"
)

// AnalyticsRepository runs the read-only aggregate queries. Queries go to
// the read replica when one is configured.
type AnalyticsRepository interface {
	GeneralStats(ctx context.Context, since, until time.Time) (models.GeneralStats, error)
	PostsByCategory(ctx context.Context) ([]models.CategoryPostCount, error)
	TopPosters(ctx context.Context, limit int) ([]models.TopPoster, error)
	MostCommentedCategories(ctx context.Context, limit int) ([]models.CategoryCommentCount, error)
	CategoryTotals(ctx context.Context, categoryID uint) (models.CategoryTotals, error)
	TopPostsByComments(ctx context.Context, categoryID uint, limit int) ([]models.PostCommentCount, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) read(ctx context.Context) *gorm.DB {
	return readDB(r.db).WithContext(ctx)
}

func (r *analyticsRepository) GeneralStats(ctx context.Context, since, until time.Time) (models.GeneralStats, error) {
	defer observability.TrackQuery("analytics_general")()

	var stats models.GeneralStats
	db := r.read(ctx)
	if err := db.Model(&models.Post{}).Where("status = ?", models.PostPublished).Count(&stats.TotalPosts).Error; err != nil {
		return stats, Classify(err)
	}
	if err := db.Model(&models.Comment{}).Count(&stats.TotalComments).Error; err != nil {
		return stats, Classify(err)
	}
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.TotalUsers).Error; err != nil {
		return stats, Classify(err)
	}
	err := db.Model(&models.Post{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.PostPublished, since, until).
		Count(&stats.RecentPostsWeek).Error
	return stats, Classify(err)
}

func (r *analyticsRepository) PostsByCategory(ctx context.Context) ([]models.CategoryPostCount, error) {
	defer observability.TrackQuery("analytics_posts_by_category")()

	rows := []models.CategoryPostCount{}
	err := r.read(ctx).
		Table("categories").
		Select("categories.id, categories.name, COUNT(posts.id) AS posts_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.status = ?", models.PostPublished).
		Group("categories.id, categories.name").
		Order("posts_count DESC, categories.name ASC").
		Scan(&rows).Error
	return rows, Classify(err)
}

func (r *analyticsRepository) TopPosters(ctx context.Context, limit int) ([]models.TopPoster, error) {
	defer observability.TrackQuery("analytics_top_posters")()

	var rows []struct {
		ID         uint
		FirstName  string
		LastName   string
		Email      string
		PostsCount int64
	}
	err := r.read(ctx).
		Table("users").
		Select("users.id, users.first_name, users.last_name, users.email, COUNT(posts.id) AS posts_count").
		Joins("JOIN posts ON posts.author_id = users.id AND posts.status = ?", models.PostPublished).
		Where("users.is_active = ?", true).
		Group("users.id, users.first_name, users.last_name, users.email").
		Order("posts_count DESC, users.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, Classify(err)
	}

	posters := make([]models.TopPoster, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.FirstName + " " + row.LastName)
		if name == "" {
			name = row.Email
		}
		posters = append(posters, models.TopPoster{ID: row.ID, FullName: name, Email: row.Email, PostsCount: row.PostsCount})
	}
	return posters, nil
}

func (r *analyticsRepository) MostCommentedCategories(ctx context.Context, limit int) ([]models.CategoryCommentCount, error) {
	defer observability.TrackQuery("analytics_most_commented")()

	rows := []models.CategoryCommentCount{}
	err := r.read(ctx).
		Table("categories").
		Select("categories.id, categories.name, COUNT(comments.id) AS comments_count").
		Joins("JOIN posts ON posts.category_id = categories.id AND posts.status = ?", models.PostPublished).
		Joins("JOIN comments ON comments.post_id = posts.id").
		Group("categories.id, categories.name").
		Order("comments_count DESC, categories.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, Classify(err)
}

func (r *analyticsRepository) CategoryTotals(ctx context.Context, categoryID uint) (models.CategoryTotals, error) {
	defer observability.TrackQuery("analytics_category_totals")()

	var totals models.CategoryTotals
	db := r.read(ctx)
	published := db.Model(&models.Post{}).Select("id").Where("category_id = ? AND status = ?", categoryID, models.PostPublished)

	if err := db.Model(&models.Post{}).Where("category_id = ? AND status = ?", categoryID, models.PostPublished).Count(&totals.TotalPosts).Error; err != nil {
		return totals, Classify(err)
	}
	err := db.Model(&models.Comment{}).Where("post_id IN (?)", published).Count(&totals.TotalComments).Error
	return totals, Classify(err)
}

// TopPostsByComments ranks every post of the category regardless of status.
func (r *analyticsRepository) TopPostsByComments(ctx context.Context, categoryID uint, limit int) ([]models.PostCommentCount, error) {
	defer observability.TrackQuery("analytics_top_posts")()

	rows := []models.PostCommentCount{}
	err := r.read(ctx).
		Table("posts").
		Select("posts.id, posts.title, posts.created_at, COUNT(comments.id) AS comments_count").
		Joins("LEFT JOIN comments ON comments.post_id = posts.id").
		Where("posts.category_id = ?", categoryID).
		Group("posts.id, posts.title, posts.created_at").
		Order("comments_count DESC, posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, Classify(err)
}
