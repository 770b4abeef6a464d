package models

import "time"

// GeneralStats are the platform wide headline numbers.
type GeneralStats struct {
	TotalPosts      int64 `json:"total_posts" yaml:"total_posts"`
	TotalComments   int64 `json:"total_comments" yaml:"total_comments"`
	TotalUsers      int64 `json:"total_users" yaml:"total_users"`
	RecentPostsWeek int64 `json:"recent_posts_week" yaml:"recent_posts_week"`
}

// CategoryPostCount is the number of PUBLISHED posts in a category.
type CategoryPostCount struct {
	ID         uint   `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	PostsCount int64  `json:"posts_count" yaml:"posts_count"`
}

// TopPoster is an author ranked by PUBLISHED posts.
type TopPoster struct {
	ID         uint   `json:"id" yaml:"id"`
	FullName   string `json:"full_name" yaml:"full_name"`
	Email      string `json:"email" yaml:"email"`
	PostsCount int64  `json:"posts_count" yaml:"posts_count"`
}

// CategoryCommentCount is the number of comments on a category's PUBLISHED posts.
type CategoryCommentCount struct {
	ID            uint   `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	CommentsCount int64  `json:"comments_count" yaml:"comments_count"`
}

// PlatformStatistics is the full analytics snapshot.
type PlatformStatistics struct {
	General                 GeneralStats           `json:"general" yaml:"general"`
	PostsByCategory         []CategoryPostCount    `json:"posts_by_category" yaml:"posts_by_category"`
	TopPosters              []TopPoster            `json:"top_posters" yaml:"top_posters"`
	CategoriesMostCommented []CategoryCommentCount `json:"categories_most_commented" yaml:"categories_most_commented"`
}

// CategorySummary identifies a category inside its stats.
type CategorySummary struct {
	ID          uint    `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description"`
}

// CategoryTotals are the PUBLISHED post and comment totals of a category.
type CategoryTotals struct {
	TotalPosts    int64 `json:"total_posts" yaml:"total_posts"`
	TotalComments int64 `json:"total_comments" yaml:"total_comments"`
}

// PostCommentCount ranks a post by its comments.
type PostCommentCount struct {
	ID            uint      `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	CommentsCount int64     `json:"comments_count" yaml:"comments_count"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// CategoryStatistics is the per category analytics view.
type CategoryStatistics struct {
	Category CategorySummary    `json:"category" yaml:"category"`
	Stats    CategoryTotals     `json:"stats" yaml:"stats"`
	TopPosts []PostCommentCount `json:"top_posts" yaml:"top_posts"`
}
