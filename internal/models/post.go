package models

import "time"

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "DRAFT"
	PostPublished PostStatus = "PUBLISHED"
	PostArchived  PostStatus = "ARCHIVED"
)

func (s PostStatus) Valid() bool {
	return s == PostDraft || s == PostPublished || s == PostArchived
}

// Post is an article published inside a category.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"size:200;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CategoryID uint       `gorm:"not null;index" json:"category_id"`
	Category   *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	AuthorID   uint       `gorm:"not null;index" json:"author_id"`
	Author     *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Status     PostStatus `gorm:"size:20;not null;default:'DRAFT';index" json:"status"`
	Tags       []Tag      `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags"`
	// CommentsCount is filled by the repository at query time.
	CommentsCount int64 `gorm:"-" json:"comments_count"`
	// ContentHTML is the sanitized rendering, present when markdown is enabled.
	ContentHTML string    `gorm:"-" json:"content_html,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
