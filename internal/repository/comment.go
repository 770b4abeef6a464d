package repository

import (
	"context"

	"campusforum/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	List(ctx context.Context, postID *uint, page Page) ([]*models.Comment, error)
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) List(ctx context.Context, postID *uint, page Page) ([]*models.Comment, error) {
	var comments []*models.Comment
	q := r.db.WithContext(ctx).Preload("Author")
	if postID != nil {
		q = q.Where("post_id = ?", *postID)
	}
	err := page.apply(q.Order("created_at DESC, id DESC")).Find(&comments).Error
	return comments, Classify(err)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, Classify(err)
	}
	return &comment, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit("Post", "Author").Create(comment).Error
	if IsForeignKeyViolation(err) {
		return models.NewFieldValidationError("post_id", "Referenced post does not exist")
	}
	return Classify(err)
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).
		Model(comment).
		Select("content", "updated_at").
		Updates(comment).Error
	return Classify(err)
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return Classify(r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error)
}
