package repository

import (
	"context"

	"campusforum/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	List(ctx context.Context, page Page) ([]*models.Tag, error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id uint) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context, page Page) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := page.apply(r.db.WithContext(ctx).Order("name ASC")).Find(&tags).Error
	return tags, Classify(err)
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, Classify(err)
	}
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&tags).Error
	return tags, Classify(err)
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.NewFieldValidationError("name", "A tag with this name already exists")
		}
		return Classify(err)
	}
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tag{}, id).Error
	})
	return Classify(err)
}
