package repository

import (
	"context"

	"campusforum/internal/models"
	"campusforum/internal/visibility"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	List(ctx context.Context, scope visibility.CategoryScope, page Page) ([]*models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
	CountPosts(ctx context.Context, id uint) (total, published int64, err error)
	// TransitionStatus moves the category to `to` only while its status is
	// one of from. It reports whether a row changed.
	TransitionStatus(ctx context.Context, id uint, from []models.CategoryStatus, to models.CategoryStatus) (bool, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context, scope visibility.CategoryScope, page Page) ([]*models.Category, error) {
	var categories []*models.Category
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if len(scope.Statuses) > 0 {
		q = q.Where("status IN ?", scope.Statuses)
	}
	if err := page.apply(q.Order("name ASC")).Find(&categories).Error; err != nil {
		return nil, Classify(err)
	}
	if err := r.fillPostCounts(ctx, categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, Classify(err)
	}
	if err := r.fillPostCounts(ctx, []*models.Category{&category}); err != nil {
		return nil, err
	}
	return &category, nil
}

// fillPostCounts sets PostsCount to the number of PUBLISHED posts.
func (r *categoryRepository) fillPostCounts(ctx context.Context, categories []*models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}

	var rows []struct {
		CategoryID uint
		Count      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("category_id, COUNT(*) AS count").
		Where("category_id IN ? AND status = ?", ids, models.PostPublished).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return Classify(err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	for _, c := range categories {
		c.PostsCount = counts[c.ID]
	}
	return nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Omit("CreatedBy").Create(category).Error
	return categoryWriteError(err)
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).
		Model(category).
		Select("name", "description", "updated_at").
		Updates(category).Error
	return categoryWriteError(err)
}

func categoryWriteError(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return models.NewFieldValidationError("name", "A category with this name already exists")
	}
	return Classify(err)
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Delete(&models.Category{}, id).Error
	if IsForeignKeyViolation(err) {
		return models.NewConflictError("Cannot delete a category that still has posts").
			WithDetail("has_posts", true)
	}
	return Classify(err)
}

func (r *categoryRepository) CountPosts(ctx context.Context, id uint) (int64, int64, error) {
	var row struct {
		Total     int64
		Published int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS published", models.PostPublished).
		Where("category_id = ?", id).
		Scan(&row).Error
	if err != nil {
		return 0, 0, Classify(err)
	}
	return row.Total, row.Published, nil
}

func (r *categoryRepository) TransitionStatus(ctx context.Context, id uint, from []models.CategoryStatus, to models.CategoryStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, Classify(res.Error)
	}
	return res.RowsAffected > 0, nil
}
