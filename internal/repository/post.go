package repository

import (
	"context"
	"strings"

	"campusforum/internal/models"
	"campusforum/internal/visibility"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	List(ctx context.Context, scope visibility.PostScope, ordering string, page Page) ([]*models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post, replaceTags bool) error
	Delete(ctx context.Context, id uint) error
	// TransitionStatus moves the post to `to` only while its status is one
	// of from. It reports whether a row changed.
	TransitionStatus(ctx context.Context, id uint, from []models.PostStatus, to models.PostStatus) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

var postOrderings = map[string]string{
	"created_at":  "posts.created_at ASC, posts.id ASC",
	"-created_at": "posts.created_at DESC, posts.id DESC",
	"title":       "posts.title ASC, posts.id ASC",
	"-title":      "posts.title DESC, posts.id DESC",
}

// ValidPostOrdering reports whether ordering is a supported sort key.
func ValidPostOrdering(ordering string) bool {
	_, ok := postOrderings[ordering]
	return ok
}

func (r *postRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Category").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.name ASC")
	})
}

func (r *postRepository) List(ctx context.Context, scope visibility.PostScope, ordering string, page Page) ([]*models.Post, error) {
	order, ok := postOrderings[ordering]
	if !ok {
		order = postOrderings["-created_at"]
	}

	var posts []*models.Post
	q := applyPostScope(r.withDetails(r.db.WithContext(ctx)).Model(&models.Post{}), scope)
	if err := page.apply(q.Order(order)).Find(&posts).Error; err != nil {
		return nil, Classify(err)
	}
	if err := r.fillCommentCounts(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// applyPostScope translates a visibility scope into WHERE clauses.
func applyPostScope(db *gorm.DB, scope visibility.PostScope) *gorm.DB {
	if len(scope.Statuses) > 0 {
		db = db.Where("posts.status IN ?", scope.Statuses)
	}
	if scope.CategoryID != nil {
		db = db.Where("posts.category_id = ?", *scope.CategoryID)
	}
	if scope.AuthorID != nil {
		db = db.Where("posts.author_id = ?", *scope.AuthorID)
	}
	if scope.Search != "" {
		like := "%" + escapeLike(strings.ToLower(scope.Search)) + "%"
		db = db.Where("(LOWER(posts.title) LIKE ? ESCAPE '\\' OR LOWER(posts.content) LIKE ? ESCAPE '\\')", like, like)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, Classify(err)
	}
	if err := r.fillCommentCounts(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) fillCommentCounts(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	var rows []struct {
		PostID uint
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return Classify(err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	for _, p := range posts {
		p.CommentsCount = counts[p.ID]
	}
	return nil
}

// Create inserts the post and links the tags already present on it.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Omit("Category", "Author").Create(post).Error
	return postWriteError(err)
}

// Update persists title, content, and category. Tags are replaced with
// post.Tags when replaceTags is set.
func (r *postRepository) Update(ctx context.Context, post *models.Post, replaceTags bool) error {
	db := r.db.WithContext(ctx)
	err := db.Model(post).
		Omit(clause.Associations).
		Select("title", "content", "category_id", "updated_at").
		Updates(post).Error
	if err != nil {
		return postWriteError(err)
	}
	if replaceTags {
		if err := db.Model(post).Association("Tags").Replace(post.Tags); err != nil {
			return postWriteError(err)
		}
	}
	return nil
}

func postWriteError(err error) error {
	if err == nil {
		return nil
	}
	if IsForeignKeyViolation(err) {
		return models.NewFieldValidationError("category_id", "Referenced category does not exist")
	}
	return Classify(err)
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return Classify(r.db.WithContext(ctx).Select(clause.Associations).Delete(&models.Post{ID: id}).Error)
}

func (r *postRepository) TransitionStatus(ctx context.Context, id uint, from []models.PostStatus, to models.PostStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, Classify(res.Error)
	}
	return res.RowsAffected > 0, nil
}
