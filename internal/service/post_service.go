package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"campusforum/internal/authz"
	"campusforum/internal/content"
	"campusforum/internal/featureflags"
	"campusforum/internal/lifecycle"
	"campusforum/internal/models"
	"campusforum/internal/observability"
	"campusforum/internal/repository"
	"campusforum/internal/validation"
	"campusforum/internal/visibility"

	"go.opentelemetry.io/otel/attribute"
)

const defaultPostOrdering = "-created_at"

type PostService struct {
	store *repository.Store
	flags *featureflags.Manager
}

type CreatePostInput struct {
	Title      string `json:"title" validate:"notblank,runemin=5,runemax=200"`
	Content    string `json:"content" validate:"notblank,runemin=20"`
	CategoryID uint   `json:"category_id" validate:"required"`
	TagIDs     []uint `json:"tag_ids"`
}

// UpdatePostInput changes only the fields that are set.
type UpdatePostInput struct {
	Title      *string `json:"title" validate:"omitempty,runemin=5,runemax=200"`
	Content    *string `json:"content" validate:"omitempty,runemin=20"`
	CategoryID *uint   `json:"category_id" validate:"omitempty,gt=0"`
	TagIDs     *[]uint `json:"tag_ids"`
}

type ListPostsInput struct {
	Status     string
	Search     string
	CategoryID *uint
	AuthorID   *uint
	Ordering   string
	ListInput
}

func NewPostService(store *repository.Store, flags *featureflags.Manager) *PostService {
	return &PostService{store: store, flags: flags}
}

// List returns the posts visible to p that match the filters.
func (s *PostService) List(ctx context.Context, p *authz.Principal, in ListPostsInput) ([]*models.Post, error) {
	return s.list(ctx, p, in, visibility.PostQuery{
		Status:     in.Status,
		Search:     in.Search,
		CategoryID: in.CategoryID,
		AuthorID:   in.AuthorID,
	})
}

// ListMine returns p's own posts in every status unless a status is given.
func (s *PostService) ListMine(ctx context.Context, p *authz.Principal, in ListPostsInput) ([]*models.Post, error) {
	if p == nil {
		return nil, models.NewAuthenticationRequiredError("")
	}
	return s.list(ctx, p, in, visibility.PostQuery{
		Status:      in.Status,
		Search:      in.Search,
		CategoryID:  in.CategoryID,
		AuthorID:    uintPtr(p.UserID),
		AllStatuses: true,
	})
}

func (s *PostService) list(ctx context.Context, p *authz.Principal, in ListPostsInput, q visibility.PostQuery) ([]*models.Post, error) {
	if in.Status != "" && !models.PostStatus(in.Status).Valid() {
		return nil, models.NewFieldValidationError("status", "Select a valid choice.")
	}
	ordering := in.Ordering
	if ordering == "" {
		ordering = defaultPostOrdering
	}
	if !repository.ValidPostOrdering(ordering) {
		return nil, models.NewFieldValidationError("ordering", fmt.Sprintf("Unsupported ordering %q.", ordering))
	}
	if err := authorize(ctx, p, authz.ActionList, authz.Resource{Kind: authz.KindPost}); err != nil {
		return nil, err
	}

	posts, err := s.store.Posts.List(ctx, visibility.Posts(p, q), ordering, in.page())
	if err != nil {
		return nil, err
	}
	s.render(p, posts...)
	return posts, nil
}

// Get returns a post visible to p. Authors always see their own posts.
func (s *PostService) Get(ctx context.Context, p *authz.Principal, id uint) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	if !p.Owns(post.AuthorID) && !visibility.Posts(p, visibility.PostQuery{}).Matches(post) {
		return nil, models.NewNotFoundError("post", id)
	}
	if err := authorize(ctx, p, authz.ActionRetrieve, authz.PostResource(post)); err != nil {
		return nil, err
	}
	s.render(p, post)
	return post, nil
}

// Create stores a new DRAFT post authored by p.
func (s *PostService) Create(ctx context.Context, p *authz.Principal, in CreatePostInput) (*models.Post, error) {
	if err := authorize(ctx, p, authz.ActionCreate, authz.Resource{Kind: authz.KindPost}); err != nil {
		return nil, err
	}

	fieldErrs := map[string]string{}
	if in.CategoryID != 0 {
		s.checkCategory(ctx, in.CategoryID, fieldErrs)
	}
	tags, err := s.resolveTags(ctx, in.TagIDs, fieldErrs)
	if err != nil {
		return nil, err
	}
	if err := validation.Merge(validation.Struct(in), fieldErrs); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		CategoryID: in.CategoryID,
		AuthorID:   p.UserID,
		Status:     models.PostDraft,
		Tags:       tags,
	}
	if err := s.store.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.reload(ctx, p, post.ID)
}

// Update edits the title, content, category or tags of a post.
func (s *PostService) Update(ctx context.Context, p *authz.Principal, id uint, in UpdatePostInput) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	if err := authorize(ctx, p, authz.ActionUpdate, authz.PostResource(post)); err != nil {
		return nil, err
	}

	fieldErrs := map[string]string{}
	if in.CategoryID != nil && *in.CategoryID != post.CategoryID {
		s.checkCategory(ctx, *in.CategoryID, fieldErrs)
	}
	var tags []models.Tag
	if in.TagIDs != nil {
		if tags, err = s.resolveTags(ctx, *in.TagIDs, fieldErrs); err != nil {
			return nil, err
		}
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		fieldErrs["title"] = "This field may not be blank."
	}
	if err := validation.Merge(validation.Struct(in), fieldErrs); err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.CategoryID != nil {
		post.CategoryID = *in.CategoryID
		post.Category = nil
	}
	if in.TagIDs != nil {
		post.Tags = tags
	}
	if err := s.store.Posts.Update(ctx, post, in.TagIDs != nil); err != nil {
		return nil, err
	}
	return s.reload(ctx, p, id)
}

// Delete removes a post with its comments and tag links.
func (s *PostService) Delete(ctx context.Context, p *authz.Principal, id uint) (err error) {
	ctx, end := observability.StartSpan(ctx, "PostService", "Delete", attribute.Int64("post.id", int64(id)))
	defer func() { end(err) }()

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		post, err := tx.Posts.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "post", id)
		}
		if err := authorize(ctx, p, authz.ActionDelete, authz.PostResource(post)); err != nil {
			return err
		}
		return tx.Posts.Delete(ctx, id)
	})
}

// Publish moves a DRAFT post to PUBLISHED.
func (s *PostService) Publish(ctx context.Context, p *authz.Principal, id uint) (*models.Post, error) {
	return s.transition(ctx, p, id, authz.ActionPublish, "publish", lifecycle.PublishPost,
		[]models.PostStatus{models.PostDraft})
}

// Archive moves a DRAFT or PUBLISHED post to ARCHIVED.
func (s *PostService) Archive(ctx context.Context, p *authz.Principal, id uint) (*models.Post, error) {
	return s.transition(ctx, p, id, authz.ActionArchivePost, "archive", lifecycle.ArchivePost,
		[]models.PostStatus{models.PostDraft, models.PostPublished})
}

func (s *PostService) transition(
	ctx context.Context,
	p *authz.Principal,
	id uint,
	action authz.Action,
	name string,
	next func(models.PostStatus) (models.PostStatus, error),
	from []models.PostStatus,
) (post *models.Post, err error) {
	ctx, end := observability.StartSpan(ctx, "PostService", name, attribute.Int64("post.id", int64(id)))
	defer func() {
		observability.RecordTransition("post", name, err)
		end(err)
	}()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Posts.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "post", id)
		}
		if err := authorize(ctx, p, action, authz.PostResource(current)); err != nil {
			return err
		}
		to, err := next(current.Status)
		if err != nil {
			return err
		}
		ok, err := tx.Posts.TransitionStatus(ctx, id, from, to)
		if err != nil {
			return err
		}
		post, err = tx.Posts.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "post", id)
		}
		if !ok {
			return models.NewInvalidTransitionError("post", string(post.Status), name)
		}
		observability.LogTransition(ctx, "post", id, string(current.Status), string(to), actorID(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.render(p, post)
	return post, nil
}

// checkCategory requires an existing ACTIVE category for new or moved posts.
func (s *PostService) checkCategory(ctx context.Context, id uint, fieldErrs map[string]string) {
	category, err := s.store.Categories.GetByID(ctx, id)
	switch {
	case err != nil:
		fieldErrs["category_id"] = missingReference(id)
	case category.Status != models.CategoryActive:
		fieldErrs["category_id"] = "Posts can only be added to active categories."
	}
}

func (s *PostService) resolveTags(ctx context.Context, ids []uint, fieldErrs map[string]string) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))
	tags, err := s.store.Tags.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range unique {
			if !found[id] {
				fieldErrs["tag_ids"] = missingReference(id)
				break
			}
		}
	}
	return tags, nil
}

func (s *PostService) reload(ctx context.Context, p *authz.Principal, id uint) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	s.render(p, post)
	return post, nil
}

// render fills content_html when markdown rendering is on for the caller.
func (s *PostService) render(p *authz.Principal, posts ...*models.Post) {
	if !s.flags.Enabled(featureflags.MarkdownContent, actorID(p)) {
		return
	}
	for _, post := range posts {
		post.ContentHTML = content.RenderMarkdown(post.Content)
	}
}
