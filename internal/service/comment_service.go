package service

import (
	"context"

	"campusforum/internal/authz"
	"campusforum/internal/models"
	"campusforum/internal/repository"
	"campusforum/internal/validation"
	"campusforum/internal/visibility"
)

type CommentService struct {
	store *repository.Store
}

type CreateCommentInput struct {
	PostID  uint   `json:"post_id" validate:"required"`
	Content string `json:"content" validate:"notblank,runemin=5"`
}

type UpdateCommentInput struct {
	Content string `json:"content" validate:"notblank,runemin=5"`
}

type ListCommentsInput struct {
	PostID *uint
	ListInput
}

func NewCommentService(store *repository.Store) *CommentService {
	return &CommentService{store: store}
}

// List returns comments newest first, optionally for one post. Filtering
// by a post p cannot see reports it as missing.
func (s *CommentService) List(ctx context.Context, p *authz.Principal, in ListCommentsInput) ([]*models.Comment, error) {
	if err := authorize(ctx, p, authz.ActionList, authz.Resource{Kind: authz.KindComment}); err != nil {
		return nil, err
	}
	if in.PostID != nil {
		if _, err := s.visiblePost(ctx, p, *in.PostID); err != nil {
			return nil, err
		}
	}
	return s.store.Comments.List(ctx, in.PostID, in.page())
}

func (s *CommentService) Get(ctx context.Context, p *authz.Principal, id uint) (*models.Comment, error) {
	comment, err := s.store.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment", id)
	}
	if err := authorize(ctx, p, authz.ActionRetrieve, authz.CommentResource(comment)); err != nil {
		return nil, err
	}
	return comment, nil
}

// Create adds a comment by p to a post p can see.
func (s *CommentService) Create(ctx context.Context, p *authz.Principal, in CreateCommentInput) (*models.Comment, error) {
	if err := authorize(ctx, p, authz.ActionCreate, authz.Resource{Kind: authz.KindComment}); err != nil {
		return nil, err
	}

	fieldErrs := map[string]string{}
	if in.PostID != 0 {
		if _, err := s.visiblePost(ctx, p, in.PostID); err != nil {
			if !models.IsCode(err, models.CodeNotFound) {
				return nil, err
			}
			fieldErrs["post_id"] = missingReference(in.PostID)
		}
	}
	if err := validation.Merge(validation.Struct(in), fieldErrs); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: in.PostID, AuthorID: p.UserID, Content: in.Content}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.store.Comments.GetByID(ctx, comment.ID)
}

func (s *CommentService) Update(ctx context.Context, p *authz.Principal, id uint, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.store.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment", id)
	}
	if err := authorize(ctx, p, authz.ActionUpdate, authz.CommentResource(comment)); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	comment.Content = in.Content
	if err := s.store.Comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.store.Comments.GetByID(ctx, id)
}

func (s *CommentService) Delete(ctx context.Context, p *authz.Principal, id uint) error {
	comment, err := s.store.Comments.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "comment", id)
	}
	if err := authorize(ctx, p, authz.ActionDelete, authz.CommentResource(comment)); err != nil {
		return err
	}
	return s.store.Comments.Delete(ctx, id)
}

// visiblePost loads a post under the same rules as post retrieval.
func (s *CommentService) visiblePost(ctx context.Context, p *authz.Principal, id uint) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	if !p.Owns(post.AuthorID) && !visibility.Posts(p, visibility.PostQuery{}).Matches(post) {
		return nil, models.NewNotFoundError("post", id)
	}
	return post, nil
}
