package service

import (
	"context"
	"strings"

	"campusforum/internal/authz"
	"campusforum/internal/models"
	"campusforum/internal/repository"
	"campusforum/internal/validation"
)

type TagService struct {
	store *repository.Store
}

type TagInput struct {
	Name string `json:"name" validate:"notblank,runemax=50"`
}

func NewTagService(store *repository.Store) *TagService {
	return &TagService{store: store}
}

func (s *TagService) List(ctx context.Context, p *authz.Principal, in ListInput) ([]*models.Tag, error) {
	if err := authorize(ctx, p, authz.ActionList, authz.Resource{Kind: authz.KindTag}); err != nil {
		return nil, err
	}
	return s.store.Tags.List(ctx, in.page())
}

func (s *TagService) Get(ctx context.Context, p *authz.Principal, id uint) (*models.Tag, error) {
	if err := authorize(ctx, p, authz.ActionRetrieve, authz.Resource{Kind: authz.KindTag}); err != nil {
		return nil, err
	}
	tag, err := s.store.Tags.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "tag", id)
	}
	return tag, nil
}

func (s *TagService) Create(ctx context.Context, p *authz.Principal, in TagInput) (*models.Tag, error) {
	if err := authorize(ctx, p, authz.ActionCreate, authz.Resource{Kind: authz.KindTag}); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: strings.TrimSpace(in.Name)}
	if err := s.store.Tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete removes a tag and detaches it from every post.
func (s *TagService) Delete(ctx context.Context, p *authz.Principal, id uint) error {
	if err := authorize(ctx, p, authz.ActionDelete, authz.Resource{Kind: authz.KindTag}); err != nil {
		return err
	}
	if _, err := s.store.Tags.GetByID(ctx, id); err != nil {
		return notFound(err, "tag", id)
	}
	return s.store.Tags.Delete(ctx, id)
}
