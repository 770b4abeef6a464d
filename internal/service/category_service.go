package service

import (
	"context"
	"strings"

	"campusforum/internal/authz"
	"campusforum/internal/lifecycle"
	"campusforum/internal/models"
	"campusforum/internal/observability"
	"campusforum/internal/repository"
	"campusforum/internal/validation"
	"campusforum/internal/visibility"

	"go.opentelemetry.io/otel/attribute"
)

type CategoryService struct {
	store *repository.Store
}

type CategoryInput struct {
	Name        string  `json:"name" validate:"notblank,runemax=100"`
	Description *string `json:"description"`
}

type ListCategoriesInput struct {
	Status string
	ListInput
}

func NewCategoryService(store *repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

// List returns the categories visible to p, ordered by name.
func (s *CategoryService) List(ctx context.Context, p *authz.Principal, in ListCategoriesInput) ([]*models.Category, error) {
	if in.Status != "" && !models.CategoryStatus(in.Status).Valid() {
		return nil, models.NewFieldValidationError("status", "Select a valid choice.")
	}
	if err := authorize(ctx, p, authz.ActionList, authz.Resource{Kind: authz.KindCategory}); err != nil {
		return nil, err
	}
	scope := visibility.Categories(p, visibility.CategoryQuery{Status: in.Status})
	return s.store.Categories.List(ctx, scope, in.page())
}

// Get returns one category. Categories outside p's default scope are reported as missing.
func (s *CategoryService) Get(ctx context.Context, p *authz.Principal, id uint) (*models.Category, error) {
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	if !visibility.Categories(p, visibility.CategoryQuery{}).Matches(category) {
		return nil, models.NewNotFoundError("category", id)
	}
	if err := authorize(ctx, p, authz.ActionRetrieve, authz.CategoryResource(category, 0, 0)); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, p *authz.Principal, in CategoryInput) (*models.Category, error) {
	if err := authorize(ctx, p, authz.ActionCreate, authz.Resource{Kind: authz.KindCategory}); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: trimmedOrNil(in.Description),
		Status:      models.CategoryActive,
		CreatedByID: uintPtr(p.UserID),
	}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, p *authz.Principal, id uint, in CategoryInput) (*models.Category, error) {
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	if err := authorize(ctx, p, authz.ActionUpdate, authz.CategoryResource(category, 0, 0)); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(in.Name)
	category.Description = trimmedOrNil(in.Description)
	if err := s.store.Categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category that holds no posts at all.
func (s *CategoryService) Delete(ctx context.Context, p *authz.Principal, id uint) (err error) {
	ctx, end := observability.StartSpan(ctx, "CategoryService", "Delete", attribute.Int64("category.id", int64(id)))
	defer func() { end(err) }()

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		category, err := tx.Categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		total, published, err := tx.Categories.CountPosts(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, p, authz.ActionDelete, authz.CategoryResource(category, total, published)); err != nil {
			return err
		}
		return tx.Categories.Delete(ctx, id)
	})
}

// ToggleStatus flips ACTIVE and INACTIVE.
func (s *CategoryService) ToggleStatus(ctx context.Context, p *authz.Principal, id uint) (category *models.Category, err error) {
	ctx, end := observability.StartSpan(ctx, "CategoryService", "ToggleStatus", attribute.Int64("category.id", int64(id)))
	defer func() {
		observability.RecordTransition("category", "toggle", err)
		end(err)
	}()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		_, published, err := tx.Categories.CountPosts(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, p, authz.ActionToggleCategory, authz.CategoryResource(current, 0, published)); err != nil {
			return err
		}
		next, err := lifecycle.ToggleCategory(current.Status, published)
		if err != nil {
			return err
		}
		category, err = s.transition(ctx, tx, p, current, []models.CategoryStatus{current.Status}, next, "toggle")
		return err
	})
	return category, err
}

// Archive hides a category from non-moderators. Archiving an archived
// category succeeds and reports changed=false.
func (s *CategoryService) Archive(ctx context.Context, p *authz.Principal, id uint) (category *models.Category, changed bool, err error) {
	ctx, end := observability.StartSpan(ctx, "CategoryService", "Archive", attribute.Int64("category.id", int64(id)))
	defer func() {
		observability.RecordTransition("category", "archive", err)
		end(err)
	}()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		if err := authorize(ctx, p, authz.ActionArchiveCategory, authz.CategoryResource(current, 0, 0)); err != nil {
			return err
		}
		next, willChange := lifecycle.ArchiveCategory(current.Status)
		if !willChange {
			category = current
			return nil
		}
		ok, err := tx.Categories.TransitionStatus(ctx, id, []models.CategoryStatus{models.CategoryActive, models.CategoryInactive}, next)
		if err != nil {
			return err
		}
		category, err = tx.Categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		// A concurrent archive landing first leaves the same end state.
		changed = ok
		if ok {
			observability.LogTransition(ctx, "category", id, string(current.Status), string(next), actorID(p))
		}
		return nil
	})
	return category, changed, err
}

// Restore brings an archived category back to ACTIVE.
func (s *CategoryService) Restore(ctx context.Context, p *authz.Principal, id uint) (category *models.Category, err error) {
	ctx, end := observability.StartSpan(ctx, "CategoryService", "Restore", attribute.Int64("category.id", int64(id)))
	defer func() {
		observability.RecordTransition("category", "restore", err)
		end(err)
	}()

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		if err := authorize(ctx, p, authz.ActionRestoreCategory, authz.CategoryResource(current, 0, 0)); err != nil {
			return err
		}
		next, err := lifecycle.RestoreCategory(current.Status)
		if err != nil {
			return err
		}
		category, err = s.transition(ctx, tx, p, current, []models.CategoryStatus{models.CategoryArchived}, next, "restore")
		return err
	})
	return category, err
}

// transition writes next only while the row is still in one of from. Losing
// a race to another writer surfaces as INVALID_TRANSITION from the state
// that writer left behind.
func (s *CategoryService) transition(ctx context.Context, tx *repository.Store, p *authz.Principal, current *models.Category, from []models.CategoryStatus, next models.CategoryStatus, action string) (*models.Category, error) {
	ok, err := tx.Categories.TransitionStatus(ctx, current.ID, from, next)
	if err != nil {
		return nil, err
	}
	updated, err := tx.Categories.GetByID(ctx, current.ID)
	if err != nil {
		return nil, notFound(err, "category", current.ID)
	}
	if !ok {
		return nil, models.NewInvalidTransitionError("category", string(updated.Status), action)
	}
	observability.LogTransition(ctx, "category", current.ID, string(current.Status), string(next), actorID(p))
	return updated, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
