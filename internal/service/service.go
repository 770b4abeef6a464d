// Package service implements the forum operations. Every operation
// authorizes the caller, validates input, applies lifecycle rules and
// persists the outcome, with state changes done in one transaction.
package service

import (
	"context"
	"fmt"
	"time"

	"campusforum/internal/auth"
	"campusforum/internal/authz"
	"campusforum/internal/featureflags"
	"campusforum/internal/models"
	"campusforum/internal/observability"
	"campusforum/internal/repository"
)

// Clock supplies the current time. Tests pin it.
type Clock func() time.Time

// Services bundles every forum service over one store.
type Services struct {
	Users      *UserService
	Categories *CategoryService
	Posts      *PostService
	Tags       *TagService
	Comments   *CommentService
	Reports    *ReportService
	Analytics  *AnalyticsService
}

// New wires every service over store.
func New(store *repository.Store, issuer *auth.Issuer, flags *featureflags.Manager, now Clock) *Services {
	if now == nil {
		now = time.Now
	}
	return &Services{
		Users:      NewUserService(store, issuer),
		Categories: NewCategoryService(store),
		Posts:      NewPostService(store, flags),
		Tags:       NewTagService(store),
		Comments:   NewCommentService(store),
		Reports:    NewReportService(store, now),
		Analytics:  NewAnalyticsService(store, now),
	}
}

// ListInput is the pagination shared by list operations.
type ListInput struct {
	Limit  int
	Offset int
}

const maxPageSize = 100

func (in ListInput) page() repository.Page {
	limit := in.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// authorize asks the authorization engine and records denials.
func authorize(ctx context.Context, p *authz.Principal, action authz.Action, res authz.Resource) error {
	err := authz.Authorize(p, action, res)
	if err != nil {
		observability.RecordDenial(string(res.Kind), string(action), err)
		observability.LogDenial(ctx, string(res.Kind), string(action), err)
	}
	return err
}

// notFound converts a missing row into NOT_FOUND for resource id.
func notFound(err error, resource string, id uint) error {
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}

// missingReference is the field message for a payload id that names no
// row the caller can see.
func missingReference(id uint) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func actorID(p *authz.Principal) uint {
	if p == nil {
		return 0
	}
	return p.UserID
}

func uintPtr(v uint) *uint {
	return &v
}
