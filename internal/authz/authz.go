// Package authz decides whether a principal may perform an action on a
// resource. Decisions are pure: they depend only on the arguments.
package authz

import (
	"fmt"

	"campusforum/internal/models"
)

// Principal is an authenticated caller. A nil *Principal is anonymous.
type Principal struct {
	UserID uint
	Role   models.Role
}

// IsModerator reports whether p is an authenticated ADMIN or PROFESSOR.
func (p *Principal) IsModerator() bool {
	return p != nil && p.Role.IsModerator()
}

// Owns reports whether p is the owner identified by ownerID.
func (p *Principal) Owns(ownerID uint) bool {
	return p != nil && ownerID != 0 && p.UserID == ownerID
}

// Action names an operation on a resource.
type Action string

const (
	ActionList            Action = "read-list"
	ActionRetrieve        Action = "read-one"
	ActionCreate          Action = "create"
	ActionUpdate          Action = "update"
	ActionDelete          Action = "delete"
	ActionPublish         Action = "publish"
	ActionArchivePost     Action = "archive-post"
	ActionToggleCategory  Action = "toggle-category-status"
	ActionArchiveCategory Action = "archive-category"
	ActionRestoreCategory Action = "restore-category"
	ActionReviewReport    Action = "review-report"
	ActionResolveReport   Action = "resolve-report"
	ActionDismissReport   Action = "dismiss-report"
)

// Kind names a resource type.
type Kind string

const (
	KindCategory  Kind = "category"
	KindPost      Kind = "post"
	KindTag       Kind = "tag"
	KindComment   Kind = "comment"
	KindReport    Kind = "report"
	KindAnalytics Kind = "analytics"
	KindProfile   Kind = "profile"
)

// Resource is the snapshot of the target needed to decide. List actions
// carry only the Kind.
type Resource struct {
	Kind    Kind
	OwnerID uint
	Status  string
	// PostCount and PublishedPostCount are only consulted for categories.
	PostCount          int64
	PublishedPostCount int64
}

// CategoryResource builds the snapshot of c with its post counters.
func CategoryResource(c *models.Category, posts, published int64) Resource {
	return Resource{
		Kind:               KindCategory,
		Status:             string(c.Status),
		PostCount:          posts,
		PublishedPostCount: published,
	}
}

// PostResource builds the snapshot of p.
func PostResource(p *models.Post) Resource {
	return Resource{Kind: KindPost, OwnerID: p.AuthorID, Status: string(p.Status)}
}

// CommentResource builds the snapshot of c.
func CommentResource(c *models.Comment) Resource {
	return Resource{Kind: KindComment, OwnerID: c.AuthorID}
}

// ReportResource builds the snapshot of r.
func ReportResource(r *models.Report) Resource {
	return Resource{Kind: KindReport, OwnerID: r.ReporterID, Status: string(r.Status)}
}

// Authorize returns nil when p may perform action on res. Denials are
// *models.AppError values coded AUTHENTICATION_REQUIRED, PERMISSION_DENIED,
// or CONFLICT when a data-integrity rule blocks an otherwise legal request.
func Authorize(p *Principal, action Action, res Resource) error {
	if p == nil {
		return authorizeAnonymous(action, res)
	}

	switch res.Kind {
	case KindCategory:
		return authorizeCategory(p, action, res)
	case KindTag:
		return authorizeTag(p, action)
	case KindPost:
		return authorizeOwned(p, action, res, "post")
	case KindComment:
		return authorizeOwned(p, action, res, "comment")
	case KindReport:
		return authorizeReport(p, action, res)
	case KindAnalytics:
		if action == ActionList || action == ActionRetrieve {
			return nil
		}
	case KindProfile:
		if p.Owns(res.OwnerID) {
			return nil
		}
	}
	return deny(action, res.Kind)
}

func authorizeAnonymous(action Action, res Resource) error {
	switch res.Kind {
	case KindCategory:
		if isRead(action) && res.Status != string(models.CategoryArchived) {
			return nil
		}
	case KindPost:
		if action == ActionList || (action == ActionRetrieve && res.Status == string(models.PostPublished)) {
			return nil
		}
	case KindTag:
		if action == ActionList {
			return nil
		}
	}
	return models.NewAuthenticationRequiredError("Authentication credentials were not provided")
}

func authorizeCategory(p *Principal, action Action, res Resource) error {
	switch action {
	case ActionList, ActionRetrieve:
		return nil
	case ActionDelete:
		if res.PostCount > 0 {
			return models.NewConflictError("Cannot delete a category that still has posts").
				WithDetail("posts_count", res.PostCount).
				WithDetail("has_posts", true).
				WithDetail("suggestion", "Archive the category instead of deleting it")
		}
	case ActionToggleCategory:
		if res.Status == string(models.CategoryActive) && res.PublishedPostCount > 0 {
			return models.NewConflictError("Cannot deactivate a category with published posts").
				WithDetail("published_posts_count", res.PublishedPostCount)
		}
	case ActionCreate, ActionUpdate, ActionArchiveCategory, ActionRestoreCategory:
	default:
		return deny(action, res.Kind)
	}
	if !p.IsModerator() {
		return deny(action, res.Kind)
	}
	return nil
}

func authorizeTag(p *Principal, action Action) error {
	switch action {
	case ActionList, ActionRetrieve:
		return nil
	case ActionCreate, ActionDelete:
		if p.IsModerator() {
			return nil
		}
	}
	return deny(action, KindTag)
}

// authorizeOwned covers posts and comments: author or moderator.
func authorizeOwned(p *Principal, action Action, res Resource, noun string) error {
	switch action {
	case ActionList, ActionRetrieve, ActionCreate:
		return nil
	case ActionUpdate, ActionDelete:
	case ActionPublish, ActionArchivePost:
		if res.Kind != KindPost {
			return deny(action, res.Kind)
		}
	default:
		return deny(action, res.Kind)
	}
	if p.Owns(res.OwnerID) || p.IsModerator() {
		return nil
	}
	return models.NewPermissionDeniedError(fmt.Sprintf("Only the author or a moderator can %s this %s", action, noun))
}

func authorizeReport(p *Principal, action Action, res Resource) error {
	switch action {
	case ActionList, ActionCreate:
		return nil
	case ActionRetrieve:
		if p.IsModerator() || p.Owns(res.OwnerID) {
			return nil
		}
	case ActionReviewReport, ActionResolveReport, ActionDismissReport:
		if p.IsModerator() {
			return nil
		}
	}
	return deny(action, res.Kind)
}

func isRead(action Action) bool {
	return action == ActionList || action == ActionRetrieve
}

func deny(action Action, kind Kind) error {
	return models.NewPermissionDeniedError(fmt.Sprintf("You do not have permission to %s this %s", action, kind))
}
