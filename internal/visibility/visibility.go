// Package visibility narrows listings to the records a principal may see.
// It never denies; it only produces scopes that repositories translate
// into query predicates.
package visibility

import (
	"strings"

	"campusforum/internal/authz"
	"campusforum/internal/models"
)

// CategoryQuery holds the caller supplied category filters.
type CategoryQuery struct {
	Status string
}

// CategoryScope selects categories. An empty Statuses means any status.
type CategoryScope struct {
	Statuses []models.CategoryStatus
}

// Categories returns the category scope for p.
func Categories(p *authz.Principal, q CategoryQuery) CategoryScope {
	if q.Status != "" {
		return CategoryScope{Statuses: []models.CategoryStatus{models.CategoryStatus(q.Status)}}
	}
	if p.IsModerator() {
		return CategoryScope{}
	}
	return CategoryScope{Statuses: []models.CategoryStatus{models.CategoryActive, models.CategoryInactive}}
}

// Matches reports whether c falls inside the scope.
func (s CategoryScope) Matches(c *models.Category) bool {
	return len(s.Statuses) == 0 || containsStatus(s.Statuses, c.Status)
}

// PostQuery holds the caller supplied post filters.
type PostQuery struct {
	Status     string
	Search     string
	CategoryID *uint
	AuthorID   *uint
	// AllStatuses clears the role based status default.
	AllStatuses bool
}

// PostScope selects posts. An empty Statuses means any status.
type PostScope struct {
	Statuses   []models.PostStatus
	Search     string
	CategoryID *uint
	AuthorID   *uint
}

// Posts returns the post scope for p.
func Posts(p *authz.Principal, q PostQuery) PostScope {
	scope := PostScope{
		Search:     strings.TrimSpace(q.Search),
		CategoryID: q.CategoryID,
		AuthorID:   q.AuthorID,
	}
	switch {
	case q.Status != "":
		scope.Statuses = []models.PostStatus{models.PostStatus(q.Status)}
	case q.AllStatuses, p.IsModerator():
	default:
		scope.Statuses = []models.PostStatus{models.PostPublished}
	}
	return scope
}

// Matches reports whether post falls inside the scope.
func (s PostScope) Matches(post *models.Post) bool {
	if len(s.Statuses) > 0 && !containsStatus(s.Statuses, post.Status) {
		return false
	}
	if s.CategoryID != nil && post.CategoryID != *s.CategoryID {
		return false
	}
	if s.AuthorID != nil && post.AuthorID != *s.AuthorID {
		return false
	}
	if s.Search != "" {
		needle := strings.ToLower(s.Search)
		return strings.Contains(strings.ToLower(post.Title), needle) ||
			strings.Contains(strings.ToLower(post.Content), needle)
	}
	return true
}

// ReportQuery holds the caller supplied report filters.
type ReportQuery struct {
	Status string
}

// ReportScope selects reports. ReporterID restricts to one reporter.
type ReportScope struct {
	Statuses   []models.ReportStatus
	ReporterID *uint
	// None matches nothing; used for anonymous callers.
	None bool
}

// Reports returns the report scope for p. Non-moderators only ever see
// their own reports and their status filter is ignored.
func Reports(p *authz.Principal, q ReportQuery) ReportScope {
	if p == nil {
		return ReportScope{None: true}
	}
	if !p.IsModerator() {
		id := p.UserID
		return ReportScope{ReporterID: &id}
	}
	if q.Status != "" {
		return ReportScope{Statuses: []models.ReportStatus{models.ReportStatus(q.Status)}}
	}
	return ReportScope{Statuses: []models.ReportStatus{models.ReportPending, models.ReportReviewed}}
}

// Matches reports whether r falls inside the scope.
func (s ReportScope) Matches(r *models.Report) bool {
	if s.None {
		return false
	}
	if s.ReporterID != nil && r.ReporterID != *s.ReporterID {
		return false
	}
	return len(s.Statuses) == 0 || containsStatus(s.Statuses, r.Status)
}

func containsStatus[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
