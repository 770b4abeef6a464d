// Package lifecycle holds the status state machines for categories, posts,
// and reports. Functions here compute the next state; persisting it is the
// caller's job and must happen in a single transaction together with any
// content effect.
package lifecycle

import (
	"strings"
	"time"

	"campusforum/internal/models"
)

// ToggleCategory flips ACTIVE and INACTIVE. Deactivation is refused while
// the category holds published posts.
func ToggleCategory(current models.CategoryStatus, publishedPosts int64) (models.CategoryStatus, error) {
	switch current {
	case models.CategoryActive:
		if publishedPosts > 0 {
			return current, models.NewConflictError("Cannot deactivate a category with published posts").
				WithDetail("published_posts_count", publishedPosts)
		}
		return models.CategoryInactive, nil
	case models.CategoryInactive:
		return models.CategoryActive, nil
	default:
		return current, models.NewInvalidTransitionError("category", string(current), "toggle")
	}
}

// ArchiveCategory archives from any state. The bool is false when the
// category was already archived.
func ArchiveCategory(current models.CategoryStatus) (models.CategoryStatus, bool) {
	return models.CategoryArchived, current != models.CategoryArchived
}

// RestoreCategory brings an archived category back to ACTIVE.
func RestoreCategory(current models.CategoryStatus) (models.CategoryStatus, error) {
	if current != models.CategoryArchived {
		return current, models.NewInvalidTransitionError("category", string(current), "restore")
	}
	return models.CategoryActive, nil
}

// PublishPost moves a draft to PUBLISHED.
func PublishPost(current models.PostStatus) (models.PostStatus, error) {
	if current != models.PostDraft {
		return current, models.NewInvalidTransitionError("post", string(current), "publish")
	}
	return models.PostPublished, nil
}

// ArchivePost moves a draft or published post to ARCHIVED. ARCHIVED is
// terminal.
func ArchivePost(current models.PostStatus) (models.PostStatus, error) {
	if current != models.PostDraft && current != models.PostPublished {
		return current, models.NewInvalidTransitionError("post", string(current), "archive")
	}
	return models.PostArchived, nil
}

// Effect is a change to reported content that accompanies a report
// transition.
type Effect int

const (
	EffectNone Effect = iota
	EffectArchivePost
	EffectDeletePost
	EffectDeleteComment
)

func (e Effect) String() string {
	switch e {
	case EffectArchivePost:
		return "archive_post"
	case EffectDeletePost:
		return "delete_post"
	case EffectDeleteComment:
		return "delete_comment"
	default:
		return "none"
	}
}

// ReportChange is the full set of field updates for a report transition.
type ReportChange struct {
	From        models.ReportStatus
	To          models.ReportStatus
	ReviewerID  uint
	ReviewedAt  time.Time
	ActionTaken *string
	Effect      Effect
}

// Apply copies the change onto r.
func (c ReportChange) Apply(r *models.Report) {
	r.Status = c.To
	reviewer := c.ReviewerID
	r.ReviewerID = &reviewer
	at := c.ReviewedAt
	r.ReviewedAt = &at
	if c.ActionTaken != nil {
		r.ActionTaken = c.ActionTaken
	}
}

// ReviewReport marks a pending report as REVIEWED.
func ReviewReport(r *models.Report, reviewerID uint, now time.Time) (ReportChange, error) {
	if r.Status != models.ReportPending {
		return ReportChange{}, models.NewInvalidTransitionError("report", string(r.Status), "review")
	}
	return ReportChange{From: r.Status, To: models.ReportReviewed, ReviewerID: reviewerID, ReviewedAt: now}, nil
}

// ResolveReport closes an open report and derives the content effect from
// the action text: "archive" archives a reported post, "delete" removes the
// reported post or comment. Matching is case-insensitive and "archive" wins
// when both appear on a post report.
func ResolveReport(r *models.Report, reviewerID uint, actionTaken string, now time.Time) (ReportChange, error) {
	if r.Status.Terminal() {
		return ReportChange{}, models.NewInvalidTransitionError("report", string(r.Status), "resolve")
	}

	change := ReportChange{From: r.Status, To: models.ReportResolved, ReviewerID: reviewerID, ReviewedAt: now}
	if actionTaken != "" {
		change.ActionTaken = &actionTaken
	}

	action := strings.ToLower(actionTaken)
	switch r.Type {
	case models.ReportTypePost:
		if r.PostID == nil {
			break
		}
		if strings.Contains(action, "archive") {
			change.Effect = EffectArchivePost
		} else if strings.Contains(action, "delete") {
			change.Effect = EffectDeletePost
		}
	case models.ReportTypeComment:
		if r.CommentID != nil && strings.Contains(action, "delete") {
			change.Effect = EffectDeleteComment
		}
	}
	return change, nil
}

// DismissReport closes an open report without touching content.
func DismissReport(r *models.Report, reviewerID uint, actionTaken string, now time.Time) (ReportChange, error) {
	if r.Status.Terminal() {
		return ReportChange{}, models.NewInvalidTransitionError("report", string(r.Status), "dismiss")
	}
	if strings.TrimSpace(actionTaken) == "" {
		actionTaken = models.DismissedPlaceholder
	}
	return ReportChange{
		From:        r.Status,
		To:          models.ReportDismissed,
		ReviewerID:  reviewerID,
		ReviewedAt:  now,
		ActionTaken: &actionTaken,
	}, nil
}

// OpenReportStatuses lists the states a report may leave.
func OpenReportStatuses() []models.ReportStatus {
	return []models.ReportStatus{models.ReportPending, models.ReportReviewed}
}
