package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"campusforum/internal/authz"
	"campusforum/internal/lifecycle"
	"campusforum/internal/models"
	"campusforum/internal/observability"
	"campusforum/internal/repository"
	"campusforum/internal/validation"
	"campusforum/internal/visibility"

	"go.opentelemetry.io/otel/attribute"
)

type ReportService struct {
	store  *repository.Store
	now    Clock
	events ReportEvents
}

// ReportEvents is told about reports after their changes are committed.
type ReportEvents interface {
	ReportFiled(ctx context.Context, r *models.Report) error
	ReportUpdated(ctx context.Context, r *models.Report) error
}

type CreateReportInput struct {
	Type      string `json:"type" validate:"required,oneof=POST COMMENT"`
	PostID    *uint  `json:"post_id"`
	CommentID *uint  `json:"comment_id"`
	Reason    string `json:"reason" validate:"notblank"`
}

// ModerationInput carries the moderator's note for resolve and dismiss.
type ModerationInput struct {
	ActionTaken string `json:"action_taken"`
}

type ListReportsInput struct {
	Status string
	ListInput
}

func NewReportService(store *repository.Store, now Clock) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{store: store, now: now}
}

// SetEvents installs the publisher for report events.
func (s *ReportService) SetEvents(events ReportEvents) {
	s.events = events
}

// notify publishes after commit. Delivery failures are logged and never
// undo the change.
func (s *ReportService) notify(ctx context.Context, publish func(context.Context, *models.Report) error, r *models.Report) {
	if err := publish(ctx, r); err != nil {
		slog.WarnContext(ctx, "report event not delivered",
			slog.Uint64("report_id", uint64(r.ID)), slog.String("error", err.Error()))
	}
}

// List returns the moderation queue for moderators and the caller's own
// reports for everyone else.
func (s *ReportService) List(ctx context.Context, p *authz.Principal, in ListReportsInput) ([]*models.Report, error) {
	if in.Status != "" && !models.ReportStatus(in.Status).Valid() {
		return nil, models.NewFieldValidationError("status", "Select a valid choice.")
	}
	if err := authorize(ctx, p, authz.ActionList, authz.Resource{Kind: authz.KindReport}); err != nil {
		return nil, err
	}
	return s.store.Reports.List(ctx, visibility.Reports(p, visibility.ReportQuery{Status: in.Status}), in.page())
}

// Get returns a report its reporter or a moderator may see. Reports of other
// users are reported as missing.
func (s *ReportService) Get(ctx context.Context, p *authz.Principal, id uint) (*models.Report, error) {
	report, err := s.store.Reports.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "report", id)
	}
	if err := authorize(ctx, p, authz.ActionRetrieve, authz.ReportResource(report)); err != nil {
		if models.IsCode(err, models.CodePermissionDenied) {
			return nil, models.NewNotFoundError("report", id)
		}
		return nil, err
	}
	return report, nil
}

// Create files a PENDING report by p against a post or a comment.
func (s *ReportService) Create(ctx context.Context, p *authz.Principal, in CreateReportInput) (*models.Report, error) {
	if err := authorize(ctx, p, authz.ActionCreate, authz.Resource{Kind: authz.KindReport}); err != nil {
		return nil, err
	}

	fieldErrs := map[string]string{}
	reportType := models.ReportType(in.Type)
	switch reportType {
	case models.ReportTypePost:
		if in.PostID == nil {
			fieldErrs["post_id"] = "post_id is required when type is POST."
		}
		if in.CommentID != nil {
			fieldErrs["comment_id"] = "comment_id must be empty when type is POST."
		}
	case models.ReportTypeComment:
		if in.CommentID == nil {
			fieldErrs["comment_id"] = "comment_id is required when type is COMMENT."
		}
		if in.PostID != nil {
			fieldErrs["post_id"] = "post_id must be empty when type is COMMENT."
		}
	}
	if len(fieldErrs) == 0 {
		if err := s.checkTarget(ctx, p, reportType, in, fieldErrs); err != nil {
			return nil, err
		}
	}
	if err := validation.Merge(validation.Struct(in), fieldErrs); err != nil {
		return nil, err
	}

	report := &models.Report{
		Type:       reportType,
		ReporterID: p.UserID,
		PostID:     in.PostID,
		CommentID:  in.CommentID,
		Reason:     strings.TrimSpace(in.Reason),
		Status:     models.ReportPending,
	}
	if err := s.store.Reports.Create(ctx, report); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "report filed",
		slog.Uint64("report_id", uint64(report.ID)),
		slog.String("type", string(report.Type)),
		slog.Uint64("reporter_id", uint64(report.ReporterID)),
	)
	created, err := s.store.Reports.GetByID(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.notify(ctx, s.events.ReportFiled, created)
	}
	return created, nil
}

func (s *ReportService) checkTarget(ctx context.Context, p *authz.Principal, t models.ReportType, in CreateReportInput, fieldErrs map[string]string) error {
	switch t {
	case models.ReportTypePost:
		post, err := s.store.Posts.GetByID(ctx, *in.PostID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		if err != nil || (!p.Owns(post.AuthorID) && !visibility.Posts(p, visibility.PostQuery{}).Matches(post)) {
			fieldErrs["post_id"] = missingReference(*in.PostID)
		}
	case models.ReportTypeComment:
		if _, err := s.store.Comments.GetByID(ctx, *in.CommentID); err != nil {
			if !repository.IsNotFound(err) {
				return err
			}
			fieldErrs["comment_id"] = missingReference(*in.CommentID)
		}
	}
	return nil
}

// Review marks a PENDING report as REVIEWED.
func (s *ReportService) Review(ctx context.Context, p *authz.Principal, id uint) (*models.Report, error) {
	return s.transition(ctx, p, id, authz.ActionReviewReport, "review",
		func(r *models.Report, reviewer uint, now time.Time) (lifecycle.ReportChange, error) {
			return lifecycle.ReviewReport(r, reviewer, now)
		})
}

// Resolve closes an open report and applies the content effect named by
// the moderator's note in the same transaction.
func (s *ReportService) Resolve(ctx context.Context, p *authz.Principal, id uint, in ModerationInput) (*models.Report, error) {
	return s.transition(ctx, p, id, authz.ActionResolveReport, "resolve",
		func(r *models.Report, reviewer uint, now time.Time) (lifecycle.ReportChange, error) {
			return lifecycle.ResolveReport(r, reviewer, strings.TrimSpace(in.ActionTaken), now)
		})
}

// Dismiss closes an open report without touching the reported content.
func (s *ReportService) Dismiss(ctx context.Context, p *authz.Principal, id uint, in ModerationInput) (*models.Report, error) {
	return s.transition(ctx, p, id, authz.ActionDismissReport, "dismiss",
		func(r *models.Report, reviewer uint, now time.Time) (lifecycle.ReportChange, error) {
			return lifecycle.DismissReport(r, reviewer, in.ActionTaken, now)
		})
}

type reportTransition func(r *models.Report, reviewerID uint, now time.Time) (lifecycle.ReportChange, error)

func (s *ReportService) transition(ctx context.Context, p *authz.Principal, id uint, action authz.Action, name string, next reportTransition) (report *models.Report, err error) {
	ctx, end := observability.StartSpan(ctx, "ReportService", name, attribute.Int64("report.id", int64(id)))
	defer func() {
		observability.RecordTransition("report", name, err)
		end(err)
	}()

	var effect lifecycle.Effect
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Reports.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "report", id)
		}
		if err := authorize(ctx, p, action, authz.ReportResource(current)); err != nil {
			return err
		}
		change, err := next(current, p.UserID, s.now().UTC())
		if err != nil {
			return err
		}

		ok, err := tx.Reports.ApplyChange(ctx, id, change)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := tx.Reports.GetByID(ctx, id)
			if err != nil {
				return notFound(err, "report", id)
			}
			return models.NewInvalidTransitionError("report", string(latest.Status), name)
		}
		if err := applyEffect(ctx, tx, current, change.Effect); err != nil {
			return err
		}
		effect = change.Effect

		observability.LogTransition(ctx, "report", id, string(change.From), string(change.To), p.UserID)
		report, err = tx.Reports.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if effect != lifecycle.EffectNone {
		observability.RecordModerationEffect(effect.String())
	}
	if s.events != nil {
		s.notify(ctx, s.events.ReportUpdated, report)
	}
	return report, nil
}

// applyEffect changes the reported content. Content that is already gone,
// or a post that is already archived, needs no change.
func applyEffect(ctx context.Context, tx *repository.Store, r *models.Report, effect lifecycle.Effect) error {
	switch effect {
	case lifecycle.EffectArchivePost:
		_, err := tx.Posts.TransitionStatus(ctx, *r.PostID,
			[]models.PostStatus{models.PostDraft, models.PostPublished}, models.PostArchived)
		return err
	case lifecycle.EffectDeletePost:
		return tx.Posts.Delete(ctx, *r.PostID)
	case lifecycle.EffectDeleteComment:
		return tx.Comments.Delete(ctx, *r.CommentID)
	}
	return nil
}
