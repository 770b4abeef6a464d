package repository

import (
	"context"

	"campusforum/internal/lifecycle"
	"campusforum/internal/models"
	"campusforum/internal/visibility"

	"gorm.io/gorm"
)

// ReportRepository defines the interface for report data operations
type ReportRepository interface {
	List(ctx context.Context, scope visibility.ReportScope, page Page) ([]*models.Report, error)
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	// ApplyChange writes a report transition only while the report is still
	// in change.From. It reports whether a row changed.
	ApplyChange(ctx context.Context, id uint, change lifecycle.ReportChange) (bool, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Reporter").Preload("Reviewer")
}

func (r *reportRepository) List(ctx context.Context, scope visibility.ReportScope, page Page) ([]*models.Report, error) {
	if scope.None {
		return []*models.Report{}, nil
	}
	var reports []*models.Report
	q := r.withDetails(r.db.WithContext(ctx))
	if len(scope.Statuses) > 0 {
		q = q.Where("status IN ?", scope.Statuses)
	}
	if scope.ReporterID != nil {
		q = q.Where("reporter_id = ?", *scope.ReporterID)
	}
	err := page.apply(q.Order("created_at DESC, id DESC")).Find(&reports).Error
	return reports, Classify(err)
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.withDetails(r.db.WithContext(ctx)).First(&report, id).Error; err != nil {
		return nil, Classify(err)
	}
	return &report, nil
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	err := r.db.WithContext(ctx).Omit("Reporter", "Post", "Comment", "Reviewer").Create(report).Error
	if IsForeignKeyViolation(err) {
		field := "post_id"
		if report.Type == models.ReportTypeComment {
			field = "comment_id"
		}
		return models.NewFieldValidationError(field, "Referenced content does not exist")
	}
	return Classify(err)
}

func (r *reportRepository) ApplyChange(ctx context.Context, id uint, change lifecycle.ReportChange) (bool, error) {
	updates := map[string]any{
		"status":      change.To,
		"reviewer_id": change.ReviewerID,
		"reviewed_at": change.ReviewedAt,
	}
	if change.ActionTaken != nil {
		updates["action_taken"] = *change.ActionTaken
	}
	res := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", id, change.From).
		Updates(updates)
	if res.Error != nil {
		return false, Classify(res.Error)
	}
	return res.RowsAffected > 0, nil
}
