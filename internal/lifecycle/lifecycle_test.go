package lifecycle

import (
	"testing"
	"time"

	"campusforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestToggleCategory(t *testing.T) {
	t.Parallel()

	next, err := ToggleCategory(models.CategoryActive, 0)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryInactive, next)

	next, err = ToggleCategory(models.CategoryInactive, 5)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryActive, next)

	_, err = ToggleCategory(models.CategoryActive, 1)
	assertCode(t, err, models.CodeConflict)

	_, err = ToggleCategory(models.CategoryArchived, 0)
	assertCode(t, err, models.CodeInvalidTransition)
}

func TestArchiveCategoryIsIdempotent(t *testing.T) {
	t.Parallel()

	next, changed := ArchiveCategory(models.CategoryActive)
	assert.Equal(t, models.CategoryArchived, next)
	assert.True(t, changed)

	next, changed = ArchiveCategory(models.CategoryArchived)
	assert.Equal(t, models.CategoryArchived, next)
	assert.False(t, changed)
}

func TestRestoreCategory(t *testing.T) {
	t.Parallel()

	next, err := RestoreCategory(models.CategoryArchived)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryActive, next)

	for _, s := range []models.CategoryStatus{models.CategoryActive, models.CategoryInactive} {
		_, err := RestoreCategory(s)
		assertCode(t, err, models.CodeInvalidTransition)
	}
}

func TestPostTransitions(t *testing.T) {
	t.Parallel()

	next, err := PublishPost(models.PostDraft)
	require.NoError(t, err)
	assert.Equal(t, models.PostPublished, next)

	_, err = PublishPost(models.PostPublished)
	assertCode(t, err, models.CodeInvalidTransition)
	_, err = PublishPost(models.PostArchived)
	assertCode(t, err, models.CodeInvalidTransition)

	for _, s := range []models.PostStatus{models.PostDraft, models.PostPublished} {
		next, err := ArchivePost(s)
		require.NoError(t, err)
		assert.Equal(t, models.PostArchived, next)
	}
	_, err = ArchivePost(models.PostArchived)
	assertCode(t, err, models.CodeInvalidTransition)
}

func TestReviewReport(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Report{Status: models.ReportPending}

	change, err := ReviewReport(r, 7, now)
	require.NoError(t, err)
	change.Apply(r)
	assert.Equal(t, models.ReportReviewed, r.Status)
	assert.Equal(t, uint(7), *r.ReviewerID)
	assert.Equal(t, now, *r.ReviewedAt)

	_, err = ReviewReport(r, 7, now)
	assertCode(t, err, models.CodeInvalidTransition)
}

func TestResolveReportEffects(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name   string
		report models.Report
		action string
		effect Effect
	}{
		{"archive post", models.Report{Type: models.ReportTypePost, PostID: uintPtr(1)}, "Archived the post", EffectArchivePost},
		{"delete post", models.Report{Type: models.ReportTypePost, PostID: uintPtr(1)}, "DELETE spam", EffectDeletePost},
		{"archive wins over delete", models.Report{Type: models.ReportTypePost, PostID: uintPtr(1)}, "delete? no, archive", EffectArchivePost},
		{"delete comment", models.Report{Type: models.ReportTypeComment, CommentID: uintPtr(2)}, "deleted", EffectDeleteComment},
		{"archive ignored on comments", models.Report{Type: models.ReportTypeComment, CommentID: uintPtr(2)}, "archive", EffectNone},
		{"content already gone", models.Report{Type: models.ReportTypePost}, "delete", EffectNone},
		{"warning only", models.Report{Type: models.ReportTypePost, PostID: uintPtr(1)}, "warned the author", EffectNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := tt.report
			r.Status = models.ReportReviewed
			change, err := ResolveReport(&r, 1, tt.action, now)
			require.NoError(t, err)
			assert.Equal(t, models.ReportResolved, change.To)
			assert.Equal(t, tt.effect, change.Effect)
			require.NotNil(t, change.ActionTaken)
			assert.Equal(t, tt.action, *change.ActionTaken)
		})
	}
}

func TestDismissReportDefaultsActionText(t *testing.T) {
	t.Parallel()

	r := &models.Report{Status: models.ReportPending}
	change, err := DismissReport(r, 3, "  ", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.ReportDismissed, change.To)
	assert.Equal(t, models.DismissedPlaceholder, *change.ActionTaken)
	assert.Equal(t, EffectNone, change.Effect)
}

func TestTerminalReportsRejectEveryTransition(t *testing.T) {
	t.Parallel()

	for _, status := range []models.ReportStatus{models.ReportResolved, models.ReportDismissed} {
		action := "original"
		r := &models.Report{Status: status, Type: models.ReportTypePost, PostID: uintPtr(1), ActionTaken: &action}
		before := *r

		_, err := ReviewReport(r, 1, time.Now())
		assertCode(t, err, models.CodeInvalidTransition)
		_, err = ResolveReport(r, 1, "delete", time.Now())
		assertCode(t, err, models.CodeInvalidTransition)
		_, err = DismissReport(r, 1, "", time.Now())
		assertCode(t, err, models.CodeInvalidTransition)

		assert.Equal(t, before, *r)
	}
}
