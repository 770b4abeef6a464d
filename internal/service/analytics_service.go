package service

import (
	"context"
	"time"

	"campusforum/internal/authz"
	"campusforum/internal/models"
	"campusforum/internal/observability"
	"campusforum/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	recentWindow       = 7 * 24 * time.Hour
	topPostersLimit    = 10
	mostCommentedLimit = 10
	topPostsLimit      = 5
)

// AnalyticsService computes platform and per-category statistics.
type AnalyticsService struct {
	store *repository.Store
	now   Clock
}

func NewAnalyticsService(store *repository.Store, now Clock) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{store: store, now: now}
}

// Platform returns the platform-wide snapshot. Each figure is computed from
// current data; the figures are not a single consistent snapshot.
func (s *AnalyticsService) Platform(ctx context.Context, p *authz.Principal) (stats *models.PlatformStatistics, err error) {
	if err := authorize(ctx, p, authz.ActionList, authz.Resource{Kind: authz.KindAnalytics}); err != nil {
		return nil, err
	}
	ctx, end := observability.StartSpan(ctx, "AnalyticsService", "Platform")
	defer func() { end(err) }()

	now := s.now().UTC()
	analytics := s.store.Analytics

	general, err := analytics.GeneralStats(ctx, now.Add(-recentWindow), now)
	if err != nil {
		return nil, err
	}
	byCategory, err := analytics.PostsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	posters, err := analytics.TopPosters(ctx, topPostersLimit)
	if err != nil {
		return nil, err
	}
	commented, err := analytics.MostCommentedCategories(ctx, mostCommentedLimit)
	if err != nil {
		return nil, err
	}

	return &models.PlatformStatistics{
		General:                 general,
		PostsByCategory:         byCategory,
		TopPosters:              posters,
		CategoriesMostCommented: commented,
	}, nil
}

// Category returns the statistics of one category in any status.
func (s *AnalyticsService) Category(ctx context.Context, p *authz.Principal, id uint) (stats *models.CategoryStatistics, err error) {
	if err := authorize(ctx, p, authz.ActionRetrieve, authz.Resource{Kind: authz.KindAnalytics}); err != nil {
		return nil, err
	}
	ctx, end := observability.StartSpan(ctx, "AnalyticsService", "Category", attribute.Int64("category.id", int64(id)))
	defer func() { end(err) }()

	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	totals, err := s.store.Analytics.CategoryTotals(ctx, id)
	if err != nil {
		return nil, err
	}
	top, err := s.store.Analytics.TopPostsByComments(ctx, id, topPostsLimit)
	if err != nil {
		return nil, err
	}

	return &models.CategoryStatistics{
		Category: models.CategorySummary{ID: category.ID, Name: category.Name, Description: category.Description},
		Stats:    totals,
		TopPosts: top,
	}, nil
}
