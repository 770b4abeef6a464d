package service

import (
	"context"
	"testing"
	"time"

	"campusforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_Platform(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	alice := env.fx.User(models.RoleStudent)
	bob := env.fx.User(models.RoleStudent)
	prof := env.fx.User(models.RoleProfessor)
	require.NoError(t, env.db.Model(prof).Update("is_active", false).Error)

	math := env.fx.Category("Math", models.CategoryActive)
	art := env.fx.Category("Art", models.CategoryActive)
	env.fx.Category("Empty", models.CategoryInactive)

	recent := env.fx.Post(alice, math, models.PostPublished)
	old := env.fx.Post(alice, math, models.PostPublished)
	boundary := env.fx.Post(bob, art, models.PostPublished)
	draft := env.fx.Post(bob, art, models.PostDraft)
	env.fx.Post(prof, art, models.PostPublished)

	setCreated := func(p *models.Post, at time.Time) {
		require.NoError(t, env.db.Model(p).UpdateColumn("created_at", at).Error)
	}
	setCreated(recent, fixedNow.Add(-48*time.Hour))
	setCreated(old, fixedNow.Add(-8*24*time.Hour))
	setCreated(boundary, fixedNow)

	env.fx.Comment(bob, recent)
	env.fx.Comment(bob, recent)
	env.fx.Comment(alice, boundary)
	env.fx.Comment(alice, draft)

	_, err := env.svc.Analytics.Platform(ctx, nil)
	assertCode(t, err, models.CodeAuthenticationRequired)

	stats, err := env.svc.Analytics.Platform(ctx, as(bob))
	require.NoError(t, err)

	assert.Equal(t, models.GeneralStats{
		TotalPosts:      4,
		TotalComments:   4,
		TotalUsers:      2,
		RecentPostsWeek: 1,
	}, stats.General)

	require.Len(t, stats.PostsByCategory, 3)
	assert.Equal(t, "Art", stats.PostsByCategory[0].Name)
	assert.Equal(t, int64(2), stats.PostsByCategory[0].PostsCount)
	assert.Equal(t, "Math", stats.PostsByCategory[1].Name)
	assert.Equal(t, "Empty", stats.PostsByCategory[2].Name)
	assert.Zero(t, stats.PostsByCategory[2].PostsCount)

	require.Len(t, stats.TopPosters, 2)
	assert.Equal(t, alice.ID, stats.TopPosters[0].ID)
	assert.Equal(t, int64(2), stats.TopPosters[0].PostsCount)

	require.Len(t, stats.CategoriesMostCommented, 2)
	assert.Equal(t, math.ID, stats.CategoriesMostCommented[0].ID)
	assert.Equal(t, int64(2), stats.CategoriesMostCommented[0].CommentsCount)
	assert.Equal(t, int64(1), stats.CategoriesMostCommented[1].CommentsCount)
}

func TestAnalyticsService_Category(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	alice := env.fx.User(models.RoleStudent)
	c := env.fx.Category("Physics", models.CategoryArchived)

	published := env.fx.Post(alice, c, models.PostPublished)
	draft := env.fx.Post(alice, c, models.PostDraft)
	env.fx.Comment(alice, published)
	for range 3 {
		env.fx.Comment(alice, draft)
	}

	stats, err := env.svc.Analytics.Category(ctx, as(alice), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Physics", stats.Category.Name)
	assert.Equal(t, models.CategoryTotals{TotalPosts: 1, TotalComments: 1}, stats.Stats)

	require.Len(t, stats.TopPosts, 2)
	assert.Equal(t, draft.ID, stats.TopPosts[0].ID)
	assert.Equal(t, int64(3), stats.TopPosts[0].CommentsCount)

	_, err = env.svc.Analytics.Category(ctx, as(alice), 4040)
	assertCode(t, err, models.CodeNotFound)

	_, err = env.svc.Analytics.Category(ctx, nil, c.ID)
	assertCode(t, err, models.CodeAuthenticationRequired)
}
