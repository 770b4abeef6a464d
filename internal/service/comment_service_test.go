package service

import (
	"context"
	"testing"

	"campusforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	alice := env.fx.User(models.RoleStudent)
	bob := env.fx.User(models.RoleStudent)
	prof := env.fx.User(models.RoleProfessor)
	c := env.fx.Category("General", models.CategoryActive)
	published := env.fx.Post(alice, c, models.PostPublished)
	draft := env.fx.Post(alice, c, models.PostDraft)

	t.Run("list requires authentication", func(t *testing.T) {
		_, err := env.svc.Comments.List(ctx, nil, ListCommentsInput{})
		assertCode(t, err, models.CodeAuthenticationRequired)
	})

	t.Run("create validates the post and content", func(t *testing.T) {
		_, err := env.svc.Comments.Create(ctx, as(bob), CreateCommentInput{PostID: draft.ID, Content: "Hidden draft"})
		assert.Contains(t, fieldErrors(t, err), "post_id")

		_, err = env.svc.Comments.Create(ctx, as(bob), CreateCommentInput{PostID: 555, Content: "ok"})
		fields := fieldErrors(t, err)
		assert.Contains(t, fields, "post_id")
		assert.Contains(t, fields, "content")
	})

	var first *models.Comment
	t.Run("create and list newest first", func(t *testing.T) {
		var err error
		first, err = env.svc.Comments.Create(ctx, as(bob), CreateCommentInput{PostID: published.ID, Content: "First comment"})
		require.NoError(t, err)
		assert.Equal(t, bob.ID, first.AuthorID)

		second, err := env.svc.Comments.Create(ctx, as(alice), CreateCommentInput{PostID: draft.ID, Content: "Author note on draft"})
		require.NoError(t, err)

		postID := published.ID
		got, err := env.svc.Comments.List(ctx, as(bob), ListCommentsInput{PostID: &postID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].ID)

		all, err := env.svc.Comments.List(ctx, as(prof), ListCommentsInput{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)

		hidden := draft.ID
		_, err = env.svc.Comments.List(ctx, as(bob), ListCommentsInput{PostID: &hidden})
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("update and delete by author or moderator", func(t *testing.T) {
		require.NotNil(t, first)
		_, err := env.svc.Comments.Update(ctx, as(alice), first.ID, UpdateCommentInput{Content: "Edited by someone else"})
		assertCode(t, err, models.CodePermissionDenied)

		_, err = env.svc.Comments.Update(ctx, as(bob), first.ID, UpdateCommentInput{Content: "no"})
		assert.Contains(t, fieldErrors(t, err), "content")

		got, err := env.svc.Comments.Update(ctx, as(bob), first.ID, UpdateCommentInput{Content: "Edited comment"})
		require.NoError(t, err)
		assert.Equal(t, "Edited comment", got.Content)

		assertCode(t, env.svc.Comments.Delete(ctx, as(alice), first.ID), models.CodePermissionDenied)
		require.NoError(t, env.svc.Comments.Delete(ctx, as(prof), first.ID))

		_, err = env.svc.Comments.Get(ctx, as(bob), first.ID)
		assertCode(t, err, models.CodeNotFound)
	})
}
