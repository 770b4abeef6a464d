package server

import (
	"context"

	"campusforum/internal/authz"
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postFilters reads the listing query string shared by /posts and /posts/my-posts.
func postFilters(c *fiber.Ctx) (service.ListPostsInput, error) {
	in := service.ListPostsInput{
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		Ordering:  c.Query("ordering"),
		ListInput: parsePagination(c),
	}
	var err error
	if in.CategoryID, err = queryID(c, "category"); err != nil {
		return in, err
	}
	if in.AuthorID, err = queryID(c, "author"); err != nil {
		return in, err
	}
	return in, nil
}

// ListPosts handles GET /api/posts
// @Summary List posts
// @Description Anonymous users and students see published posts only; authors also see their own drafts
// @Tags posts
// @Produce json
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param category query int false "Category ID"
// @Param author query int false "Author ID"
// @Param search query string false "Matches title or content"
// @Param ordering query string false "created_at, -created_at, title or -title"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	in, err := postFilters(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	posts, err := s.services.Posts.List(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusOK, posts, err)
}

// ListMyPosts handles GET /api/posts/my-posts
// @Summary List the caller's posts in every status
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /posts/my-posts [get]
func (s *Server) ListMyPosts(c *fiber.Ctx) error {
	in, err := postFilters(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	posts, err := s.services.Posts.ListMine(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusOK, posts, err)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.services.Posts.Get(c.UserContext(), middleware.Principal(c), id)
	return respond(c, fiber.StatusOK, post, err)
}

// CreatePost handles POST /api/posts
// @Summary Create a draft post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	post, err := s.services.Posts.Create(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusCreated, post, err)
}

// UpdatePost handles PUT and PATCH /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.UpdatePostInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	post, err := s.services.Posts.Update(c.UserContext(), middleware.Principal(c), id, in)
	return respond(c, fiber.StatusOK, post, err)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.services.Posts.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PublishPost handles POST /api/posts/:id/publish
// @Summary Publish a draft
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string,status=string}
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{id}/publish [post]
func (s *Server) PublishPost(c *fiber.Ctx) error {
	return s.postTransition(c, s.services.Posts.Publish, "Post published")
}

// ArchivePost handles POST /api/posts/:id/archive
func (s *Server) ArchivePost(c *fiber.Ctx) error {
	return s.postTransition(c, s.services.Posts.Archive, "Post archived")
}

func (s *Server) postTransition(c *fiber.Ctx, apply func(ctx context.Context, p *authz.Principal, id uint) (*models.Post, error), message string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := apply(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": message, "status": post.Status})
}
