package server

import (
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/comments
// @Summary List comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param post query int false "Post ID"
// @Success 200 {array} models.Comment
// @Router /comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := queryID(c, "post")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	comments, err := s.services.Comments.List(c.UserContext(), middleware.Principal(c), service.ListCommentsInput{
		PostID:    postID,
		ListInput: parsePagination(c),
	})
	return respond(c, fiber.StatusOK, comments, err)
}

// GetComment handles GET /api/comments/:id
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.services.Comments.Get(c.UserContext(), middleware.Principal(c), id)
	return respond(c, fiber.StatusOK, comment, err)
}

// CreateComment handles POST /api/comments
// @Summary Comment on a visible post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var in service.CreateCommentInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	comment, err := s.services.Comments.Create(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusCreated, comment, err)
}

// UpdateComment handles PUT and PATCH /api/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.UpdateCommentInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	comment, err := s.services.Comments.Update(c.UserContext(), middleware.Principal(c), id, in)
	return respond(c, fiber.StatusOK, comment, err)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.services.Comments.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
