package server

import (
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListTags handles GET /api/tags
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /tags [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.services.Tags.List(c.UserContext(), middleware.Principal(c), parsePagination(c))
	return respond(c, fiber.StatusOK, tags, err)
}

// GetTag handles GET /api/tags/:id
func (s *Server) GetTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	tag, err := s.services.Tags.Get(c.UserContext(), middleware.Principal(c), id)
	return respond(c, fiber.StatusOK, tag, err)
}

// CreateTag handles POST /api/tags
// @Summary Create tag
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.TagInput true "Tag"
// @Success 201 {object} models.Tag
// @Router /tags [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var in service.TagInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	tag, err := s.services.Tags.Create(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusCreated, tag, err)
}

// DeleteTag handles DELETE /api/tags/:id
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.services.Tags.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
