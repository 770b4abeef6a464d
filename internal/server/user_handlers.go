package server

import (
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.services.Users.Me(c.UserContext(), middleware.Principal(c))
	return respond(c, fiber.StatusOK, user, err)
}

// UpdateMe handles PUT /api/users/me
// @Summary Replace profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	return s.updateMe(c, false)
}

// PatchMe handles PATCH /api/users/me
// @Summary Update profile fields
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile"
// @Success 200 {object} models.User
// @Router /users/me [patch]
func (s *Server) PatchMe(c *fiber.Ctx) error {
	return s.updateMe(c, true)
}

func (s *Server) updateMe(c *fiber.Ctx, partial bool) error {
	var in service.UpdateProfileInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	in.Partial = partial
	user, err := s.services.Users.UpdateMe(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusOK, user, err)
}
