package server

import (
	"campusforum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// PlatformAnalytics handles GET /api/analytics
// @Summary Platform statistics
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PlatformStatistics
// @Failure 401 {object} models.ErrorResponse
// @Router /analytics [get]
func (s *Server) PlatformAnalytics(c *fiber.Ctx) error {
	stats, err := s.services.Analytics.Platform(c.UserContext(), middleware.Principal(c))
	return respond(c, fiber.StatusOK, stats, err)
}

// CategoryAnalytics handles GET /api/analytics/category/:id
// @Summary Statistics for one category
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} models.CategoryStatistics
// @Router /analytics/category/{id} [get]
func (s *Server) CategoryAnalytics(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	stats, err := s.services.Analytics.Category(c.UserContext(), middleware.Principal(c), id)
	return respond(c, fiber.StatusOK, stats, err)
}
