package server

import (
	"context"

	"campusforum/internal/authz"
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListReports handles GET /api/reports
// @Summary List reports
// @Description Moderators see every report, other users only their own
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, REVIEWED, RESOLVED or DISMISSED"
// @Success 200 {array} models.Report
// @Router /reports [get]
func (s *Server) ListReports(c *fiber.Ctx) error {
	reports, err := s.services.Reports.List(c.UserContext(), middleware.Principal(c), service.ListReportsInput{
		Status:    c.Query("status"),
		ListInput: parsePagination(c),
	})
	return respond(c, fiber.StatusOK, reports, err)
}

// GetReport handles GET /api/reports/:id
func (s *Server) GetReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	report, err := s.services.Reports.Get(c.UserContext(), middleware.Principal(c), id)
	return respond(c, fiber.StatusOK, report, err)
}

// CreateReport handles POST /api/reports
// @Summary Report a post or comment
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateReportInput true "Report"
// @Success 201 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Router /reports [post]
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var in service.CreateReportInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	report, err := s.services.Reports.Create(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusCreated, report, err)
}

// ReviewReport handles POST /api/reports/:id/review
// @Summary Mark a pending report as reviewed
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 200 {object} object{message=string,status=string}
// @Failure 409 {object} models.ErrorResponse
// @Router /reports/{id}/review [post]
func (s *Server) ReviewReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	report, err := s.services.Reports.Review(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report marked as reviewed", "status": report.Status})
}

// ResolveReport handles POST /api/reports/:id/resolve
// @Summary Resolve a report and apply the moderation action
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param request body service.ModerationInput false "Moderation action"
// @Success 200 {object} object{message=string,status=string}
// @Router /reports/{id}/resolve [post]
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	return s.moderate(c, s.services.Reports.Resolve, "Report resolved")
}

// DismissReport handles POST /api/reports/:id/dismiss
func (s *Server) DismissReport(c *fiber.Ctx) error {
	return s.moderate(c, s.services.Reports.Dismiss, "Report dismissed")
}

func (s *Server) moderate(
	c *fiber.Ctx,
	apply func(ctx context.Context, p *authz.Principal, id uint, in service.ModerationInput) (*models.Report, error),
	message string,
) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.ModerationInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	report, err := apply(c.UserContext(), middleware.Principal(c), id, in)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": message, "status": report.Status})
}
