package server

import (
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/categories
// @Summary List categories
// @Description Archived categories are hidden from anonymous users and students unless a status filter is given
// @Tags categories
// @Produce json
// @Param status query string false "ACTIVE, INACTIVE or ARCHIVED"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.services.Categories.List(c.UserContext(), middleware.Principal(c), service.ListCategoriesInput{
		Status:    c.Query("status"),
		ListInput: parsePagination(c),
	})
	return respond(c, fiber.StatusOK, categories, err)
}

// GetCategory handles GET /api/categories/:id
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.services.Categories.Get(c.UserContext(), middleware.Principal(c), id)
	return respond(c, fiber.StatusOK, category, err)
}

// CreateCategory handles POST /api/categories
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CategoryInput true "Category"
// @Success 201 {object} models.Category
// @Failure 403 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var in service.CategoryInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	category, err := s.services.Categories.Create(c.UserContext(), middleware.Principal(c), in)
	return respond(c, fiber.StatusCreated, category, err)
}

// UpdateCategory handles PUT and PATCH /api/categories/:id
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body service.CategoryInput true "Category"
// @Success 200 {object} models.Category
// @Router /categories/{id} [put]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.CategoryInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	category, err := s.services.Categories.Update(c.UserContext(), middleware.Principal(c), id, in)
	return respond(c, fiber.StatusOK, category, err)
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary Delete category
// @Description Refused with 409 while the category holds posts
// @Tags categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.services.Categories.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleCategoryStatus handles POST /api/categories/:id/toggle_status
// @Summary Toggle ACTIVE and INACTIVE
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} object{message=string,status=string}
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id}/toggle_status [post]
func (s *Server) ToggleCategoryStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.services.Categories.ToggleStatus(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Category status changed to " + string(category.Status),
		"status":  category.Status,
	})
}

// ArchiveCategory handles POST /api/categories/:id/archive
// @Summary Archive category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} object{message=string,status=string}
// @Router /categories/{id}/archive [post]
func (s *Server) ArchiveCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	category, changed, err := s.services.Categories.Archive(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	message := "Category archived"
	if !changed {
		message = "Category is already archived"
	}
	return c.JSON(fiber.Map{"message": message, "status": category.Status})
}

// RestoreCategory handles POST /api/categories/:id/restore
// @Summary Restore archived category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} object{message=string,status=string}
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id}/restore [post]
func (s *Server) RestoreCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.services.Categories.Restore(c.UserContext(), middleware.Principal(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category restored", "status": category.Status})
}
