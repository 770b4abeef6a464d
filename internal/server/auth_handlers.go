package server

import (
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/service"
	"campusforum/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create a PROFESSOR or STUDENT account and log it in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} auth.Session
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		return models.RespondWithError(c, err)
	}
	session, err := s.services.Users.Register(c.UserContext(), in)
	return respond(c, fiber.StatusCreated, session, err)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Exchange credentials for an access and refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} auth.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	if err := validation.Struct(req); err != nil {
		return models.RespondWithError(c, err)
	}
	session, err := s.provider.Login(c.UserContext(), req.Email, req.Password)
	return respond(c, fiber.StatusOK, session, err)
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest true "Refresh token"
// @Success 200 {object} object{access=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	if err := validation.Struct(req); err != nil {
		return models.RespondWithError(c, err)
	}
	access, err := s.provider.Refresh(c.UserContext(), req.Refresh)
	return respond(c, fiber.StatusOK, fiber.Map{"access": access}, err)
}

// Logout handles POST /api/users/logout
// @Summary Logout
// @Description Revoke the supplied refresh token
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param request body refreshRequest true "Refresh token"
// @Success 205
// @Failure 400 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	p := middleware.Principal(c)
	if err := s.provider.Logout(c.UserContext(), p.UserID, req.Refresh); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusResetContent)
}
