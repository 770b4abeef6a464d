package server

import (
	"errors"
	"strconv"
	"strings"

	"campusforum/internal/models"
	"campusforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters.
func parsePagination(c *fiber.Ctx) service.ListInput {
	limit := c.QueryInt("limit", maxPaginationLimit)
	if limit <= 0 || limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return service.ListInput{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter as a positive uint. On failure it
// writes a 404 response, since no object can live at that path, and returns
// errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, models.NewNotFoundError("object", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// queryID parses an optional numeric filter. Bad values produce a field error.
func queryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, models.NewFieldValidationError(name, "A valid integer is required.")
	}
	v := uint(id)
	return &v, nil
}

// bindJSON decodes the request body into dst.
func bindJSON(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// respond writes the service error or the payload with status.
func respond(c *fiber.Ctx, status int, payload any, err error) error {
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(status).JSON(payload)
}
