// Package middleware provides the HTTP middleware chain: request context and
// logging, principal resolution, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"strings"

	"campusforum/internal/authz"
	"campusforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PrincipalLocal is the fiber.Locals key holding the resolved *authz.Principal.
const PrincipalLocal = "principal"

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authz.Principal, error)
}

// ResolvePrincipal authenticates the bearer token when one is sent. Requests
// without an Authorization header continue as anonymous; a header that does
// not carry a valid token is rejected.
func ResolvePrincipal(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" {
			return c.Next()
		}

		token, ok := bearerToken(header)
		if !ok {
			return models.RespondWithError(c, models.NewAuthenticationRequiredError("invalid authorization header format"))
		}

		principal, err := authn.Authenticate(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, err)
		}

		c.Locals(PrincipalLocal, principal)
		c.Locals("userID", principal.UserID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, principal.UserID))
		return c.Next()
	}
}

// AuthRequired rejects anonymous requests. It must run after ResolvePrincipal.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Principal(c) == nil {
			return models.RespondWithError(c, models.NewAuthenticationRequiredError(""))
		}
		return c.Next()
	}
}

// Principal returns the caller resolved by ResolvePrincipal, nil for anonymous.
func Principal(c *fiber.Ctx) *authz.Principal {
	p, _ := c.Locals(PrincipalLocal).(*authz.Principal)
	return p
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
