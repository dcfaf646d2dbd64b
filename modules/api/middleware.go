package api

import (
	"strings"

	"github.com/example/serverless-task-api/modules/identity"
	"github.com/gofiber/fiber/v2"
)

// Authenticate verifies the bearer credential on protected routes and attaches
// an authorizer context of the given shape. Requests without an Authorization
// header pass through untouched so the handler can answer "Missing token".
func Authenticate(identityPort identity.IdentityPort, shape string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		token := bearerToken(authHeader)
		if token == "" {
			return unauthorized(c)
		}

		claims, err := identityPort.VerifyToken(c.UserContext(), token)
		if err != nil {
			return unauthorized(c)
		}

		c.Locals(AuthorizerKey, NewAuthorizer(shape, map[string]any{
			"sub":       claims.Subject,
			"username":  claims.Username,
			"email":     claims.Email,
			"token_use": claims.TokenUse,
		}))

		return c.Next()
	}
}

// bearerToken accepts both "Bearer <token>" and a raw token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	return header
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(MessageResponse{
		Message: "Unauthorized",
	})
}
