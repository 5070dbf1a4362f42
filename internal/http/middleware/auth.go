package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"doccatalog/internal/auth"
)

// IdentityLocalKey is the key used to store the caller's auth.Identity in locals.
const IdentityLocalKey = "identity"

// Auth requires a valid "Authorization: Bearer <token>" header. Failures
// end the request with 401 through the app's error handler.
func Auth(verifier auth.JWTVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		claims, err := verifier.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals(IdentityLocalKey, claims.Identity())
		return c.Next()
	}
}

// StaticAuth treats every request as id. It is used when authentication is
// disabled for local development.
func StaticAuth(id auth.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Auth or StaticAuth.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(auth.Identity)
	return id, ok && id.UserID != ""
}
