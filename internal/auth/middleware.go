package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/creatorlane/discount-agent/pkg/util"
)

// RequireAdmin validates the bearer token guarding the admin routes.
func RequireAdmin(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		if _, err := tokens.ParseToken(parts[1]); err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}
		return c.Next()
	}
}
