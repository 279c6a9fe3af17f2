package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/siamex/siamex/internal/auth"
	"github.com/siamex/siamex/internal/config"
	"github.com/siamex/siamex/internal/identity"
)

// JWTAuth validates bearer access tokens and rejects suspended accounts.
func JWTAuth(cfg config.Config, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		userID, err := auth.VerifyToken(tokenStr, cfg.JWTSecret)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		user, err := repo.FindByID(c.UserContext(), userID)
		if err != nil || user.Status != identity.StatusActive {
			return fiber.NewError(http.StatusUnauthorized, "account unavailable")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
