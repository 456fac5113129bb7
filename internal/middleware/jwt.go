package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/educore-labs/educore-api/internal/utils"
	"github.com/educore-labs/educore-api/pkg/token"
)

// Locals keys populated by JWTProtected.
const (
	LocalsUserID   = "user_id"
	LocalsUserRole = "user_role"
)

// JWTProtected returns a middleware that validates bearer access tokens and
// binds the caller's identity to the request.
func JWTProtected(tokens *token.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, err := tokens.ParseAccess(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(LocalsUserID, claims.UserID)
		c.Locals(LocalsUserRole, strings.ToLower(strings.TrimSpace(claims.Role)))

		return c.Next()
	}
}
