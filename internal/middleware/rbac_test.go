package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/educore-labs/educore-api/internal/models"
)

func rbacApp(roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded", func(c *fiber.Ctx) error {
		c.Locals(LocalsUserRole, c.Get("X-Test-Role"))
		return c.Next()
	}, RequireRole(roles...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRole(t *testing.T) {
	app := rbacApp(models.RoleAdmin, models.RoleLecturer)

	cases := []struct {
		role   string
		status int
	}{
		{models.RoleAdmin, fiber.StatusOK},
		{models.RoleLecturer, fiber.StatusOK},
		{"  Admin ", fiber.StatusOK},
		{models.RoleStudent, fiber.StatusForbidden},
		{"", fiber.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(fiber.MethodGet, "/guarded", nil)
		if tc.role != "" {
			req.Header.Set("X-Test-Role", tc.role)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, "role %q", tc.role)
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	app := fiber.New()
	app.Get("/guarded", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/guarded", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
