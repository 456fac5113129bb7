package handler_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
)

func TestUserListIsAdminOnly(t *testing.T) {
	ta := setupApp(t)
	admin := ta.seedUser(t, "root@example.com", models.RoleAdmin)
	ta.seedUser(t, "grace@example.com", models.RoleLecturer)
	student := ta.seedUser(t, "sam@example.com", models.RoleStudent)

	resp := ta.request(t, fiber.MethodGet, "/api/v1/users", nil, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = ta.request(t, fiber.MethodGet, "/api/v1/users?role=lecturer", nil, admin.ID, models.RoleAdmin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listing dto.UserListResponse
	decodeResponse(t, resp, &listing)
	require.Len(t, listing.Items, 1)
	require.Equal(t, "grace@example.com", listing.Items[0].Email)
}

func TestUserProfileScoping(t *testing.T) {
	ta := setupApp(t)
	alice := ta.seedUser(t, "alice@example.com", models.RoleStudent)
	bob := ta.seedUser(t, "bob@example.com", models.RoleStudent)

	// Other students' profiles look like they do not exist.
	resp := ta.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/users/%d", bob.ID), nil, alice.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	name := "Alicia"
	resp = ta.request(t, fiber.MethodPatch, fmt.Sprintf("/api/v1/users/%d", alice.ID), dto.UserUpdateRequest{FirstName: &name}, alice.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated dto.UserResponse
	decodeResponse(t, resp, &updated)
	require.Equal(t, "Alicia", updated.FirstName)
}

func TestUserRoleChange(t *testing.T) {
	ta := setupApp(t)
	admin := ta.seedUser(t, "root@example.com", models.RoleAdmin)
	alice := ta.seedUser(t, "alice@example.com", models.RoleStudent)

	rolePath := fmt.Sprintf("/api/v1/users/%d/role", alice.ID)

	resp := ta.request(t, fiber.MethodPatch, rolePath, dto.UserRoleUpdateRequest{Role: models.RoleLecturer}, alice.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = ta.request(t, fiber.MethodPatch, rolePath, dto.UserRoleUpdateRequest{Role: models.RoleLecturer}, admin.ID, models.RoleAdmin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated dto.UserResponse
	decodeResponse(t, resp, &updated)
	require.Equal(t, models.RoleLecturer, updated.Role)
}

func TestUserDeactivation(t *testing.T) {
	ta := setupApp(t)
	admin := ta.seedUser(t, "root@example.com", models.RoleAdmin)
	alice := ta.seedUser(t, "alice@example.com", models.RoleStudent)

	resp := ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/users/%d/deactivate", admin.ID), nil, admin.ID, models.RoleAdmin)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/users/%d/deactivate", alice.ID), nil, admin.ID, models.RoleAdmin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Deactivated accounts can no longer log in.
	resp = ta.request(t, fiber.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "alice@example.com", Password: "password123"}, 0, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
