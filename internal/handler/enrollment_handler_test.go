package handler_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
)

func TestEnrollmentLifecycle(t *testing.T) {
	ta := setupApp(t)
	lecturer := ta.seedUser(t, "grace@example.com", models.RoleLecturer)
	student := ta.seedUser(t, "sam@example.com", models.RoleStudent)
	course := ta.createOpenCourse(t, lecturer.ID, "CS101")

	resp := ta.request(t, fiber.MethodPost, "/api/v1/enrollments", dto.EnrollRequest{CourseID: course.ID}, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var enrollment dto.EnrollmentResponse
	envelope := decodeResponse(t, resp, &enrollment)
	require.Equal(t, "enrolled", envelope.Message)
	require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)

	// Enrolling twice conflicts.
	resp = ta.request(t, fiber.MethodPost, "/api/v1/enrollments", dto.EnrollRequest{CourseID: course.ID}, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/enrollments/%d/drop", enrollment.ID), nil, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dropped dto.EnrollmentResponse
	decodeResponse(t, resp, &dropped)
	require.Equal(t, models.EnrollmentStatusDropped, dropped.Status)

	resp = ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/enrollments/%d/drop", enrollment.ID), nil, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestEnrollmentRejectsClosedCourse(t *testing.T) {
	ta := setupApp(t)
	lecturer := ta.seedUser(t, "grace@example.com", models.RoleLecturer)
	student := ta.seedUser(t, "sam@example.com", models.RoleStudent)

	payload := dto.CourseCreateRequest{
		Code:      "CS900",
		Title:     "Unreleased Seminar",
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 4, 0),
	}
	resp := ta.request(t, fiber.MethodPost, "/api/v1/courses", payload, lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var draft dto.CourseResponse
	decodeResponse(t, resp, &draft)

	resp = ta.request(t, fiber.MethodPost, "/api/v1/enrollments", dto.EnrollRequest{CourseID: draft.ID}, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestEnrollmentCapacity(t *testing.T) {
	ta := setupApp(t)
	lecturer := ta.seedUser(t, "grace@example.com", models.RoleLecturer)
	first := ta.seedUser(t, "first@example.com", models.RoleStudent)
	second := ta.seedUser(t, "second@example.com", models.RoleStudent)
	course := ta.createOpenCourse(t, lecturer.ID, "CS101")

	one := 1
	resp := ta.request(t, fiber.MethodPatch, fmt.Sprintf("/api/v1/courses/%d", course.ID), dto.CourseUpdateRequest{MaxStudents: &one}, lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ta.enrollStudent(t, first.ID, course.ID)

	resp = ta.request(t, fiber.MethodPost, "/api/v1/enrollments", dto.EnrollRequest{CourseID: course.ID}, second.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestEnrollmentComplete(t *testing.T) {
	ta := setupApp(t)
	lecturer := ta.seedUser(t, "grace@example.com", models.RoleLecturer)
	student := ta.seedUser(t, "sam@example.com", models.RoleStudent)
	course := ta.createOpenCourse(t, lecturer.ID, "CS101")
	enrollment := ta.enrollStudent(t, student.ID, course.ID)

	completePath := fmt.Sprintf("/api/v1/enrollments/%d/complete", enrollment.ID)

	// Completion is a grading act; students are denied outright.
	resp := ta.request(t, fiber.MethodPost, completePath, dto.EnrollmentCompleteRequest{Grade: 90}, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = ta.request(t, fiber.MethodPost, completePath, dto.EnrollmentCompleteRequest{Grade: 87.5}, lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var completed dto.EnrollmentResponse
	decodeResponse(t, resp, &completed)
	require.Equal(t, models.EnrollmentStatusCompleted, completed.Status)
	require.NotNil(t, completed.Grade)
	require.Equal(t, 87.5, *completed.Grade)
}

func TestEnrollmentVisibility(t *testing.T) {
	ta := setupApp(t)
	lecturer := ta.seedUser(t, "grace@example.com", models.RoleLecturer)
	student := ta.seedUser(t, "sam@example.com", models.RoleStudent)
	peer := ta.seedUser(t, "peer@example.com", models.RoleStudent)
	course := ta.createOpenCourse(t, lecturer.ID, "CS101")
	enrollment := ta.enrollStudent(t, student.ID, course.ID)

	path := fmt.Sprintf("/api/v1/enrollments/%d", enrollment.ID)

	resp := ta.request(t, fiber.MethodGet, path, nil, student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Another student's enrollment looks like it does not exist.
	resp = ta.request(t, fiber.MethodGet, path, nil, peer.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// The course roster is the owning lecturer's view.
	resp = ta.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/courses/%d/enrollments", course.ID), nil, lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var roster dto.EnrollmentListResponse
	decodeResponse(t, resp, &roster)
	require.Len(t, roster.Items, 1)
	require.Equal(t, student.ID, roster.Items[0].StudentID)
}
