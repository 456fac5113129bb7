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

type gradingSetup struct {
	ta         *testApp
	lecturer   models.User
	student    models.User
	course     dto.CourseResponse
	assignment dto.AssignmentResponse
}

func newGradingSetup(t *testing.T) *gradingSetup {
	t.Helper()

	ta := setupApp(t)
	lecturer := ta.seedUser(t, "grace@example.com", models.RoleLecturer)
	student := ta.seedUser(t, "sam@example.com", models.RoleStudent)
	course := ta.createOpenCourse(t, lecturer.ID, "CS301")
	ta.enrollStudent(t, student.ID, course.ID)

	payload := dto.AssignmentCreateRequest{
		Title:         "Problem Set 1",
		MaxPoints:     100,
		PassingPoints: 50,
		DueDate:       time.Now().Add(7 * 24 * time.Hour),
	}
	resp := ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/courses/%d/assignments", course.ID), payload, lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var assignment dto.AssignmentResponse
	decodeResponse(t, resp, &assignment)

	return &gradingSetup{ta: ta, lecturer: lecturer, student: student, course: course, assignment: assignment}
}

func (s *gradingSetup) submit(t *testing.T) dto.SubmissionResponse {
	t.Helper()

	resp := s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", s.assignment.ID), dto.SubmissionSaveRequest{
		Content: "my answer",
		Submit:  true,
	}, s.student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var submission dto.SubmissionResponse
	decodeResponse(t, resp, &submission)
	return submission
}

func TestAssignmentCreateDefaults(t *testing.T) {
	s := newGradingSetup(t)
	require.Equal(t, models.AssignmentTypeHomework, s.assignment.Type)
	require.Equal(t, s.lecturer.ID, s.assignment.CreatedByID)
}

func TestAssignmentCreateValidation(t *testing.T) {
	s := newGradingSetup(t)

	payload := dto.AssignmentCreateRequest{
		Title:         "Broken",
		MaxPoints:     100,
		PassingPoints: 120,
		DueDate:       time.Now().Add(24 * time.Hour),
	}
	resp := s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/courses/%d/assignments", s.course.ID), payload, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload.PassingPoints = 50
	payload.DueDate = time.Now().Add(-time.Hour)
	resp = s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/courses/%d/assignments", s.course.ID), payload, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssignmentHiddenFromOutsiders(t *testing.T) {
	s := newGradingSetup(t)
	outsider := s.ta.seedUser(t, "outsider@example.com", models.RoleStudent)

	path := fmt.Sprintf("/api/v1/assignments/%d", s.assignment.ID)

	resp := s.ta.request(t, fiber.MethodGet, path, nil, s.student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.ta.request(t, fiber.MethodGet, path, nil, outsider.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmissionFlow(t *testing.T) {
	s := newGradingSetup(t)

	// A draft save first, then the real submission.
	resp := s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", s.assignment.ID), dto.SubmissionSaveRequest{
		Content: "work in progress",
	}, s.student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var draft dto.SubmissionResponse
	decodeResponse(t, resp, &draft)
	require.Equal(t, models.SubmissionStatusDraft, draft.Status)
	require.Nil(t, draft.SubmittedAt)

	submission := s.submit(t)
	require.Equal(t, draft.ID, submission.ID)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	require.NotNil(t, submission.SubmittedAt)
	require.False(t, submission.Late)
}

func TestSubmissionRejectsEmptyAnswer(t *testing.T) {
	s := newGradingSetup(t)

	resp := s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", s.assignment.ID), dto.SubmissionSaveRequest{
		Submit: true,
	}, s.student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionGrading(t *testing.T) {
	s := newGradingSetup(t)
	submission := s.submit(t)

	gradePath := fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID)

	resp := s.ta.request(t, fiber.MethodPost, gradePath, dto.GradeRequest{PointsEarned: 88, Feedback: "solid work"}, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graded dto.SubmissionResponse
	decodeResponse(t, resp, &graded)
	require.Equal(t, models.SubmissionStatusGraded, graded.Status)
	require.NotNil(t, graded.PointsEarned)
	require.Equal(t, 88.0, *graded.PointsEarned)
	require.NotNil(t, graded.GradedByID)
	require.Equal(t, s.lecturer.ID, *graded.GradedByID)

	// Regrading through the normal endpoint conflicts.
	resp = s.ta.request(t, fiber.MethodPost, gradePath, dto.GradeRequest{PointsEarned: 90}, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSubmissionGradeExceedingMaxRejected(t *testing.T) {
	s := newGradingSetup(t)
	submission := s.submit(t)

	resp := s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID), dto.GradeRequest{PointsEarned: 150}, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionGradeHiddenFromOtherLecturers(t *testing.T) {
	s := newGradingSetup(t)
	submission := s.submit(t)
	other := s.ta.seedUser(t, "alan@example.com", models.RoleLecturer)

	resp := s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID), dto.GradeRequest{PointsEarned: 50}, other.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmissionGradeOverride(t *testing.T) {
	s := newGradingSetup(t)
	admin := s.ta.seedUser(t, "root@example.com", models.RoleAdmin)
	submission := s.submit(t)

	gradePath := fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID)
	overridePath := fmt.Sprintf("/api/v1/submissions/%d/override-grade", submission.ID)

	resp := s.ta.request(t, fiber.MethodPost, gradePath, dto.GradeRequest{PointsEarned: 60}, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Overrides are reserved for admins, including over the grader.
	resp = s.ta.request(t, fiber.MethodPost, overridePath, dto.GradeRequest{PointsEarned: 70}, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = s.ta.request(t, fiber.MethodPost, overridePath, dto.GradeRequest{PointsEarned: 70, Feedback: "adjusted after appeal"}, admin.ID, models.RoleAdmin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var overridden dto.SubmissionResponse
	decodeResponse(t, resp, &overridden)
	require.NotNil(t, overridden.PointsEarned)
	require.Equal(t, 70.0, *overridden.PointsEarned)
}

func TestSubmissionListViews(t *testing.T) {
	s := newGradingSetup(t)
	peer := s.ta.seedUser(t, "peer@example.com", models.RoleStudent)
	s.ta.enrollStudent(t, peer.ID, s.course.ID)

	submission := s.submit(t)

	resp := s.ta.request(t, fiber.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", s.assignment.ID), dto.SubmissionSaveRequest{
		Content: "peer answer",
		Submit:  true,
	}, peer.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Students see only their own submissions.
	resp = s.ta.request(t, fiber.MethodGet, "/api/v1/submissions", nil, s.student.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var mine []dto.SubmissionResponse
	decodeResponse(t, resp, &mine)
	require.Len(t, mine, 1)
	require.Equal(t, submission.ID, mine[0].ID)

	// A peer's submission looks like it does not exist.
	resp = s.ta.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/submissions/%d", submission.ID), nil, peer.ID, models.RoleStudent)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// The owning lecturer sees the whole roster.
	resp = s.ta.request(t, fiber.MethodGet, fmt.Sprintf("/api/v1/assignments/%d/submissions", s.assignment.ID), nil, s.lecturer.ID, models.RoleLecturer)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var roster []dto.SubmissionResponse
	decodeResponse(t, resp, &roster)
	require.Len(t, roster, 2)
}
