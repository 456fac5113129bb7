package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/config"
	"github.com/educore-labs/educore-api/internal/database"
	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/handler"
	"github.com/educore-labs/educore-api/internal/middleware"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
	"github.com/educore-labs/educore-api/internal/router"
	"github.com/educore-labs/educore-api/internal/service"
	"github.com/educore-labs/educore-api/pkg/token"
)

// Identity headers consumed by the stub JWT middleware below. Tests act as
// arbitrary users without minting tokens; the auth endpoints still exercise
// the real middleware because the auth handler registers it itself.
const (
	headerTestUser = "X-Test-User"
	headerTestRole = "X-Test-Role"
)

var dbSequence int64

type testApp struct {
	app    *fiber.App
	db     *gorm.DB
	tokens *token.Issuer
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSequence, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := token.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, "educore-test")

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	modules := repository.NewModuleRepository(db)
	materials := repository.NewMaterialRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	auditLogs := repository.NewAuditLogRepository(db)
	tx := repository.NewTxRunner(db)

	auditService := service.NewAuditService(auditLogs, logger)
	authService := service.NewAuthService(users, tx, auditService, tokens, validate, bcrypt.MinCost, logger)
	userService := service.NewUserService(users, tx, auditService, validate, logger)
	courseService := service.NewCourseService(courses, users, enrollments, tx, auditService, validate, logger)
	moduleService := service.NewModuleService(modules, materials, courses, enrollments, tx, auditService, validate, logger)
	materialService := service.NewMaterialService(materials, modules, courses, enrollments, tx, auditService, validate, nil, logger)
	enrollmentService := service.NewEnrollmentService(enrollments, courses, tx, auditService, validate, logger)
	assignmentService := service.NewAssignmentService(assignments, courses, enrollments, tx, auditService, validate, logger)
	submissionService := service.NewSubmissionService(submissions, assignments, enrollments, tx, auditService, validate, nil, config.LatePolicyFlag, logger)
	dashboardService := service.NewDashboardService(enrollments, assignments, submissions, nil, time.Minute, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "educore-test"}, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, tokens, logger),
		UserHandler:       handler.NewUserHandler(userService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, moduleService, enrollmentService, assignmentService, logger),
		ModuleHandler:     handler.NewModuleHandler(moduleService, materialService, logger),
		MaterialHandler:   handler.NewMaterialHandler(materialService, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, submissionService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		AuditHandler:      handler.NewAuditHandler(auditService, logger),
		DashboardHandler:  handler.NewDashboardHandler(dashboardService, logger),
		JWTMiddleware:     headerIdentity,
	})

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return &testApp{app: app, db: db, tokens: tokens}
}

// headerIdentity replaces JWTProtected in tests, binding the identity the
// test declares through request headers.
func headerIdentity(c *fiber.Ctx) error {
	if raw := c.Get(headerTestUser); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			c.Locals(middleware.LocalsUserID, uint(id))
		}
	}
	if role := c.Get(headerTestRole); role != "" {
		c.Locals(middleware.LocalsUserRole, role)
	}
	return c.Next()
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func decodeResponse(t *testing.T, resp *http.Response, data interface{}) apiEnvelope {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var envelope apiEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope), "body: %s", body)
	if data != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope
}

func (ta *testApp) request(t *testing.T, method, path string, body interface{}, userID uint, role string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(headerTestUser, strconv.FormatUint(uint64(userID), 10))
	}
	if role != "" {
		req.Header.Set(headerTestRole, role)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) seedUser(t *testing.T, email, role string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, ta.db.Create(&user).Error)
	return user
}

func (ta *testApp) createOpenCourse(t *testing.T, lecturerID uint, code string) dto.CourseResponse {
	t.Helper()

	payload := dto.CourseCreateRequest{
		Code:      code,
		Title:     "Course " + code,
		StartDate: time.Now(),
		EndDate:   time.Now().AddDate(0, 4, 0),
	}
	resp := ta.request(t, fiber.MethodPost, "/api/v1/courses", payload, lecturerID, models.RoleLecturer)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var course dto.CourseResponse
	decodeResponse(t, resp, &course)

	status := models.CourseStatusOpen
	resp = ta.request(t, fiber.MethodPatch, fmt.Sprintf("/api/v1/courses/%d", course.ID), dto.CourseUpdateRequest{Status: &status}, lecturerID, models.RoleLecturer)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeResponse(t, resp, &course)
	return course
}

func (ta *testApp) enrollStudent(t *testing.T, studentID, courseID uint) dto.EnrollmentResponse {
	t.Helper()

	resp := ta.request(t, fiber.MethodPost, "/api/v1/enrollments", dto.EnrollRequest{CourseID: courseID}, studentID, models.RoleStudent)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var enrollment dto.EnrollmentResponse
	decodeResponse(t, resp, &enrollment)
	return enrollment
}
