package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/educore-labs/educore-api/internal/config"
	"github.com/educore-labs/educore-api/internal/handler"
	"github.com/educore-labs/educore-api/internal/middleware"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	CourseHandler     *handler.CourseHandler
	ModuleHandler     *handler.ModuleHandler
	MaterialHandler   *handler.MaterialHandler
	EnrollmentHandler *handler.EnrollmentHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	AuditHandler      *handler.AuditHandler
	DashboardHandler  *handler.DashboardHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		// Credential endpoints are the brute-force surface.
		deps.AuthHandler.Register(api.Group("/auth", middleware.RateLimit("auth", 30, time.Minute)))
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware))
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses", jwtMiddleware))
	}

	if deps.ModuleHandler != nil {
		deps.ModuleHandler.Register(api.Group("/modules", jwtMiddleware))
	}

	if deps.MaterialHandler != nil {
		deps.MaterialHandler.Register(api.Group("/materials", jwtMiddleware))
	}

	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(api.Group("/enrollments", jwtMiddleware))
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(api.Group("/assignments", jwtMiddleware))
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", jwtMiddleware))
	}

	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(api.Group("/audit-logs", jwtMiddleware, middleware.RequireRole(models.RoleAdmin)))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent)))
	}
}
