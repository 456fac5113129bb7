package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/educore-labs/educore-api/internal/config"
	"github.com/educore-labs/educore-api/internal/database"
	"github.com/educore-labs/educore-api/internal/handler"
	"github.com/educore-labs/educore-api/internal/middleware"
	"github.com/educore-labs/educore-api/internal/repository"
	"github.com/educore-labs/educore-api/internal/router"
	"github.com/educore-labs/educore-api/internal/service"
	"github.com/educore-labs/educore-api/pkg/token"
	"github.com/educore-labs/educore-api/pkg/uploader"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var fileUploader service.FileUploader
	if cfg.UploadCloudName != "" {
		cloud, err := uploader.New(uploader.Config{
			CloudName: cfg.UploadCloudName,
			APIKey:    cfg.UploadAPIKey,
			APISecret: cfg.UploadAPISecret,
			Folder:    cfg.UploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		fileUploader = cloud
	}

	tokens := token.NewIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.AppName)
	validate := validator.New(validator.WithRequiredStructEnabled())

	txRunner := repository.NewTxRunner(db)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	authService := service.NewAuthService(userRepo, txRunner, auditService, tokens, validate, cfg.BcryptCost, logger)
	userService := service.NewUserService(userRepo, txRunner, auditService, validate, logger)
	courseService := service.NewCourseService(courseRepo, userRepo, enrollmentRepo, txRunner, auditService, validate, logger)
	moduleService := service.NewModuleService(moduleRepo, materialRepo, courseRepo, enrollmentRepo, txRunner, auditService, validate, logger)
	materialService := service.NewMaterialService(materialRepo, moduleRepo, courseRepo, enrollmentRepo, txRunner, auditService, validate, fileUploader, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, txRunner, auditService, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, txRunner, auditService, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, enrollmentRepo, txRunner, auditService, validate, fileUploader, cfg.LatePolicy, logger)
	dashboardService := service.NewDashboardService(enrollmentRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
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
		JWTMiddleware:     middleware.JWTProtected(tokens),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
