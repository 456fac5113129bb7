package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// Module errors surfaced to the handler layer.
var (
	ErrModuleNotFound = errors.New("module not found")
	ErrPositionTaken  = errors.New("module position already in use")
)

// ModuleService exposes course module use cases.
type ModuleService interface {
	ListByCourse(ctx context.Context, actor authz.Actor, courseID uint) ([]dto.ModuleResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.ModuleResponse, error)
	Create(ctx context.Context, actor authz.Actor, courseID uint, payload dto.ModuleCreateRequest) (dto.ModuleResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, payload dto.ModuleUpdateRequest) (dto.ModuleResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
}

type moduleService struct {
	modules     repository.ModuleRepository
	materials   repository.MaterialRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	tx          repository.TxRunner
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewModuleService constructs a ModuleService instance.
func NewModuleService(modules repository.ModuleRepository, materials repository.MaterialRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, tx repository.TxRunner, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) ModuleService {
	return &moduleService{
		modules:     modules,
		materials:   materials,
		courses:     courses,
		enrollments: enrollments,
		tx:          tx,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "module_service").Logger(),
		now:         time.Now,
	}
}

// course resolves the parent course and checks the given action against the
// rule table, hiding existence from unauthorized callers.
func (s *moduleService) course(ctx context.Context, actor authz.Actor, courseID uint, action authz.Action) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	resource, err := courseResource(ctx, s.enrollments, actor, course, authz.KindModule)
	if err != nil {
		return models.Course{}, err
	}

	decision := authz.Decide(actor, resource, action)
	if err := resolveDecision(decision, ErrCourseNotFound); err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (s *moduleService) ListByCourse(ctx context.Context, actor authz.Actor, courseID uint) ([]dto.ModuleResponse, error) {
	if _, err := s.course(ctx, actor, courseID, authz.ActionRead); err != nil {
		return nil, err
	}

	modules, err := s.modules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewModuleResponseSlice(modules), nil
}

func (s *moduleService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.ModuleResponse, error) {
	module, err := s.modules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ModuleResponse{}, ErrModuleNotFound
		}
		return dto.ModuleResponse{}, err
	}

	if _, err := s.course(ctx, actor, module.CourseID, authz.ActionRead); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return dto.ModuleResponse{}, ErrModuleNotFound
		}
		return dto.ModuleResponse{}, err
	}

	materials, err := s.materials.ListByModule(ctx, module.ID)
	if err != nil {
		return dto.ModuleResponse{}, err
	}
	module.Materials = materials

	return dto.NewModuleResponse(module), nil
}

func (s *moduleService) Create(ctx context.Context, actor authz.Actor, courseID uint, payload dto.ModuleCreateRequest) (dto.ModuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ModuleResponse{}, err
	}

	if _, err := s.course(ctx, actor, courseID, authz.ActionCreate); err != nil {
		return dto.ModuleResponse{}, err
	}

	module := models.Module{
		CourseID: courseID,
		Title:    payload.Title,
		Position: payload.Position,
	}

	err := s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.modules.Create(ctx, &module); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPositionTaken
			}
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionModuleCreated, "module", &module.ID, map[string]interface{}{
			"course_id": courseID,
			"position":  module.Position,
		})
	})
	if err != nil {
		return dto.ModuleResponse{}, err
	}

	s.logger.Info().Uint("module_id", module.ID).Uint("course_id", courseID).Msg("module created")

	return dto.NewModuleResponse(module), nil
}

func (s *moduleService) Update(ctx context.Context, actor authz.Actor, id uint, payload dto.ModuleUpdateRequest) (dto.ModuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ModuleResponse{}, err
	}

	module, err := s.modules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ModuleResponse{}, ErrModuleNotFound
		}
		return dto.ModuleResponse{}, err
	}

	if _, err := s.course(ctx, actor, module.CourseID, authz.ActionUpdate); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return dto.ModuleResponse{}, ErrModuleNotFound
		}
		return dto.ModuleResponse{}, err
	}

	if payload.Title != nil {
		module.Title = *payload.Title
	}
	if payload.Position != nil {
		module.Position = *payload.Position
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.modules.Update(ctx, &module); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPositionTaken
			}
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionModuleUpdated, "module", &module.ID, nil)
	})
	if err != nil {
		return dto.ModuleResponse{}, err
	}

	s.logger.Info().Uint("module_id", module.ID).Msg("module updated")

	return dto.NewModuleResponse(module), nil
}

func (s *moduleService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	module, err := s.modules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrModuleNotFound
		}
		return err
	}

	if _, err := s.course(ctx, actor, module.CourseID, authz.ActionDelete); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return ErrModuleNotFound
		}
		return err
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.modules.Delete(ctx, module.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionModuleDeleted, "module", &module.ID, map[string]interface{}{
			"course_id": module.CourseID,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("module_id", module.ID).Msg("module deleted")
	return nil
}
