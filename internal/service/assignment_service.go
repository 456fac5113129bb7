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

// Assignment errors surfaced to the handler layer.
var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrPassingExceedsMax  = errors.New("passing points cannot exceed max points")
	ErrDueDateInPast      = errors.New("due date must be in the future")
)

// AssignmentService exposes assignment catalog use cases.
type AssignmentService interface {
	ListByCourse(ctx context.Context, actor authz.Actor, courseID uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actor authz.Actor, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	tx          repository.TxRunner
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignments repository.AssignmentRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, tx repository.TxRunner, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		courses:     courses,
		enrollments: enrollments,
		tx:          tx,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) authorizeCourse(ctx context.Context, actor authz.Actor, courseID uint, action authz.Action) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	resource, err := courseResource(ctx, s.enrollments, actor, course, authz.KindAssignment)
	if err != nil {
		return models.Course{}, err
	}

	decision := authz.Decide(actor, resource, action)
	if err := resolveDecision(decision, ErrCourseNotFound); err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (s *assignmentService) ListByCourse(ctx context.Context, actor authz.Actor, courseID uint) ([]dto.AssignmentResponse, error) {
	if _, err := s.authorizeCourse(ctx, actor, courseID, authz.ActionRead); err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.authorizeCourse(ctx, actor, assignment.CourseID, authz.ActionRead); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, actor authz.Actor, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.authorizeCourse(ctx, actor, courseID, authz.ActionCreate); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.PassingPoints > payload.MaxPoints {
		return dto.AssignmentResponse{}, ErrPassingExceedsMax
	}
	if !payload.DueDate.After(s.now()) {
		return dto.AssignmentResponse{}, ErrDueDateInPast
	}

	assignmentType := payload.Type
	if assignmentType == "" {
		assignmentType = models.AssignmentTypeHomework
	}

	assignment := models.Assignment{
		CourseID:       courseID,
		Title:          payload.Title,
		Description:    payload.Description,
		Type:           assignmentType,
		MaxPoints:      payload.MaxPoints,
		PassingPoints:  payload.PassingPoints,
		DueDate:        payload.DueDate,
		AvailableFrom:  payload.AvailableFrom,
		AvailableUntil: payload.AvailableUntil,
		AllowLate:      payload.AllowLate,
		CreatedByID:    actor.ID,
	}

	err := s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.assignments.Create(ctx, &assignment); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionAssignmentCreate, "assignment", &assignment.ID, map[string]interface{}{
			"course_id": courseID,
			"title":     assignment.Title,
		})
	})
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", courseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, actor authz.Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.authorizeCourse(ctx, actor, assignment.CourseID, authz.ActionUpdate); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.Type != nil {
		assignment.Type = *payload.Type
	}
	if payload.MaxPoints != nil {
		assignment.MaxPoints = *payload.MaxPoints
	}
	if payload.PassingPoints != nil {
		assignment.PassingPoints = *payload.PassingPoints
	}
	if payload.DueDate != nil {
		assignment.DueDate = *payload.DueDate
	}
	if payload.AvailableFrom != nil {
		assignment.AvailableFrom = payload.AvailableFrom
	}
	if payload.AvailableUntil != nil {
		assignment.AvailableUntil = payload.AvailableUntil
	}
	if payload.AllowLate != nil {
		assignment.AllowLate = *payload.AllowLate
	}

	if assignment.PassingPoints > assignment.MaxPoints {
		return dto.AssignmentResponse{}, ErrPassingExceedsMax
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionAssignmentUpdate, "assignment", &assignment.ID, nil)
	})
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	if _, err := s.authorizeCourse(ctx, actor, assignment.CourseID, authz.ActionDelete); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionAssignmentDelete, "assignment", &assignment.ID, map[string]interface{}{
			"course_id": assignment.CourseID,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment deleted")
	return nil
}
