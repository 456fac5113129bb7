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

// Course errors surfaced to the handler layer.
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrCourseCodeTaken      = errors.New("course code already in use")
	ErrInvalidDateRange     = errors.New("end date must not be before start date")
	ErrInvalidLecturer      = errors.New("lecturer does not exist or cannot own courses")
	ErrCourseHasEnrollments = errors.New("course still has active enrollments")
)

// CourseService exposes course catalog use cases.
type CourseService interface {
	List(ctx context.Context, actor authz.Actor, req dto.CourseListRequest) (dto.CourseListResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor authz.Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
}

type courseService struct {
	courses     repository.CourseRepository
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	tx          repository.TxRunner
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses repository.CourseRepository, users repository.UserRepository, enrollments repository.EnrollmentRepository, tx repository.TxRunner, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:     courses,
		users:       users,
		enrollments: enrollments,
		tx:          tx,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "course_service").Logger(),
		now:         time.Now,
	}
}

func (s *courseService) List(ctx context.Context, actor authz.Actor, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseListResponse{}, err
	}

	filter := repository.CourseFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
		Search:   req.Search,
	}

	// Students only browse the open catalog. Staff see every state.
	if actor.Role == authz.RoleStudent {
		filter.Status = models.CourseStatusOpen
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	return dto.CourseListResponse{
		Items:      dto.NewCourseResponseSlice(courses),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *courseService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	resource, err := courseResource(ctx, s.enrollments, actor, course, authz.KindCourse)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	decision := authz.Decide(actor, resource, authz.ActionRead)
	if err := resolveDecision(decision, ErrCourseNotFound); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, actor authz.Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	decision := authz.Decide(actor, authz.Resource{Kind: authz.KindCourse}, authz.ActionCreate)
	if !decision.Allowed {
		return dto.CourseResponse{}, ErrForbidden
	}

	// A single-day course is valid; only a reversed range is not.
	if payload.EndDate.Before(payload.StartDate) {
		return dto.CourseResponse{}, ErrInvalidDateRange
	}

	lecturerID := actor.ID
	if payload.LecturerID != nil {
		// Only admins may create a course on behalf of a lecturer.
		if actor.Role != authz.RoleAdmin && *payload.LecturerID != actor.ID {
			return dto.CourseResponse{}, ErrForbidden
		}
		lecturerID = *payload.LecturerID
	}

	lecturer, err := s.users.GetByID(ctx, lecturerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrInvalidLecturer
		}
		return dto.CourseResponse{}, err
	}
	if !lecturer.CanOwnCourses() {
		return dto.CourseResponse{}, ErrInvalidLecturer
	}

	course := models.Course{
		Code:        payload.Code,
		Title:       payload.Title,
		Description: payload.Description,
		LecturerID:  lecturerID,
		Status:      models.CourseStatusDraft,
		Credits:     payload.Credits,
		MaxStudents: payload.MaxStudents,
		StartDate:   payload.StartDate,
		EndDate:     payload.EndDate,
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.courses.Create(ctx, &course); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCourseCodeTaken
			}
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionCourseCreated, "course", &course.ID, map[string]interface{}{
			"code":  course.Code,
			"title": course.Title,
		})
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("code", course.Code).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, actor authz.Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	resource := authz.Resource{Kind: authz.KindCourse, OwnerID: course.LecturerID, CourseID: course.ID}
	decision := authz.Decide(actor, resource, authz.ActionUpdate)
	if err := resolveDecision(decision, ErrCourseNotFound); err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}
	if payload.Status != nil {
		course.Status = *payload.Status
	}
	if payload.Credits != nil {
		course.Credits = *payload.Credits
	}
	if payload.MaxStudents != nil {
		course.MaxStudents = *payload.MaxStudents
	}
	if payload.StartDate != nil {
		course.StartDate = *payload.StartDate
	}
	if payload.EndDate != nil {
		course.EndDate = *payload.EndDate
	}

	if course.EndDate.Before(course.StartDate) {
		return dto.CourseResponse{}, ErrInvalidDateRange
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.courses.Update(ctx, &course); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionCourseUpdated, "course", &course.ID, map[string]interface{}{
			"status": course.Status,
		})
	})
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course updated")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	resource := authz.Resource{Kind: authz.KindCourse, OwnerID: course.LecturerID, CourseID: course.ID}
	decision := authz.Decide(actor, resource, authz.ActionDelete)
	if err := resolveDecision(decision, ErrCourseNotFound); err != nil {
		return err
	}

	active, err := s.courses.CountActiveEnrollments(ctx, course.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrCourseHasEnrollments
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.courses.Delete(ctx, course.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionCourseDeleted, "course", &course.ID, map[string]interface{}{
			"code": course.Code,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course deleted")
	return nil
}
