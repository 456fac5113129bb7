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

// Enrollment errors surfaced to the handler layer.
var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in course")
	ErrCourseNotOpen      = errors.New("course is not open for enrollment")
	ErrCourseFull         = errors.New("course has reached its capacity")
	ErrEnrollmentClosed   = errors.New("enrollment is not active")
)

// EnrollmentService exposes enrollment lifecycle use cases.
type EnrollmentService interface {
	Enroll(ctx context.Context, actor authz.Actor, payload dto.EnrollRequest) (dto.EnrollmentResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.EnrollmentResponse, error)
	List(ctx context.Context, actor authz.Actor, req dto.EnrollmentListRequest) (dto.EnrollmentListResponse, error)
	ListByCourse(ctx context.Context, actor authz.Actor, courseID uint, req dto.EnrollmentListRequest) (dto.EnrollmentListResponse, error)
	Drop(ctx context.Context, actor authz.Actor, id uint) (dto.EnrollmentResponse, error)
	Complete(ctx context.Context, actor authz.Actor, id uint, payload dto.EnrollmentCompleteRequest) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	tx          repository.TxRunner
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, tx repository.TxRunner, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		tx:          tx,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, actor authz.Actor, payload dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	resource := authz.Resource{Kind: authz.KindEnrollment, StudentID: actor.ID}
	decision := authz.Decide(actor, resource, authz.ActionCreate)
	if !decision.Allowed {
		return dto.EnrollmentResponse{}, ErrForbidden
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	if !course.IsOpen() {
		return dto.EnrollmentResponse{}, ErrCourseNotOpen
	}

	if course.MaxStudents > 0 {
		active, err := s.courses.CountActiveEnrollments(ctx, course.ID)
		if err != nil {
			return dto.EnrollmentResponse{}, err
		}
		if active >= int64(course.MaxStudents) {
			return dto.EnrollmentResponse{}, ErrCourseFull
		}
	}

	studentID := actor.ID
	now := s.now()

	// A previously dropped enrollment is reactivated instead of inserting a
	// second row; the (student, course) pair is unique.
	existing, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, course.ID)
	switch {
	case err == nil:
		if existing.Status != models.EnrollmentStatusDropped {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		existing.Status = models.EnrollmentStatusActive
		existing.Grade = nil
		existing.CompletedAt = nil
		existing.EnrolledAt = now

		err = s.tx.Atomic(ctx, func(ctx context.Context) error {
			if err := s.enrollments.Update(ctx, &existing); err != nil {
				return err
			}
			return s.audit.Record(ctx, actor, models.AuditActionEnrolled, "enrollment", &existing.ID, map[string]interface{}{
				"course_id":   course.ID,
				"reactivated": true,
			})
		})
		if err != nil {
			return dto.EnrollmentResponse{}, err
		}

		return s.reload(ctx, existing.ID)

	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to insert
	default:
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		StudentID:  studentID,
		CourseID:   course.ID,
		Status:     models.EnrollmentStatusActive,
		EnrolledAt: now,
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.enrollments.Create(ctx, &enrollment); err != nil {
			// Lost a race against a concurrent enroll; the unique index wins.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyEnrolled
			}
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionEnrolled, "enrollment", &enrollment.ID, map[string]interface{}{
			"course_id": course.ID,
		})
	})
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("enrollment_id", enrollment.ID).Uint("course_id", course.ID).Msg("student enrolled")

	return s.reload(ctx, enrollment.ID)
}

func (s *enrollmentService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	resource := authz.Resource{
		Kind:      authz.KindEnrollment,
		StudentID: enrollment.StudentID,
		OwnerID:   enrollment.Course.LecturerID,
		CourseID:  enrollment.CourseID,
	}
	decision := authz.Decide(actor, resource, authz.ActionRead)
	if err := resolveDecision(decision, ErrEnrollmentNotFound); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) List(ctx context.Context, actor authz.Actor, req dto.EnrollmentListRequest) (dto.EnrollmentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentListResponse{}, err
	}

	filter := repository.EnrollmentFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
	}

	// Students only ever see their own enrollments. Lecturers go through
	// ListByCourse for theirs; a bare list is admin territory.
	switch actor.Role {
	case authz.RoleStudent:
		filter.StudentID = &actor.ID
	case authz.RoleAdmin:
	default:
		return dto.EnrollmentListResponse{}, ErrForbidden
	}

	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return dto.EnrollmentListResponse{}, err
	}

	return dto.EnrollmentListResponse{
		Items:      dto.NewEnrollmentResponseSlice(enrollments),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *enrollmentService) ListByCourse(ctx context.Context, actor authz.Actor, courseID uint, req dto.EnrollmentListRequest) (dto.EnrollmentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentListResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentListResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentListResponse{}, err
	}

	resource := authz.Resource{Kind: authz.KindEnrollment, OwnerID: course.LecturerID, CourseID: course.ID}
	decision := authz.Decide(actor, resource, authz.ActionRead)
	if err := resolveDecision(decision, ErrCourseNotFound); err != nil {
		return dto.EnrollmentListResponse{}, err
	}

	enrollments, total, err := s.enrollments.List(ctx, repository.EnrollmentFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		CourseID: &courseID,
		Status:   req.Status,
	})
	if err != nil {
		return dto.EnrollmentListResponse{}, err
	}

	return dto.EnrollmentListResponse{
		Items:      dto.NewEnrollmentResponseSlice(enrollments),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *enrollmentService) Drop(ctx context.Context, actor authz.Actor, id uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	resource := authz.Resource{
		Kind:      authz.KindEnrollment,
		StudentID: enrollment.StudentID,
		OwnerID:   enrollment.Course.LecturerID,
		CourseID:  enrollment.CourseID,
	}
	decision := authz.Decide(actor, resource, authz.ActionUpdate)
	if err := resolveDecision(decision, ErrEnrollmentNotFound); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if enrollment.Status != models.EnrollmentStatusActive {
		return dto.EnrollmentResponse{}, ErrEnrollmentClosed
	}

	enrollment.Status = models.EnrollmentStatusDropped

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionEnrollmentDrop, "enrollment", &enrollment.ID, map[string]interface{}{
			"course_id": enrollment.CourseID,
		})
	})
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("enrollment_id", enrollment.ID).Msg("enrollment dropped")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Complete(ctx context.Context, actor authz.Actor, id uint, payload dto.EnrollmentCompleteRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	// Completion is a grading act: course owner or admin only.
	resource := authz.Resource{
		Kind:      authz.KindEnrollment,
		StudentID: 0,
		OwnerID:   enrollment.Course.LecturerID,
		CourseID:  enrollment.CourseID,
	}
	decision := authz.Decide(actor, resource, authz.ActionGrade)
	if err := resolveDecision(decision, ErrEnrollmentNotFound); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if enrollment.Status != models.EnrollmentStatusActive {
		return dto.EnrollmentResponse{}, ErrEnrollmentClosed
	}

	now := s.now()
	enrollment.Status = models.EnrollmentStatusCompleted
	enrollment.Grade = &payload.Grade
	enrollment.CompletedAt = &now

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionEnrollmentGraded, "enrollment", &enrollment.ID, map[string]interface{}{
			"course_id": enrollment.CourseID,
			"grade":     payload.Grade,
		})
	})
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("enrollment_id", enrollment.ID).Float64("grade", payload.Grade).Msg("enrollment completed")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) reload(ctx context.Context, id uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	return dto.NewEnrollmentResponse(enrollment), nil
}
