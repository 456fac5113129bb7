package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/config"
	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// Submission errors surfaced to the handler layer.
var (
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrNotEnrolled          = errors.New("not enrolled in the assignment's course")
	ErrAssignmentNotOpenYet = errors.New("assignment is not accepting submissions")
	ErrLateNotAccepted      = errors.New("late submissions are not accepted")
	ErrAlreadyGraded        = errors.New("submission is already graded")
	ErrNotSubmitted         = errors.New("submission has not been submitted")
	ErrPointsExceedMax      = errors.New("points exceed the assignment maximum")
	ErrEmptySubmission      = errors.New("submission needs content or a file")
	ErrDuplicateSubmission  = errors.New("submission already exists for this assignment")
)

// SubmissionService orchestrates the draft, submit and grade workflow.
type SubmissionService interface {
	Save(ctx context.Context, actor authz.Actor, assignmentID uint, payload dto.SubmissionSaveRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, actor authz.Actor, assignmentID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	ListMine(ctx context.Context, actor authz.Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Grade(ctx context.Context, actor authz.Actor, id uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
	OverrideGrade(ctx context.Context, actor authz.Actor, id uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	tx          repository.TxRunner
	audit       AuditRecorder
	validator   *validator.Validate
	uploader    FileUploader
	latePolicy  string
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, enrollments repository.EnrollmentRepository, tx repository.TxRunner, audit AuditRecorder, validate *validator.Validate, uploader FileUploader, latePolicy string, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		enrollments: enrollments,
		tx:          tx,
		audit:       audit,
		validator:   validate,
		uploader:    uploader,
		latePolicy:  latePolicy,
		tracer:      otel.Tracer("submission_service"),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Save(ctx context.Context, actor authz.Actor, assignmentID uint, payload dto.SubmissionSaveRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	resource := authz.Resource{Kind: authz.KindSubmission, StudentID: actor.ID, OwnerID: assignment.Course.LecturerID, CourseID: assignment.CourseID}
	decision := authz.Decide(actor, resource, authz.ActionCreate)
	if err := resolveDecision(decision, ErrAssignmentNotFound); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Only actively enrolled students may hand in work; the existence of the
	// assignment is hidden from everyone else.
	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, actor.ID, assignment.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if !enrollment.IsActive() {
		return dto.SubmissionResponse{}, ErrAssignmentNotFound
	}

	now := s.now()
	if !assignment.IsAvailable(now) {
		return dto.SubmissionResponse{}, ErrAssignmentNotOpenYet
	}

	late := false
	if payload.Submit && assignment.IsPastDue(now) {
		if !assignment.AllowLate && s.latePolicy == config.LatePolicyReject {
			return dto.SubmissionResponse{}, ErrLateNotAccepted
		}
		late = true
	}

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, actor.ID)
	switch {
	case err == nil:
		if submission.IsGraded() {
			return dto.SubmissionResponse{}, ErrAlreadyGraded
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		submission = models.Submission{
			AssignmentID: assignment.ID,
			StudentID:    actor.ID,
			Status:       models.SubmissionStatusDraft,
		}
	default:
		return dto.SubmissionResponse{}, err
	}

	if payload.Content != "" {
		submission.Content = payload.Content
	}
	if file != nil {
		url, err := s.uploadAnswer(ctx, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.FileURL = url
	}

	if submission.Content == "" && submission.FileURL == "" {
		return dto.SubmissionResponse{}, ErrEmptySubmission
	}

	action := models.AuditActionSubmissionSaved
	if payload.Submit {
		submission.Status = models.SubmissionStatusSubmitted
		submission.SubmittedAt = &now
		submission.Late = late
		action = models.AuditActionSubmitted
	}

	isNew := submission.ID == 0
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		var err error
		if isNew {
			err = s.submissions.Create(ctx, &submission)
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race against a concurrent save of the same pair.
				return ErrDuplicateSubmission
			}
		} else {
			err = s.submissions.Update(ctx, &submission)
		}
		if err != nil {
			return err
		}

		metadata := map[string]interface{}{
			"assignment_id": assignment.ID,
		}
		if payload.Submit {
			metadata["late"] = late
			if late {
				metadata["days_late"] = assignment.DaysLate(now)
			}
		}
		return s.audit.Record(ctx, actor, action, "submission", &submission.ID, metadata)
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("status", submission.Status).
		Bool("late", submission.Late).
		Msg("submission saved")

	return s.reload(ctx, submission.ID)
}

func (s *submissionService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	owner, err := s.courseOwner(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	resource := authz.Resource{
		Kind:      authz.KindSubmission,
		StudentID: submission.StudentID,
		OwnerID:   owner,
		CourseID:  submission.Assignment.CourseID,
	}
	decision := authz.Decide(actor, resource, authz.ActionRead)
	if err := resolveDecision(decision, ErrSubmissionNotFound); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, actor authz.Actor, assignmentID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	resource := authz.Resource{Kind: authz.KindSubmission, OwnerID: assignment.Course.LecturerID, CourseID: assignment.CourseID}
	decision := authz.Decide(actor, resource, authz.ActionGrade)
	if err := resolveDecision(decision, ErrAssignmentNotFound); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: &assignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListMine(ctx context.Context, actor authz.Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    &actor.ID,
		Status:       filter.Status,
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Grade(ctx context.Context, actor authz.Actor, id uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.grade", trace.WithAttributes(
		attribute.Int("submission.id", int(id)),
	))
	defer span.End()

	return s.grade(ctx, actor, id, payload, false)
}

func (s *submissionService) OverrideGrade(ctx context.Context, actor authz.Actor, id uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.override_grade", trace.WithAttributes(
		attribute.Int("submission.id", int(id)),
	))
	defer span.End()

	return s.grade(ctx, actor, id, payload, true)
}

func (s *submissionService) grade(ctx context.Context, actor authz.Actor, id uint, payload dto.GradeRequest, override bool) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	owner, err := s.courseOwner(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	action := authz.ActionGrade
	if override {
		action = authz.ActionOverrideGrade
	}
	resource := authz.Resource{
		Kind:      authz.KindSubmission,
		StudentID: submission.StudentID,
		OwnerID:   owner,
		CourseID:  submission.Assignment.CourseID,
	}
	decision := authz.Decide(actor, resource, action)
	if err := resolveDecision(decision, ErrSubmissionNotFound); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if override {
		if !submission.IsGraded() {
			return dto.SubmissionResponse{}, ErrNotSubmitted
		}
	} else {
		if submission.IsGraded() {
			return dto.SubmissionResponse{}, ErrAlreadyGraded
		}
		if submission.Status != models.SubmissionStatusSubmitted {
			return dto.SubmissionResponse{}, ErrNotSubmitted
		}
	}

	if payload.PointsEarned > submission.Assignment.MaxPoints {
		return dto.SubmissionResponse{}, ErrPointsExceedMax
	}

	var previous *float64
	if submission.PointsEarned != nil {
		p := *submission.PointsEarned
		previous = &p
	}

	now := s.now()
	points := payload.PointsEarned
	submission.Status = models.SubmissionStatusGraded
	submission.PointsEarned = &points
	submission.Feedback = payload.Feedback
	submission.GradedByID = &actor.ID
	submission.GradedAt = &now

	auditAction := models.AuditActionGraded
	metadata := map[string]interface{}{
		"assignment_id": submission.AssignmentID,
		"points":        points,
		"max_points":    submission.Assignment.MaxPoints,
	}
	if override {
		auditAction = models.AuditActionGradeOverridden
		if previous != nil {
			metadata["previous_points"] = *previous
		}
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.submissions.Update(ctx, &submission); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, auditAction, "submission", &submission.ID, metadata)
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("points", points).
		Bool("override", override).
		Msg("submission graded")

	return s.reload(ctx, submission.ID)
}

// courseOwner resolves the lecturer owning the course a submission belongs
// to. The submission's preloaded Assignment does not carry its Course, so
// the assignment is fetched with it.
func (s *submissionService) courseOwner(ctx context.Context, assignmentID uint) (uint, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return 0, err
	}
	return assignment.Course.LecturerID, nil
}

func (s *submissionService) reload(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) uploadAnswer(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := validateAttachmentType(file); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}
