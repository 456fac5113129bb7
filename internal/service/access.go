package service

import (
	"context"
	"errors"
	"io"

	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// ErrForbidden indicates the caller is authenticated but not allowed to
// perform the operation. Denials that must not reveal resource existence
// surface as the resource's not-found sentinel instead.
var ErrForbidden = errors.New("forbidden")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// courseResource builds the authorization view of a course-scoped resource.
// For students it resolves their enrollment status so visibility rules can
// run without further database access.
func courseResource(ctx context.Context, enrollments repository.EnrollmentRepository, actor authz.Actor, course models.Course, kind authz.Kind) (authz.Resource, error) {
	resource := authz.Resource{
		Kind:       kind,
		OwnerID:    course.LecturerID,
		CourseID:   course.ID,
		CourseOpen: course.IsOpen(),
	}

	if actor.Role != authz.RoleStudent {
		return resource, nil
	}

	enrollment, err := enrollments.GetByStudentAndCourse(ctx, actor.ID, course.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resource, nil
		}
		return resource, err
	}

	resource.ViewerEnrollment = enrollment.Status
	return resource, nil
}

// resolveDecision maps a denial to the appropriate sentinel: hidden denials
// become notFound so callers cannot probe for resource existence.
func resolveDecision(decision authz.Decision, notFound error) error {
	if decision.Allowed {
		return nil
	}
	if decision.HideExistence {
		return notFound
	}
	return ErrForbidden
}
