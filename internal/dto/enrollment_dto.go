package dto

import (
	"time"

	"github.com/educore-labs/educore-api/internal/models"
)

// EnrollRequest creates an enrollment for the calling student.
type EnrollRequest struct {
	CourseID uint `json:"course_id" validate:"required,gt=0"`
}

// EnrollmentCompleteRequest closes out an enrollment with a final grade.
type EnrollmentCompleteRequest struct {
	Grade float64 `json:"grade" validate:"gte=0,lte=100"`
}

// EnrollmentListRequest carries listing filters.
type EnrollmentListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
	Status   string `query:"status" validate:"omitempty,oneof=active completed dropped"`
}

// CourseLite summarizes a course in nested responses.
type CourseLite struct {
	ID     uint   `json:"id"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// EnrollmentResponse is returned to API clients when viewing enrollments.
type EnrollmentResponse struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	CourseID    uint       `json:"course_id"`
	Status      string     `json:"status"`
	Grade       *float64   `json:"grade"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Student     UserLite   `json:"student,omitempty"`
	Course      CourseLite `json:"course,omitempty"`
}

// EnrollmentListResponse wraps a page of enrollments.
type EnrollmentListResponse struct {
	Items      []EnrollmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewEnrollmentResponse converts an Enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	response := EnrollmentResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		CourseID:    model.CourseID,
		Status:      model.Status,
		Grade:       model.Grade,
		EnrolledAt:  model.EnrolledAt,
		CompletedAt: model.CompletedAt,
	}

	if model.Student.ID != 0 {
		response.Student = NewUserLite(model.Student)
	}
	if model.Course.ID != 0 {
		response.Course = CourseLite{
			ID:     model.Course.ID,
			Code:   model.Course.Code,
			Title:  model.Course.Title,
			Status: model.Course.Status,
		}
	}

	return response
}

// NewEnrollmentResponseSlice converts enrollment models into DTOs.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}
	return responses
}
