package dto

import (
	"time"

	"github.com/educore-labs/educore-api/internal/models"
)

// CourseCreateRequest creates a new course owned by the caller (or by the
// named lecturer when an admin creates it).
type CourseCreateRequest struct {
	Code        string    `json:"code" validate:"required,min=2,max=32"`
	Title       string    `json:"title" validate:"required,min=3,max=255"`
	Description string    `json:"description"`
	LecturerID  *uint     `json:"lecturer_id" validate:"omitempty,gt=0"`
	Credits     int       `json:"credits" validate:"gte=0,lte=60"`
	MaxStudents int       `json:"max_students" validate:"gte=0"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
}

// CourseUpdateRequest mutates course fields. Nil fields are untouched.
type CourseUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft open closed archived"`
	Credits     *int       `json:"credits" validate:"omitempty,gte=0,lte=60"`
	MaxStudents *int       `json:"max_students" validate:"omitempty,gte=0"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// CourseListRequest carries listing filters.
type CourseListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
	Status   string `query:"status" validate:"omitempty,oneof=draft open closed archived"`
	Search   string `query:"search"`
}

// CourseResponse is returned to API clients when viewing courses.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	LecturerID  uint      `json:"lecturer_id"`
	Lecturer    UserLite  `json:"lecturer,omitempty"`
	Status      string    `json:"status"`
	Credits     int       `json:"credits"`
	MaxStudents int       `json:"max_students"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseListResponse wraps a page of courses.
type CourseListResponse struct {
	Items      []CourseResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	response := CourseResponse{
		ID:          model.ID,
		Code:        model.Code,
		Title:       model.Title,
		Description: model.Description,
		LecturerID:  model.LecturerID,
		Status:      model.Status,
		Credits:     model.Credits,
		MaxStudents: model.MaxStudents,
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if model.Lecturer.ID != 0 {
		response.Lecturer = NewUserLite(model.Lecturer)
	}

	return response
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}
