package dto

import (
	"time"

	"github.com/educore-labs/educore-api/internal/models"
)

// AssignmentCreateRequest adds gradable work to a course.
type AssignmentCreateRequest struct {
	Title          string     `json:"title" validate:"required,min=3,max=255"`
	Description    string     `json:"description"`
	Type           string     `json:"type" validate:"omitempty,oneof=homework quiz project exam"`
	MaxPoints      float64    `json:"max_points" validate:"required,gt=0"`
	PassingPoints  float64    `json:"passing_points" validate:"gte=0"`
	DueDate        time.Time  `json:"due_date" validate:"required"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`
	AllowLate      bool       `json:"allow_late"`
}

// AssignmentUpdateRequest mutates an assignment. Nil fields are untouched.
type AssignmentUpdateRequest struct {
	Title          *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description    *string    `json:"description"`
	Type           *string    `json:"type" validate:"omitempty,oneof=homework quiz project exam"`
	MaxPoints      *float64   `json:"max_points" validate:"omitempty,gt=0"`
	PassingPoints  *float64   `json:"passing_points" validate:"omitempty,gte=0"`
	DueDate        *time.Time `json:"due_date"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`
	AllowLate      *bool      `json:"allow_late"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID             uint       `json:"id"`
	CourseID       uint       `json:"course_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Type           string     `json:"type"`
	MaxPoints      float64    `json:"max_points"`
	PassingPoints  float64    `json:"passing_points"`
	DueDate        time.Time  `json:"due_date"`
	AvailableFrom  *time.Time `json:"available_from,omitempty"`
	AvailableUntil *time.Time `json:"available_until,omitempty"`
	AllowLate      bool       `json:"allow_late"`
	CreatedByID    uint       `json:"created_by_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	Title     string    `json:"title"`
	MaxPoints float64   `json:"max_points"`
	DueDate   time.Time `json:"due_date"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		CourseID:       model.CourseID,
		Title:          model.Title,
		Description:    model.Description,
		Type:           model.Type,
		MaxPoints:      model.MaxPoints,
		PassingPoints:  model.PassingPoints,
		DueDate:        model.DueDate,
		AvailableFrom:  model.AvailableFrom,
		AvailableUntil: model.AvailableUntil,
		AllowLate:      model.AllowLate,
		CreatedByID:    model.CreatedByID,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}
	return responses
}
