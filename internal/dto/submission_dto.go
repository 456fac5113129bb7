package dto

import (
	"time"

	"github.com/educore-labs/educore-api/internal/models"
)

// SubmissionSaveRequest creates or updates the caller's submission for an
// assignment. Submit=false keeps it as a draft.
type SubmissionSaveRequest struct {
	Content string `json:"content" form:"content"`
	Submit  bool   `json:"submit" form:"submit"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=draft submitted graded"`
}

// GradeRequest records points and feedback for a submitted answer.
type GradeRequest struct {
	PointsEarned float64 `json:"points_earned" validate:"gte=0"`
	Feedback     string  `json:"feedback"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint           `json:"id"`
	AssignmentID uint           `json:"assignment_id"`
	StudentID    uint           `json:"student_id"`
	Status       string         `json:"status"`
	Content      string         `json:"content,omitempty"`
	FileURL      string         `json:"file_url,omitempty"`
	Late         bool           `json:"late"`
	SubmittedAt  *time.Time     `json:"submitted_at"`
	PointsEarned *float64       `json:"points_earned"`
	Feedback     string         `json:"feedback,omitempty"`
	GradedByID   *uint          `json:"graded_by_id"`
	GradedAt     *time.Time     `json:"graded_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   AssignmentLite `json:"assignment,omitempty"`
	Student      UserLite       `json:"student,omitempty"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Status:       model.Status,
		Content:      model.Content,
		FileURL:      model.FileURL,
		Late:         model.Late,
		SubmittedAt:  model.SubmittedAt,
		PointsEarned: model.PointsEarned,
		Feedback:     model.Feedback,
		GradedByID:   model.GradedByID,
		GradedAt:     model.GradedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:        model.Assignment.ID,
			CourseID:  model.Assignment.CourseID,
			Title:     model.Assignment.Title,
			MaxPoints: model.Assignment.MaxPoints,
			DueDate:   model.Assignment.DueDate,
		}
	}
	if model.Student.ID != 0 {
		response.Student = NewUserLite(model.Student)
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
