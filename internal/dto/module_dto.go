package dto

import (
	"time"

	"github.com/educore-labs/educore-api/internal/models"
)

// ModuleCreateRequest adds a module to a course.
type ModuleCreateRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=255"`
	Position int    `json:"position" validate:"required,gt=0"`
}

// ModuleUpdateRequest mutates a module. Nil fields are untouched.
type ModuleUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=255"`
	Position *int    `json:"position" validate:"omitempty,gt=0"`
}

// ModuleResponse is returned to API clients when viewing modules.
type ModuleResponse struct {
	ID        uint               `json:"id"`
	CourseID  uint               `json:"course_id"`
	Title     string             `json:"title"`
	Position  int                `json:"position"`
	Materials []MaterialResponse `json:"materials,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewModuleResponse converts a Module model into a DTO.
func NewModuleResponse(model models.Module) ModuleResponse {
	response := ModuleResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		Title:     model.Title,
		Position:  model.Position,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	if len(model.Materials) > 0 {
		response.Materials = NewMaterialResponseSlice(model.Materials)
	}

	return response
}

// NewModuleResponseSlice converts module models into DTOs.
func NewModuleResponseSlice(modules []models.Module) []ModuleResponse {
	responses := make([]ModuleResponse, 0, len(modules))
	for _, module := range modules {
		responses = append(responses, NewModuleResponse(module))
	}
	return responses
}
