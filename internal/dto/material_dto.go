package dto

import (
	"time"

	"github.com/educore-labs/educore-api/internal/models"
)

// MaterialCreateRequest adds learning content to a module. Document and
// video materials may carry an uploaded file instead of a URL.
type MaterialCreateRequest struct {
	Title   string `json:"title" form:"title" validate:"required,min=1,max=255"`
	Type    string `json:"type" form:"type" validate:"required,oneof=document video link text"`
	Content string `json:"content" form:"content"`
	URL     string `json:"url" form:"url" validate:"omitempty,url,max=512"`
}

// MaterialUpdateRequest mutates a material. Nil fields are untouched.
type MaterialUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content"`
	URL     *string `json:"url" validate:"omitempty,url,max=512"`
}

// MaterialResponse is returned to API clients when viewing materials.
type MaterialResponse struct {
	ID        uint      `json:"id"`
	ModuleID  uint      `json:"module_id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Content   string    `json:"content,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMaterialResponse converts a Material model into a DTO.
func NewMaterialResponse(model models.Material) MaterialResponse {
	return MaterialResponse{
		ID:        model.ID,
		ModuleID:  model.ModuleID,
		Title:     model.Title,
		Type:      model.Type,
		Content:   model.Content,
		URL:       model.URL,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewMaterialResponseSlice converts material models into DTOs.
func NewMaterialResponseSlice(materials []models.Material) []MaterialResponse {
	responses := make([]MaterialResponse, 0, len(materials))
	for _, material := range materials {
		responses = append(responses, NewMaterialResponse(material))
	}
	return responses
}
