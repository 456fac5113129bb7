package models

import "time"

// Material types supported by the catalog.
const (
	MaterialTypeDocument = "document"
	MaterialTypeVideo    = "video"
	MaterialTypeLink     = "link"
	MaterialTypeText     = "text"
)

// Material is a piece of learning content attached to a module. Text
// content is sanitized before persistence; document/video materials carry
// an uploaded file URL instead.
type Material struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ModuleID  uint      `gorm:"not null;index" json:"module_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Content   string    `gorm:"type:text" json:"content"`
	URL       string    `gorm:"size:512" json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidMaterialType reports whether the given string is a known material type.
func ValidMaterialType(t string) bool {
	switch t {
	case MaterialTypeDocument, MaterialTypeVideo, MaterialTypeLink, MaterialTypeText:
		return true
	}
	return false
}
