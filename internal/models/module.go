package models

import "time"

// Module is an ordered section of a course. Position is unique per course.
type Module struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_module_course_position,priority:1" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Position  int       `gorm:"not null;uniqueIndex:idx_module_course_position,priority:2" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Materials []Material `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"materials,omitempty"`
}
