package models

import "time"

// Course lifecycle states. Students may only enroll while a course is open.
const (
	CourseStatusDraft    = "draft"
	CourseStatusOpen     = "open"
	CourseStatusClosed   = "closed"
	CourseStatusArchived = "archived"
)

// Course is a unit of teaching owned by a lecturer.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	LecturerID  uint      `gorm:"not null;index" json:"lecturer_id"`
	Status      string    `gorm:"size:32;not null;default:draft" json:"status"`
	Credits     int       `gorm:"not null;default:0" json:"credits"`
	MaxStudents int       `gorm:"not null;default:0" json:"max_students"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Lecturer User     `gorm:"foreignKey:LecturerID" json:"-"`
	Modules  []Module `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"modules,omitempty"`
}

// IsOpen reports whether students may enroll.
func (c Course) IsOpen() bool { return c.Status == CourseStatusOpen }

// ValidCourseStatus reports whether the given string is a known course status.
func ValidCourseStatus(status string) bool {
	switch status {
	case CourseStatusDraft, CourseStatusOpen, CourseStatusClosed, CourseStatusArchived:
		return true
	}
	return false
}
