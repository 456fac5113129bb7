package models

import "time"

// Assignment types mirrored from the catalog taxonomy.
const (
	AssignmentTypeHomework = "homework"
	AssignmentTypeQuiz     = "quiz"
	AssignmentTypeProject  = "project"
	AssignmentTypeExam     = "exam"
)

// Assignment is gradable work attached to a course. Ownership follows the
// course lecturer.
type Assignment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CourseID       uint       `gorm:"not null;index" json:"course_id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Type           string     `gorm:"size:32;not null;default:homework" json:"type"`
	MaxPoints      float64    `gorm:"not null" json:"max_points"`
	PassingPoints  float64    `gorm:"not null" json:"passing_points"`
	DueDate        time.Time  `gorm:"not null" json:"due_date"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`
	AllowLate      bool       `gorm:"not null;default:false" json:"allow_late"`
	CreatedByID    uint       `gorm:"not null" json:"created_by_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Course Course `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsPastDue reports whether the deadline has passed at the reference time.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// IsAvailable reports whether the assignment accepts submissions at the
// reference time, based on the optional availability window.
func (a Assignment) IsAvailable(reference time.Time) bool {
	if a.AvailableFrom != nil && reference.Before(*a.AvailableFrom) {
		return false
	}
	if a.AvailableUntil != nil && reference.After(*a.AvailableUntil) {
		return false
	}
	return true
}

// DaysLate returns how many whole days past the due date the reference time
// is, rounded up. Zero when the deadline has not passed.
func (a Assignment) DaysLate(reference time.Time) int {
	if !a.IsPastDue(reference) {
		return 0
	}
	late := reference.Sub(a.DueDate)
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// ValidAssignmentType reports whether the given string is a known type.
func ValidAssignmentType(t string) bool {
	switch t {
	case AssignmentTypeHomework, AssignmentTypeQuiz, AssignmentTypeProject, AssignmentTypeExam:
		return true
	}
	return false
}
