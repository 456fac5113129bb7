package models

import "time"

// Enrollment states. Dropped enrollments keep their row for the audit trail.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
)

// Enrollment links a student to a course. The (student, course) pair is
// unique; concurrent enroll calls are serialized by the index.
type Enrollment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_enrollment_student_course,priority:1" json:"student_id"`
	CourseID    uint       `gorm:"not null;uniqueIndex:idx_enrollment_student_course,priority:2" json:"course_id"`
	Status      string     `gorm:"size:32;not null;default:active" json:"status"`
	Grade       *float64   `json:"grade"`
	EnrolledAt  time.Time  `gorm:"not null" json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Student User   `gorm:"foreignKey:StudentID" json:"-"`
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the enrollment currently grants course access.
func (e Enrollment) IsActive() bool { return e.Status == EnrollmentStatusActive }

// GrantsVisibility reports whether the enrollment lets the student read
// course content. Completed students keep read access; dropped ones do not.
func (e Enrollment) GrantsVisibility() bool {
	return e.Status == EnrollmentStatusActive || e.Status == EnrollmentStatusCompleted
}
