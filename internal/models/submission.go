package models

import "time"

// Submission states. Points become immutable once graded; only the admin
// override path may change them afterwards.
const (
	SubmissionStatusDraft     = "draft"
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusGraded    = "graded"
)

// Submission is a student's answer to an assignment. The (assignment,
// student) pair is unique.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student,priority:1" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student,priority:2" json:"student_id"`
	Status       string     `gorm:"size:32;not null;default:draft" json:"status"`
	Content      string     `gorm:"type:text" json:"content"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	Late         bool       `gorm:"not null;default:false" json:"late"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	PointsEarned *float64   `json:"points_earned"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	GradedByID   *uint      `json:"graded_by_id"`
	GradedAt     *time.Time `json:"graded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Assignment Assignment `gorm:"foreignKey:AssignmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student    User       `gorm:"foreignKey:StudentID" json:"-"`
}

// IsGraded reports whether the submission carries a final grade.
func (s Submission) IsGraded() bool { return s.Status == SubmissionStatusGraded }

// PercentageScore returns points earned relative to the assignment maximum.
// Zero when ungraded or when the assignment association is not loaded.
func (s Submission) PercentageScore() float64 {
	if s.PointsEarned == nil || s.Assignment.MaxPoints <= 0 {
		return 0
	}
	return *s.PointsEarned / s.Assignment.MaxPoints * 100
}

// IsPassing reports whether earned points meet the assignment's passing bar.
func (s Submission) IsPassing() bool {
	return s.PointsEarned != nil && *s.PointsEarned >= s.Assignment.PassingPoints
}
