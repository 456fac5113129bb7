package dto

import "time"

// DashboardSummary aggregates a student's standing across their courses.
type DashboardSummary struct {
	ActiveCourses     int     `json:"active_courses"`
	CompletedCourses  int     `json:"completed_courses"`
	TotalAssignments  int     `json:"total_assignments"`
	Submitted         int     `json:"submitted"`
	Graded            int     `json:"graded"`
	Pending           int     `json:"pending"`
	Overdue           int     `json:"overdue"`
	AveragePercentage float64 `json:"average_percentage"`
}

// AssignmentProgress reports a student's state on one assignment.
type AssignmentProgress struct {
	AssignmentID uint       `json:"assignment_id"`
	CourseID     uint       `json:"course_id"`
	Title        string     `json:"title"`
	DueDate      time.Time  `json:"due_date"`
	Status       string     `json:"status"`
	SubmissionID *uint      `json:"submission_id,omitempty"`
	PointsEarned *float64   `json:"points_earned,omitempty"`
	Late         bool       `json:"late"`
	Overdue      bool       `json:"overdue"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

// StudentDashboardResponse is the cached dashboard payload.
type StudentDashboardResponse struct {
	Summary DashboardSummary     `json:"summary"`
	Pending []AssignmentProgress `json:"pending"`
}
