package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// DashboardService produces a student's aggregated progress view.
type DashboardService interface {
	StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type dashboardService struct {
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService builds the dashboard aggregator. The cache client may
// be nil; aggregation then runs on every request.
func NewDashboardService(enrollments repository.EnrollmentRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		enrollments: enrollments,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	enrollments, _, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	courseIDs := make([]uint, 0, len(enrollments))
	var active, completed int
	for _, enrollment := range enrollments {
		switch enrollment.Status {
		case models.EnrollmentStatusActive:
			active++
			courseIDs = append(courseIDs, enrollment.CourseID)
		case models.EnrollmentStatusCompleted:
			completed++
			courseIDs = append(courseIDs, enrollment.CourseID)
		}
	}

	assignments, err := s.assignments.ListByCourses(ctx, courseIDs)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(assignments, submissions)
	response.Summary.ActiveCourses = active
	response.Summary.CompletedCourses = completed

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) buildResponse(assignments []models.Assignment, submissions []models.Submission) dto.StudentDashboardResponse {
	now := s.now()

	submissionByAssignment := map[uint]models.Submission{}
	for _, submission := range submissions {
		submissionByAssignment[submission.AssignmentID] = submission
	}

	summary := dto.DashboardSummary{}
	progress := make([]dto.AssignmentProgress, 0, len(assignments))
	var percentTotal float64
	var gradedCount int

	for _, assignment := range assignments {
		summary.TotalAssignments++
		submission, submitted := submissionByAssignment[assignment.ID]
		overdue := assignment.IsPastDue(now)

		item := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			CourseID:     assignment.CourseID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			Status:       "pending",
		}

		if submitted && submission.Status != models.SubmissionStatusDraft {
			item.SubmissionID = &submission.ID
			item.Late = submission.Late
			item.SubmittedAt = submission.SubmittedAt
			summary.Submitted++

			if submission.IsGraded() {
				item.Status = models.SubmissionStatusGraded
				item.PointsEarned = submission.PointsEarned
				summary.Graded++
				if assignment.MaxPoints > 0 && submission.PointsEarned != nil {
					percentTotal += *submission.PointsEarned / assignment.MaxPoints * 100
					gradedCount++
				}
			} else {
				item.Status = models.SubmissionStatusSubmitted
			}
		} else {
			summary.Pending++
			if overdue {
				summary.Overdue++
				item.Overdue = true
			}
		}

		progress = append(progress, item)
	}

	if gradedCount > 0 {
		summary.AveragePercentage = percentTotal / float64(gradedCount)
	}

	pending := make([]dto.AssignmentProgress, 0)
	for _, item := range progress {
		if item.Status != models.SubmissionStatusGraded {
			pending = append(pending, item)
		}
	}

	return dto.StudentDashboardResponse{
		Summary: summary,
		Pending: pending,
	}
}
