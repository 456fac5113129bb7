package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/models"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	Page       int
	PageSize   int
	LecturerID *uint
	Status     string
	Search     string
}

// CourseRepository defines data operations for courses.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetByCode(ctx context.Context, code string) (models.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	CountActiveEnrollments(ctx context.Context, courseID uint) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return conn(ctx, r.db).Create(course).Error
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := conn(ctx, r.db).Preload("Lecturer").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) GetByCode(ctx context.Context, code string) (models.Course, error) {
	var course models.Course
	if err := conn(ctx, r.db).Where("code = ?", code).First(&course).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := conn(ctx, r.db).Model(&models.Course{})

	if filter.LecturerID != nil {
		query = query.Where("lecturer_id = ?", *filter.LecturerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR title LIKE ?", pattern, pattern)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return conn(ctx, r.db).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Course{}, id).Error
}

func (r *courseRepository) CountActiveEnrollments(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Where("status = ?", models.EnrollmentStatusActive).
		Count(&count).Error
	return count, err
}
