package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/models"
)

// ModuleRepository defines data operations for course modules.
type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	GetByID(ctx context.Context, id uint) (models.Module, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id uint) error
}

type moduleRepository struct {
	db *gorm.DB
}

// NewModuleRepository instantiates the repository.
func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) Create(ctx context.Context, module *models.Module) error {
	return conn(ctx, r.db).Create(module).Error
}

func (r *moduleRepository) GetByID(ctx context.Context, id uint) (models.Module, error) {
	var module models.Module
	if err := conn(ctx, r.db).First(&module, id).Error; err != nil {
		return models.Module{}, err
	}
	return module, nil
}

func (r *moduleRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Module, error) {
	var modules []models.Module
	if err := conn(ctx, r.db).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepository) Update(ctx context.Context, module *models.Module) error {
	return conn(ctx, r.db).Save(module).Error
}

func (r *moduleRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Module{}, id).Error
}
