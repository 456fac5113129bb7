package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/models"
)

// MaterialRepository defines data operations for module materials.
type MaterialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	GetByID(ctx context.Context, id uint) (models.Material, error)
	ListByModule(ctx context.Context, moduleID uint) ([]models.Material, error)
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id uint) error
}

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository instantiates the repository.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) Create(ctx context.Context, material *models.Material) error {
	return conn(ctx, r.db).Create(material).Error
}

func (r *materialRepository) GetByID(ctx context.Context, id uint) (models.Material, error) {
	var material models.Material
	if err := conn(ctx, r.db).First(&material, id).Error; err != nil {
		return models.Material{}, err
	}
	return material, nil
}

func (r *materialRepository) ListByModule(ctx context.Context, moduleID uint) ([]models.Material, error) {
	var materials []models.Material
	if err := conn(ctx, r.db).
		Where("module_id = ?", moduleID).
		Order("created_at ASC").
		Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *materialRepository) Update(ctx context.Context, material *models.Material) error {
	return conn(ctx, r.db).Save(material).Error
}

func (r *materialRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Material{}, id).Error
}
