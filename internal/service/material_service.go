package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// Material errors surfaced to the handler layer.
var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrMaterialPayload  = errors.New("material payload does not match its type")
)

// MaterialService exposes module material use cases.
type MaterialService interface {
	ListByModule(ctx context.Context, actor authz.Actor, moduleID uint) ([]dto.MaterialResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.MaterialResponse, error)
	Create(ctx context.Context, actor authz.Actor, moduleID uint, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
}

type materialService struct {
	materials   repository.MaterialRepository
	modules     repository.ModuleRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	tx          repository.TxRunner
	audit       AuditRecorder
	validator   *validator.Validate
	uploader    FileUploader
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewMaterialService constructs a MaterialService instance. Text content is
// run through a UGC sanitizer before it is stored.
func NewMaterialService(materials repository.MaterialRepository, modules repository.ModuleRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, tx repository.TxRunner, audit AuditRecorder, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) MaterialService {
	return &materialService{
		materials:   materials,
		modules:     modules,
		courses:     courses,
		enrollments: enrollments,
		tx:          tx,
		audit:       audit,
		validator:   validate,
		uploader:    uploader,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "material_service").Logger(),
		now:         time.Now,
	}
}

// authorize resolves the material's module and course and checks the action
// against the rule table.
func (s *materialService) authorize(ctx context.Context, actor authz.Actor, moduleID uint, action authz.Action) error {
	module, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrModuleNotFound
		}
		return err
	}

	course, err := s.courses.GetByID(ctx, module.CourseID)
	if err != nil {
		return err
	}

	resource, err := courseResource(ctx, s.enrollments, actor, course, authz.KindMaterial)
	if err != nil {
		return err
	}

	decision := authz.Decide(actor, resource, action)
	return resolveDecision(decision, ErrModuleNotFound)
}

func (s *materialService) ListByModule(ctx context.Context, actor authz.Actor, moduleID uint) ([]dto.MaterialResponse, error) {
	if err := s.authorize(ctx, actor, moduleID, authz.ActionRead); err != nil {
		return nil, err
	}

	materials, err := s.materials.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.MaterialResponse, error) {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}

	if err := s.authorize(ctx, actor, material.ModuleID, authz.ActionRead); err != nil {
		if errors.Is(err, ErrModuleNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Create(ctx context.Context, actor authz.Actor, moduleID uint, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	if err := s.authorize(ctx, actor, moduleID, authz.ActionCreate); err != nil {
		return dto.MaterialResponse{}, err
	}

	material := models.Material{
		ModuleID: moduleID,
		Title:    payload.Title,
		Type:     payload.Type,
		URL:      payload.URL,
	}

	switch payload.Type {
	case models.MaterialTypeText:
		if payload.Content == "" {
			return dto.MaterialResponse{}, ErrMaterialPayload
		}
		material.Content = s.sanitizer.Sanitize(payload.Content)
	case models.MaterialTypeLink:
		if payload.URL == "" {
			return dto.MaterialResponse{}, ErrMaterialPayload
		}
	case models.MaterialTypeDocument, models.MaterialTypeVideo:
		if file == nil && payload.URL == "" {
			return dto.MaterialResponse{}, ErrMaterialPayload
		}
		if file != nil {
			url, err := s.uploadAttachment(ctx, file)
			if err != nil {
				return dto.MaterialResponse{}, err
			}
			material.URL = url
		}
	}

	err := s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.materials.Create(ctx, &material); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionMaterialCreated, "material", &material.ID, map[string]interface{}{
			"module_id": moduleID,
			"type":      material.Type,
		})
	})
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().Uint("material_id", material.ID).Str("type", material.Type).Msg("material created")

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Update(ctx context.Context, actor authz.Actor, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}

	if err := s.authorize(ctx, actor, material.ModuleID, authz.ActionUpdate); err != nil {
		if errors.Is(err, ErrModuleNotFound) {
			return dto.MaterialResponse{}, ErrMaterialNotFound
		}
		return dto.MaterialResponse{}, err
	}

	if payload.Title != nil {
		material.Title = *payload.Title
	}
	if payload.Content != nil {
		material.Content = s.sanitizer.Sanitize(*payload.Content)
	}
	if payload.URL != nil {
		material.URL = *payload.URL
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.materials.Update(ctx, &material); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionMaterialUpdated, "material", &material.ID, nil)
	})
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().Uint("material_id", material.ID).Msg("material updated")

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}

	if err := s.authorize(ctx, actor, material.ModuleID, authz.ActionDelete); err != nil {
		if errors.Is(err, ErrModuleNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.materials.Delete(ctx, material.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionMaterialDeleted, "material", &material.ID, map[string]interface{}{
			"module_id": material.ModuleID,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("material_id", material.ID).Msg("material deleted")
	return nil
}

func (s *materialService) uploadAttachment(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := validateAttachmentType(file); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}

// validateAttachmentType sniffs the file's real content type; extensions are
// not trusted.
func validateAttachmentType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{
		"application/pdf",
		"application/zip",
		"application/x-zip-compressed",
		"text/plain",
		"image/png",
		"image/jpeg",
		"video/mp4",
	}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
