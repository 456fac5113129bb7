package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// AuditRecorder appends entries to the audit trail. Services call Record
// inside the same transaction as the mutation it describes, so the entry
// commits or rolls back with the change.
type AuditRecorder interface {
	Record(ctx context.Context, actor authz.Actor, action, entityType string, entityID *uint, metadata map[string]interface{}) error
}

// AuditService exposes the audit trail to admin callers.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, actor authz.Actor, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs an AuditService instance.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, actor authz.Actor, action, entityType string, entityID *uint, metadata map[string]interface{}) error {
	entry := models.AuditLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   datatypes.JSONMap(sanitizeMetadata(metadata)),
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		return err
	}

	s.logger.Info().
		Uint("actor_id", actor.ID).
		Str("action", action).
		Str("entity_type", entityType).
		Msg("audit entry recorded")

	return nil
}

func (s *auditService) List(ctx context.Context, actor authz.Actor, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	decision := authz.Decide(actor, authz.Resource{Kind: authz.KindAuditLog}, authz.ActionRead)
	if !decision.Allowed {
		return dto.AuditListResponse{}, ErrForbidden
	}

	filter := repository.AuditLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     req.Action,
		EntityType: req.EntityType,
	}
	if req.ActorID != 0 {
		filter.ActorID = &req.ActorID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAuditEntryResponse(entry))
	}

	return dto.AuditListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

// sanitizeMetadata masks values whose keys look credential-bearing so raw
// secrets never reach the audit table.
func sanitizeMetadata(metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	cleaned := make(map[string]interface{}, len(metadata))
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") || strings.Contains(lower, "secret") {
			cleaned[key] = "[redacted]"
			continue
		}
		cleaned[key] = value
	}

	return cleaned
}
