package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/service"
	"github.com/educore-labs/educore-api/internal/utils"
)

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: svc,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit endpoints to the router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	req := dto.AuditListRequest{
		Page:       parseQueryInt(c, "page"),
		PageSize:   parseQueryInt(c, "page_size"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if actorID := parseQueryUint(c, "actor_id"); actorID != nil {
		req.ActorID = *actorID
	}

	entries, err := h.service.List(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "audit entries retrieved", entries)
}
