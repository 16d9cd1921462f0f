package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mowamiyya/leaveMangement/internal/models"
	"github.com/mowamiyya/leaveMangement/internal/service"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
	"github.com/mowamiyya/leaveMangement/pkg/response"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// EntityHistory godoc
// @Summary Audit history for a single entity
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param entityType path string true "Entity type" Enums(USER, LEAVE, DEPARTMENT, CLASS, CLASS_TEACHER)
// @Param entityId path string true "Entity ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/audit/{entityType}/{entityId} [get]
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	entityType := models.AuditEntityType(c.Param("entityType"))
	switch entityType {
	case models.AuditEntityUser, models.AuditEntityLeave, models.AuditEntityDepartment,
		models.AuditEntityClass, models.AuditEntityClassTeacher:
	default:
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "unknown audit entity type"))
		return
	}

	logs, err := h.service.HistoryForEntity(c.Request.Context(), entityType, c.Param("entityId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// ActorHistory godoc
// @Summary Audit history produced by a single actor
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param actorId path string true "Actor user ID"
// @Success 200 {object} response.Envelope
// @Router /admin/audit/actors/{actorId} [get]
func (h *AuditHandler) ActorHistory(c *gin.Context) {
	logs, err := h.service.HistoryForActor(c.Request.Context(), c.Param("actorId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
