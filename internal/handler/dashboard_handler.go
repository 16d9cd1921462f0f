package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mowamiyya/leaveMangement/internal/service"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
	"github.com/mowamiyya/leaveMangement/pkg/response"
)

// DashboardHandler exposes role-scoped dashboard statistics.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Leave counts scoped to the caller's role
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.Stats(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
