package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mowamiyya/leaveMangement/internal/repository"
	"github.com/mowamiyya/leaveMangement/pkg/response"
)

// LeaveStatusHandler serves the public leave status reference list.
type LeaveStatusHandler struct {
	statuses *repository.LeaveStatusRepository
}

// NewLeaveStatusHandler creates a new handler.
func NewLeaveStatusHandler(statuses *repository.LeaveStatusRepository) *LeaveStatusHandler {
	return &LeaveStatusHandler{statuses: statuses}
}

// List godoc
// @Summary List the known leave statuses
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/leave-statuses [get]
func (h *LeaveStatusHandler) List(c *gin.Context) {
	statuses, err := h.statuses.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}
