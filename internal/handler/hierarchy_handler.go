package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mowamiyya/leaveMangement/internal/service"
	"github.com/mowamiyya/leaveMangement/pkg/response"
)

// HierarchyHandler exposes the organization tree.
type HierarchyHandler struct {
	service *service.HierarchyService
}

// NewHierarchyHandler creates a new handler.
func NewHierarchyHandler(svc *service.HierarchyService) *HierarchyHandler {
	return &HierarchyHandler{service: svc}
}

// Tree godoc
// @Summary Organization tree
// @Description Departments, their classes, and the students in each class
// @Tags Hierarchy
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /hierarchy/tree [get]
func (h *HierarchyHandler) Tree(c *gin.Context) {
	res, err := h.service.Tree(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
