package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mowamiyya/leaveMangement/internal/dto"
	"github.com/mowamiyya/leaveMangement/internal/service"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
	"github.com/mowamiyya/leaveMangement/pkg/export"
	"github.com/mowamiyya/leaveMangement/pkg/response"
)

// LeaveHandler wires HTTP endpoints to the leave workflow.
type LeaveHandler struct {
	service *service.LeaveService
	metrics *service.MetricsService
	archive *service.ExportArchiveService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewLeaveHandler creates a new handler. archive may be nil, in which case
// exports are served without an archived copy.
func NewLeaveHandler(svc *service.LeaveService, metrics *service.MetricsService, archive *service.ExportArchiveService) *LeaveHandler {
	return &LeaveHandler{
		service: svc,
		metrics: metrics,
		archive: archive,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Apply godoc
// @Summary Apply for leave
// @Description Submit a leave application routed to the class teacher
// @Tags Leaves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ApplyLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /leaves/apply [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}

	res, err := h.service.Apply(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLeaveSubmitted()

	response.Created(c, res)
}

// MyLeaves godoc
// @Summary List own leaves
// @Description Return the caller's leave history, newest first
// @Tags Leaves
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leaves/my-leaves [get]
func (h *LeaveHandler) MyLeaves(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.MyLeaves(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Pending godoc
// @Summary List pending leaves
// @Description Return the pending leaves reported to the teacher
// @Tags Leaves
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leaves/pending [get]
func (h *LeaveHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.PendingForTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// All godoc
// @Summary List all reported leaves
// @Description Return every leave ever reported to the teacher
// @Tags Leaves
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /leaves/all [get]
func (h *LeaveHandler) All(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.AllForTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Approve godoc
// @Summary Decide a leave
// @Description Approve or reject a pending leave reported to the teacher
// @Tags Leaves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ApprovalRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/approve [post]
func (h *LeaveHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	res, err := h.service.Resolve(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLeaveDecision(res.Status)

	response.JSON(c, http.StatusOK, res, nil)
}

// Export godoc
// @Summary Export reported leaves
// @Description Download every reported leave as CSV or PDF
// @Tags Leaves
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /leaves/all/export [get]
func (h *LeaveHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dataset, err := h.service.ExportForTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("leaves-%s", time.Now().UTC().Format("20060102-150405"))
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		h.archiveCopy(c, claims.UserID, filename+".csv", payload)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, "Leave Applications")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		h.archiveCopy(c, claims.UserID, filename+".pdf", payload)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// archiveCopy schedules a background copy of the export and advertises the
// signed re-download token in a response header. Failures are ignored, the
// direct download still succeeds.
func (h *LeaveHandler) archiveCopy(c *gin.Context, ownerID, filename string, payload []byte) {
	if h.archive == nil {
		return
	}
	token, _, err := h.archive.Archive(ownerID, filename, payload)
	if err != nil {
		return
	}
	c.Header("X-Export-Token", token)
}

// DownloadArchived godoc
// @Summary Download an archived export
// @Description Redeem a signed token for a previously generated export file
// @Tags Leaves
// @Produce octet-stream
// @Param token query string true "Signed export token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/exports [get]
func (h *LeaveHandler) DownloadArchived(c *gin.Context) {
	if h.archive == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	file, name, err := h.archive.Open(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	size := int64(-1)
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.DataFromReader(http.StatusOK, size, "application/octet-stream", file, nil)
}
