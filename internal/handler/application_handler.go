package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniboard/uniboard-api/internal/models"
	"github.com/uniboard/uniboard-api/internal/service"
	appErrors "github.com/uniboard/uniboard-api/pkg/errors"
	"github.com/uniboard/uniboard-api/pkg/response"
)

// ApplicationHandler wires HTTP endpoints to the application service.
type ApplicationHandler struct {
	service *service.ApplicationService
}

// NewApplicationHandler creates a new handler.
func NewApplicationHandler(svc *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: svc}
}

// Submit godoc
// @Summary Apply to a notice
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body models.CreateApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	var req models.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "Notice ID is required"))
		return
	}

	app, err := h.service.Submit(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, app)
}

// List godoc
// @Summary List applications
// @Description Students see their own applications, admins see all
// @Tags Applications
// @Produce json
// @Param status query string false "Status filter"
// @Param noticeId query string false "Notice filter"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	filter := models.ApplicationFilter{
		NoticeID: c.Query("noticeId"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}
	if raw := c.Query("status"); raw != "" {
		if !models.IsValidApplicationStatus(raw) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Status must be pending, approved, or rejected"))
			return
		}
		status := models.ApplicationStatus(raw)
		filter.Status = &status
	}

	apps, pagination, err := h.service.List(c.Request.Context(), user, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, apps, pagination)
}

// Get godoc
// @Summary Get an application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	app, err := h.service.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// Approve godoc
// @Summary Approve an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.ReviewApplicationRequest false "Review notes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/approve [put]
func (h *ApplicationHandler) Approve(c *gin.Context) {
	h.review(c, models.ApplicationApproved)
}

// Reject godoc
// @Summary Reject an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.ReviewApplicationRequest false "Review notes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/reject [put]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	h.review(c, models.ApplicationRejected)
}

func (h *ApplicationHandler) review(c *gin.Context, status models.ApplicationStatus) {
	user := userFromContext(c)
	if user == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	var req models.ReviewApplicationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Invalid review payload"))
			return
		}
	}

	app, err := h.service.Review(c.Request.Context(), user.ID, c.Param("id"), status, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, app, nil)
}

// Export godoc
// @Summary Export applications
// @Description Download applications matching the filter as CSV or PDF
// @Tags Applications
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param status query string false "Status filter"
// @Param noticeId query string false "Notice filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /applications/export [get]
func (h *ApplicationHandler) Export(c *gin.Context) {
	filter := models.ApplicationFilter{NoticeID: c.Query("noticeId")}
	if raw := c.Query("status"); raw != "" {
		if !models.IsValidApplicationStatus(raw) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Status must be pending, approved, or rejected"))
			return
		}
		status := models.ApplicationStatus(raw)
		filter.Status = &status
	}

	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	file, err := h.service.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
