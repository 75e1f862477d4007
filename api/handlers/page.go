package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rstamps01/image-to-text/internal/models"
	"github.com/rstamps01/image-to-text/internal/service/pages"
	"github.com/rstamps01/image-to-text/pkg/logger"
)

type PageHandler struct {
	service pages.Service
	logger  logger.Logger
}

func NewPageHandler(service pages.Service, log logger.Logger) *PageHandler {
	return &PageHandler{service: service, logger: log}
}

type PageResponse struct {
	PageID       string  `json:"pageId"`
	ProjectID    string  `json:"projectId"`
	Filename     string  `json:"filename"`
	Status       string  `json:"status"`
	Label        *string `json:"label,omitempty"`
	SortPosition int     `json:"sortPosition"`
	NeedsReview  bool    `json:"needsReview,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	Error        string  `json:"error,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

func pageResponse(p *models.Page) PageResponse {
	return PageResponse{
		PageID:       p.ID,
		ProjectID:    p.ProjectID,
		Filename:     p.Filename,
		Status:       string(p.Status),
		Label:        p.Label,
		SortPosition: p.SortPosition,
		NeedsReview:  p.NeedsReview,
		Confidence:   p.Confidence,
		Error:        p.Error,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

// UploadPage accepts a single page image under the "file" form field.
func (h *PageHandler) UploadPage(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid file upload", Error: err.Error()})
		return
	}
	defer file.Close()

	page, err := h.service.UploadPage(c.Request.Context(), owner, c.Param("projectId"), header.Filename, file)
	if err != nil {
		writeError(c, h.logger, "Failed to upload page", err)
		return
	}

	c.JSON(http.StatusAccepted, pageResponse(page))
}

// UploadBatch accepts multiple page images under the "files" form field.
func (h *PageHandler) UploadBatch(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid form data", Error: err.Error()})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "No files provided"})
		return
	}

	uploaded, err := h.service.UploadBatch(c.Request.Context(), owner, c.Param("projectId"), files)
	if err != nil {
		writeError(c, h.logger, "Failed to upload pages", err)
		return
	}

	responses := make([]PageResponse, len(uploaded))
	for i, p := range uploaded {
		responses[i] = pageResponse(p)
	}
	c.JSON(http.StatusAccepted, gin.H{"pages": responses})
}

func (h *PageHandler) ListPages(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	listed, err := h.service.ListPages(c.Request.Context(), owner, c.Param("projectId"))
	if err != nil {
		writeError(c, h.logger, "Failed to list pages", err)
		return
	}

	responses := make([]PageResponse, len(listed))
	for i, p := range listed {
		responses[i] = pageResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"pages": responses})
}

func (h *PageHandler) GetPage(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	page, err := h.service.GetPage(c.Request.Context(), owner, c.Param("pageId"))
	if err != nil {
		writeError(c, h.logger, "Failed to get page", err)
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}

// RetryPage re-runs recognition for a single page synchronously.
func (h *PageHandler) RetryPage(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	page, err := h.service.ProcessPage(c.Request.Context(), owner, c.Param("pageId"))
	if err != nil {
		writeError(c, h.logger, "Failed to retry page", err)
		return
	}

	c.JSON(http.StatusOK, pageResponse(page))
}
