package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rstamps01/image-to-text/internal/models"
	"github.com/rstamps01/image-to-text/internal/service/pages"
	"github.com/rstamps01/image-to-text/pkg/logger"
)

type ProjectHandler struct {
	service pages.Service
	logger  logger.Logger
}

func NewProjectHandler(service pages.Service, log logger.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, logger: log}
}

type CreateProjectRequest struct {
	Title string `json:"title" binding:"required"`
}

type ProjectResponse struct {
	ProjectID      string `json:"projectId"`
	Title          string `json:"title"`
	TotalPages     int    `json:"totalPages"`
	ProcessedPages int    `json:"processedPages"`
	OrderedAt      string `json:"orderedAt,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func projectResponse(p *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ProjectID:      p.ID,
		Title:          p.Title,
		TotalPages:     p.TotalPages,
		ProcessedPages: p.ProcessedPages,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
	if p.OrderedAt != nil {
		resp.OrderedAt = p.OrderedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}

	project, err := h.service.CreateProject(c.Request.Context(), owner, req.Title)
	if err != nil {
		writeError(c, h.logger, "Failed to create project", err)
		return
	}

	c.JSON(http.StatusCreated, projectResponse(project))
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), owner, c.Param("projectId"))
	if err != nil {
		writeError(c, h.logger, "Failed to get project", err)
		return
	}

	c.JSON(http.StatusOK, projectResponse(project))
}

// Reorder recomputes the document order for every page in the project.
func (h *ProjectHandler) Reorder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	ordered, err := h.service.Reorder(c.Request.Context(), owner, c.Param("projectId"))
	if err != nil {
		writeError(c, h.logger, "Failed to reorder project", err)
		return
	}

	responses := make([]PageResponse, len(ordered))
	for i, p := range ordered {
		responses[i] = pageResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"pages": responses})
}

func (h *ProjectHandler) RetryFailed(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	report, err := h.service.RetryFailed(c.Request.Context(), owner, c.Param("projectId"))
	if err != nil && report == nil {
		writeError(c, h.logger, "Failed to retry pages", err)
		return
	}

	resp := gin.H{
		"results":   report.Results,
		"succeeded": report.Succeeded,
	}
	if err != nil {
		// Interrupted batch: partial report plus the reason.
		resp["interrupted"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProjectHandler) Recount(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	n, err := h.service.Recount(c.Request.Context(), owner, c.Param("projectId"))
	if err != nil {
		writeError(c, h.logger, "Failed to recount project", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"processedPages": n})
}

func (h *ProjectHandler) Export(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	export, err := h.service.Export(c.Request.Context(), owner, c.Param("projectId"))
	if err != nil {
		writeError(c, h.logger, "Failed to export project", err)
		return
	}

	if c.Query("format") == "text" {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(export.Text))
		return
	}
	c.JSON(http.StatusOK, export)
}
