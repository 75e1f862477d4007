package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rstamps01/image-to-text/internal/errs"
	"github.com/rstamps01/image-to-text/internal/service/pages"
	"github.com/rstamps01/image-to-text/pkg/logger"
)

type Handlers struct {
	Project *ProjectHandler
	Page    *PageHandler
}

func NewHandlers(pageService pages.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Project: NewProjectHandler(pageService, log),
		Page:    NewPageHandler(pageService, log),
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// ownerID pulls the caller identity from the X-Owner-ID header. Writes the
// 400 itself and returns false when the header is missing.
func ownerID(c *gin.Context) (string, bool) {
	owner := c.GetHeader("X-Owner-ID")
	if owner == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "X-Owner-ID header is required"})
		return "", false
	}
	return owner, true
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, log logger.Logger, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrInvalidTransition):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error(message,
			logger.String("path", c.Request.URL.Path),
			logger.Error(err),
		)
	}

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}
