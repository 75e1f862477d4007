package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/rstamps01/image-to-text/api/handlers"
	"github.com/rstamps01/image-to-text/api/middleware"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	projects := v1.Group("/projects")
	{
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:projectId", h.Project.GetProject)
		projects.POST("/:projectId/reorder", h.Project.Reorder)
		projects.POST("/:projectId/retry-failed", h.Project.RetryFailed)
		projects.POST("/:projectId/recount", h.Project.Recount)
		projects.GET("/:projectId/export", h.Project.Export)

		projects.POST("/:projectId/pages", h.Page.UploadPage)
		projects.POST("/:projectId/pages/batch", h.Page.UploadBatch)
		projects.GET("/:projectId/pages", h.Page.ListPages)
	}

	pages := v1.Group("/pages")
	{
		pages.GET("/:pageId", h.Page.GetPage)
		pages.POST("/:pageId/retry", h.Page.RetryPage)
	}
}
