package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/ticket-extractor/api/handlers"
	"github.com/feichai0017/ticket-extractor/api/middleware"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.CORS())

	api := r.Group("/api")
	{
		api.GET("/health", h.Health.Check)
		api.POST("/extract", h.Extract.Extract)
	}
}
