package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strumscan/scan-server/internal/api"
	"github.com/strumscan/scan-server/internal/app"
)

func (s *Server) SetupRoutes(app *app.App) {
	s.ginEngine.GET("/healthz", handlerWrapper(app, api.Health))

	// Not an API, just serves the stored scan photos back.
	s.ginEngine.GET("/file/:filename", handlerWrapper(app, api.GetFile))

	apiV1 := s.ginEngine.Group("/api/v1")

	apiV1.POST("/scans", handlerWrapper(app, api.CreateScan))
	apiV1.GET("/scans", handlerWrapper(app, api.ListScans))
	apiV1.GET("/scans/stats", handlerWrapper(app, api.ScanStats))
	apiV1.GET("/scans/export", handlerWrapper(app, api.ExportScans))
	apiV1.GET("/scans/:id", handlerWrapper(app, api.GetScan))
	apiV1.DELETE("/scans/:id", handlerWrapper(app, api.DeleteScan))

	s.ginEngine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})
}

func handlerWrapper(app *app.App, f func(c *gin.Context)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("app", app)
		f(ctx)
	}
}
