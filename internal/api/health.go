package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strumscan/scan-server/internal/app"
)

func Health(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	modelState := "unloaded"
	if app.Classifier() != nil {
		modelState = app.Classifier().Model().State().String()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"model":  modelState,
	})
}
