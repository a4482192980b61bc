package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strumscan/scan-server/internal/app"
)

func GetFile(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	filename := c.Param("filename")

	path, err := app.Storage().ResolveFile(filename, false)
	if err == nil {
		c.File(path)
		return
	}

	// No local path (s3 storage); stream the content instead.
	file, err := app.Storage().GetFile(filename)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(file.Content), file.Content)
}
