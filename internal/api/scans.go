package api

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/strumscan/scan-server/internal/app"
	"github.com/strumscan/scan-server/internal/classifier"
	"github.com/strumscan/scan-server/internal/services/filestorage"
	"github.com/strumscan/scan-server/internal/services/predcache"
)

const maxUploadBytes = 10 << 20

// CreateScan accepts a photo upload, runs it through the recognition
// pipeline and records the result in the scan history.
func CreateScan(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	if app.Classifier() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "model unavailable"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no image file provided; use 'image' as the form field name"})
		return
	}

	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "image exceeds the 10MB limit"})
		return
	}

	content, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to open uploaded file"})
		return
	}
	defer content.Close()

	imageBytes, err := io.ReadAll(content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read uploaded file"})
		return
	}

	mtype := mimetype.Detect(imageBytes)
	if !strings.HasPrefix(mtype.String(), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("expected an image upload, got %s", mtype.String())})
		return
	}

	hash := predcache.Key(imageBytes)

	pred, cached := app.PredCache().Get(hash)
	if !cached {
		pred, err = app.Classifier().Predict(c.Request.Context(), imageBytes)
		if err != nil {
			status, message := statusForPipelineError(err)
			app.Logger.Error("prediction failed", zap.Error(err))
			c.JSON(status, gin.H{"message": message})
			return
		}

		if err := app.PredCache().Put(hash, pred); err != nil {
			app.Logger.Warn("failed to persist prediction cache", zap.Error(err))
		}
	}

	imageURL := ""
	if app.Storage() != nil {
		info := filestorage.NewFileInfo(hash, mtype.Extension(), imageBytes, false)
		url, err := app.Storage().Upload(info)
		if err != nil {
			// The scan record is still useful without the stored photo.
			app.Logger.Warn("failed to store scan photo", zap.Error(err))
		} else {
			imageURL = url
		}
	}

	source := c.PostForm("source")
	if source == "" {
		source = "upload"
	}

	scan, err := app.History().Record(c.Request.Context(), pred, hash, imageURL, source)
	if err != nil {
		app.Logger.Error("failed to record scan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to record scan"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"scan": scan, "cached": cached})
}

func ListScans(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	from, to, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	scans, err := app.History().List(c.Request.Context(), from, to)
	if err != nil {
		app.Logger.Error("failed to list scans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to list scans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scans": scans})
}

func GetScan(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	scan, err := app.History().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"message": "scan not found"})
			return
		}

		app.Logger.Error("failed to fetch scan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch scan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scan": scan})
}

func DeleteScan(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	if err := app.History().Delete(c.Request.Context(), c.Param("id")); err != nil {
		app.Logger.Error("failed to delete scan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete scan"})
		return
	}

	c.Status(http.StatusNoContent)
}

func ScanStats(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	stats, err := app.History().Stats(c.Request.Context())
	if err != nil {
		app.Logger.Error("failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func ExportScans(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	from, to, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	scans, err := app.History().List(c.Request.Context(), from, to)
	if err != nil {
		app.Logger.Error("failed to export scans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to export scans"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="scans.csv"`)

	if err := app.History().WriteCSV(c.Writer, scans); err != nil {
		app.Logger.Error("failed to write csv", zap.Error(err))
	}
}

// statusForPipelineError maps error kinds to responses the client can act
// on: the model being down, a bad image, or a failed recognition attempt.
func statusForPipelineError(err error) (int, string) {
	switch classifier.KindOf(err) {
	case classifier.KindNotInitialized, classifier.KindModelLoad:
		return http.StatusServiceUnavailable, "model unavailable"
	case classifier.KindImageDecode:
		return http.StatusBadRequest, "could not read that image"
	case classifier.KindInference:
		return http.StatusInternalServerError, "recognition failed, try again"
	default:
		return http.StatusInternalServerError, "recognition failed, try again"
	}
}

// parseRange reads optional from/to query params, either RFC 3339 or plain
// dates. A bare "to" date covers the whole day.
func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time

	if v := c.Query("from"); v != "" {
		t, err := parseTime(v, false)
		if err != nil {
			return from, to, fmt.Errorf("invalid 'from' value %q", v)
		}
		from = t
	}

	if v := c.Query("to"); v != "" {
		t, err := parseTime(v, true)
		if err != nil {
			return from, to, fmt.Errorf("invalid 'to' value %q", v)
		}
		to = t
	}

	return from, to, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}

	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return t, nil
}
