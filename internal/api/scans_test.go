package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/strumscan/scan-server/internal/classifier"
)

func TestStatusForPipelineError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not initialized", classifier.ErrNotInitialized, http.StatusServiceUnavailable},
		{"model load", &classifier.Error{Kind: classifier.KindModelLoad, Err: errors.New("bad artifact")}, http.StatusServiceUnavailable},
		{"image decode", &classifier.Error{Kind: classifier.KindImageDecode, Err: errors.New("not an image")}, http.StatusBadRequest},
		{"inference", &classifier.Error{Kind: classifier.KindInference, Err: errors.New("run failed")}, http.StatusInternalServerError},
		{"unknown", errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, message := statusForPipelineError(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.NotEmpty(t, message)
		})
	}
}

func TestParseRange(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/scans?"+query, nil)
		return c
	}

	t.Run("empty range is open", func(t *testing.T) {
		from, to, err := parseRange(newCtx(""))
		require.NoError(t, err)
		require.True(t, from.IsZero())
		require.True(t, to.IsZero())
	})

	t.Run("plain dates", func(t *testing.T) {
		from, to, err := parseRange(newCtx("from=2026-08-01&to=2026-08-28"))
		require.NoError(t, err)
		require.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)

		// A bare "to" date covers the whole day.
		require.Equal(t, 28, to.Day())
		require.Equal(t, 23, to.Hour())
	})

	t.Run("rfc3339", func(t *testing.T) {
		from, _, err := parseRange(newCtx("from=2026-08-28T10:30:00Z"))
		require.NoError(t, err)
		require.Equal(t, 10, from.Hour())
	})

	t.Run("garbage from", func(t *testing.T) {
		_, _, err := parseRange(newCtx("from=yesterday"))
		require.Error(t, err)
	})
}
