package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_BuildsDSNUnderDataDir(t *testing.T) {
	c := &Config{DataDir: filepath.Join("/var/lib/strumscan", "data")}
	applyDefaults(c)

	require.Equal(t, "sqlite", c.DB.Driver)
	require.Equal(t, "file:"+filepath.Join(c.DataDir, "scans.db"), c.DB.DSN)
}

func TestApplyDefaults_ExpandsTildeDSN(t *testing.T) {
	c := &Config{
		DataDir: t.TempDir(),
		DB:      &DBConfig{Driver: "sqlite", DSN: "file:~/.strumscan/data/scans.db"},
	}
	applyDefaults(c)

	require.NotContains(t, c.DB.DSN, "~")
	require.True(t, strings.HasPrefix(c.DB.DSN, "file:"))
	require.True(t, filepath.IsAbs(strings.TrimPrefix(c.DB.DSN, "file:")))
}

func TestApplyDefaults_ModelDefaults(t *testing.T) {
	c := &Config{DataDir: t.TempDir()}
	applyDefaults(c)

	require.Equal(t, "instrument_classifier.onnx", c.Model.Path)
	require.Equal(t, "labels.txt", c.Model.LabelsPath)
	require.Equal(t, 224, c.Model.InputSize)
	require.Equal(t, "scale", c.Model.Normalization)
	require.Equal(t, FilesystemLocal, c.Filesystem)
}
