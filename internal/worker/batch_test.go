package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strumscan/scan-server/internal/classifier"
)

type stubPredictor struct{}

func (stubPredictor) Predict(ctx context.Context, imageBytes []byte) (classifier.Prediction, error) {
	// Echo the payload back as the label so results can be matched to files.
	return classifier.Prediction{Label: string(imageBytes), Confidence: 50}, nil
}

func TestBatchScanner_ScanFiles(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for _, name := range []string{"a", "b", "c"} {
		path := filepath.Join(dir, name+".jpg")
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		paths = append(paths, path)
	}

	scanner := NewBatchScanner(stubPredictor{}, 2)
	defer scanner.Stop()

	labels := map[string]string{}
	for result := range scanner.ScanFiles(context.Background(), paths) {
		require.NoError(t, result.Err)
		labels[filepath.Base(result.Path)] = result.Prediction.Label
	}

	require.Equal(t, map[string]string{"a.jpg": "a", "b.jpg": "b", "c.jpg": "c"}, labels)
}

func TestBatchScanner_MissingFile(t *testing.T) {
	scanner := NewBatchScanner(stubPredictor{}, 1)
	defer scanner.Stop()

	results := scanner.ScanFiles(context.Background(), []string{"/does/not/exist.jpg"})

	result := <-results
	require.Error(t, result.Err)

	_, open := <-results
	require.False(t, open)
}
