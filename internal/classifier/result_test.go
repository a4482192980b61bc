package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectPrediction_TieBreakFirstWins(t *testing.T) {
	labels := LabelSet{"A", "B", "C"}

	pred, err := selectPrediction([]float32{0.5, 0.5, 0.3}, labels)
	require.NoError(t, err)
	require.Equal(t, "A", pred.Label)
	require.InDelta(t, 50.0, pred.Confidence, 1e-6)
}

func TestSelectPrediction_ClampsAbove100(t *testing.T) {
	labels := LabelSet{"A", "B"}

	pred, err := selectPrediction([]float32{0.1, 1.07}, labels)
	require.NoError(t, err)
	require.Equal(t, "B", pred.Label)
	require.Equal(t, 100.0, pred.Confidence)
}

func TestSelectPrediction_ClampsBelowZero(t *testing.T) {
	pred, err := selectPrediction([]float32{-0.5, -0.2}, LabelSet{"A", "B"})
	require.NoError(t, err)
	require.Equal(t, "B", pred.Label)
	require.Equal(t, 0.0, pred.Confidence)
}

func TestSelectPrediction_IndexOutsideLabelSet(t *testing.T) {
	// More output entries than labels: winning index 2 has no label.
	_, err := selectPrediction([]float32{0.1, 0.2, 0.7}, LabelSet{"A", "B"})
	require.Error(t, err)
	require.Equal(t, KindInference, KindOf(err))
}

func TestSelectPrediction_EmptyVector(t *testing.T) {
	_, err := selectPrediction(nil, LabelSet{"A"})
	require.Error(t, err)
	require.Equal(t, KindInference, KindOf(err))
}
