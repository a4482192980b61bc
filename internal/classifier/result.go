package classifier

// Prediction names the single most likely class. Confidence is the winning
// raw value expressed as a percentage, clamped to [0,100].
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// selectPrediction runs a linear arg-max over the raw confidence vector.
// Strict greater-than comparison means the first occurrence wins on ties.
func selectPrediction(raw []float32, labels LabelSet) (Prediction, error) {
	if len(raw) == 0 {
		return Prediction{}, newError(KindInference, "model returned an empty output vector")
	}

	maxIdx := 0
	maxVal := raw[0]
	for i, val := range raw[1:] {
		if val > maxVal {
			maxVal = val
			maxIdx = i + 1
		}
	}

	if maxIdx >= len(labels) {
		return Prediction{}, newError(KindInference, "predicted class index %d is outside the label set (%d labels)", maxIdx, len(labels))
	}

	return Prediction{
		Label:      labels[maxIdx],
		Confidence: clampPercent(float64(maxVal) * 100),
	}, nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}

	return v
}
