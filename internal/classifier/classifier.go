// Package classifier implements the instrument recognition pipeline: a label
// set and ONNX model loaded once per process, image preprocessing into the
// model's input tensor, a serialized forward pass, and arg-max selection of
// the winning label.
package classifier

import (
	"context"

	"go.uber.org/zap"
)

// Classifier is the pipeline entry point consumed by the API and CLI layers.
// Preprocessing is stateless and may run concurrently; the forward pass is
// serialized by the model.
type Classifier struct {
	model  *Model
	pre    *Preprocessor
	logger *zap.Logger
}

func New(model *Model, logger *zap.Logger) *Classifier {
	opts := model.Options()

	return &Classifier{
		model:  model,
		pre:    NewPreprocessor(opts.InputSize, opts.Normalization),
		logger: logger,
	}
}

func (c *Classifier) Model() *Model {
	return c.model
}

// Predict converts imageBytes into the model's input tensor, runs one forward
// pass and returns the winning label with its confidence percentage. Failures
// carry an ErrorKind distinguishing decode, inference and not-initialized
// cases; a request that fails is simply retried by the caller with a fresh
// Predict call.
func (c *Classifier) Predict(ctx context.Context, imageBytes []byte) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	if c.model.State() != StateReady {
		return Prediction{}, ErrNotInitialized
	}

	tensor, err := c.pre.Tensor(imageBytes)
	if err != nil {
		return Prediction{}, err
	}

	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	raw, err := c.model.run(tensor)
	if err != nil {
		return Prediction{}, err
	}

	pred, err := selectPrediction(raw, c.model.Labels())
	if err != nil {
		return Prediction{}, err
	}

	c.logger.Debug("prediction completed",
		zap.String("label", pred.Label),
		zap.Float64("confidence", pred.Confidence),
	)

	return pred, nil
}
