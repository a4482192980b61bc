// Package worker fans batch scans out over a bounded pool. Preprocessing is
// pure and runs in parallel across workers; forward passes are serialized
// inside the model, so pool size only bounds decode/resize concurrency.
package worker

import (
	"context"
	"os"
	"sync"

	"github.com/gammazero/workerpool"

	"github.com/strumscan/scan-server/internal/classifier"
)

type Predictor interface {
	Predict(ctx context.Context, imageBytes []byte) (classifier.Prediction, error)
}

type Result struct {
	Path       string
	Prediction classifier.Prediction
	Err        error
}

type BatchScanner struct {
	wp        *workerpool.WorkerPool
	predictor Predictor
}

func NewBatchScanner(predictor Predictor, maxWorkers int) *BatchScanner {
	return &BatchScanner{
		wp:        workerpool.New(maxWorkers),
		predictor: predictor,
	}
}

func (b *BatchScanner) Stop() {
	b.wp.Stop()
}

// ScanFiles submits one task per path and streams results as they complete.
// The channel closes once every task has finished. Result order is not the
// input order.
func (b *BatchScanner) ScanFiles(ctx context.Context, paths []string) <-chan Result {
	results := make(chan Result, len(paths))

	var wg sync.WaitGroup
	for _, path := range paths {
		path := path

		wg.Add(1)
		b.wp.Submit(func() {
			defer wg.Done()
			results <- b.scanFile(ctx, path)
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (b *BatchScanner) scanFile(ctx context.Context, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Err: err}
	}

	pred, err := b.predictor.Predict(ctx, data)
	return Result{Path: path, Prediction: pred, Err: err}
}
