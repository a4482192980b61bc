package classifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	input    []float32
	output   []float32
	runErr   error
	runs     atomic.Int32
	inRun    atomic.Bool
	destroys atomic.Int32
}

func (s *fakeSession) Run() error {
	if !s.inRun.CompareAndSwap(false, true) {
		panic("concurrent forward pass on one handle")
	}
	defer s.inRun.Store(false)

	s.runs.Add(1)
	return s.runErr
}

func (s *fakeSession) Input() []float32  { return s.input }
func (s *fakeSession) Output() []float32 { return s.output }

func (s *fakeSession) Destroy() error {
	s.destroys.Add(1)
	return nil
}

// newFakeModel wires a Model to an in-memory session whose forward pass
// always yields output.
func newFakeModel(t *testing.T, labels LabelSet, output []float32) (*Model, *fakeSession, *atomic.Int32) {
	t.Helper()

	sess := &fakeSession{
		input:  make([]float32, 1*224*224*3),
		output: output,
	}

	var opens atomic.Int32
	m := NewModel(Options{ModelPath: "fake.onnx", Labels: labels})
	m.open = func(Options) (session, error) {
		opens.Add(1)
		return sess, nil
	}

	return m, sess, &opens
}

func TestModel_LoadIsIdempotent(t *testing.T) {
	m, _, opens := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})

	require.NoError(t, m.Load())
	require.NoError(t, m.Load())
	require.Equal(t, int32(1), opens.Load())
	require.Equal(t, StateReady, m.State())
}

func TestModel_RacingLoadersConverge(t *testing.T) {
	m, _, opens := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, m.Load())
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), opens.Load())
}

func TestModel_LoadFailureIsCached(t *testing.T) {
	m := NewModel(Options{ModelPath: "missing.onnx"})

	var opens atomic.Int32
	m.open = func(Options) (session, error) {
		opens.Add(1)
		return nil, errors.New("artifact is corrupt")
	}

	err1 := m.Load()
	require.Error(t, err1)
	require.Equal(t, KindModelLoad, KindOf(err1))
	require.Equal(t, StateFailed, m.State())

	err2 := m.Load()
	require.Equal(t, err1, err2)
	require.Equal(t, int32(1), opens.Load())
}

// blockingSession parks inside Run until released, exposing the window
// between a forward pass starting and the handle being closed.
type blockingSession struct {
	started   chan struct{}
	release   chan struct{}
	destroyed atomic.Bool
	input     []float32
	output    []float32
}

func (s *blockingSession) Run() error {
	close(s.started)
	<-s.release
	return nil
}

func (s *blockingSession) Input() []float32  { return s.input }
func (s *blockingSession) Output() []float32 { return s.output }

func (s *blockingSession) Destroy() error {
	s.destroyed.Store(true)
	return nil
}

func TestModel_CloseWaitsForInFlightRun(t *testing.T) {
	sess := &blockingSession{
		started: make(chan struct{}),
		release: make(chan struct{}),
		input:   make([]float32, 4),
		output:  []float32{0.1, 0.9},
	}

	m := NewModel(Options{ModelPath: "fake.onnx", Labels: LabelSet{"A", "B"}})
	m.open = func(Options) (session, error) { return sess, nil }
	require.NoError(t, m.Load())

	runErr := make(chan error, 1)
	go func() {
		_, err := m.run(make([]float32, 4))
		runErr <- err
	}()
	<-sess.started

	closeErr := make(chan error, 1)
	go func() { closeErr <- m.Close() }()

	// The handle must stay alive while the forward pass is in flight.
	time.Sleep(20 * time.Millisecond)
	require.False(t, sess.destroyed.Load())

	close(sess.release)
	require.NoError(t, <-runErr)
	require.NoError(t, <-closeErr)
	require.True(t, sess.destroyed.Load())
}

func TestModel_CloseReleasesOnce(t *testing.T) {
	m, sess, _ := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})
	require.NoError(t, m.Load())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.Equal(t, int32(1), sess.destroys.Load())
	require.Equal(t, StateClosed, m.State())
}

func TestClassifier_PredictBeforeLoad(t *testing.T) {
	m, _, _ := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})
	c := New(m, zap.NewNop())

	_, err := c.Predict(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestClassifier_PredictGuitarScenario(t *testing.T) {
	labels := LabelSet{"Drums", "Guitar", "Piano"}
	m, sess, _ := newFakeModel(t, labels, []float32{0.05, 0.93, 0.02})
	require.NoError(t, m.Load())

	c := New(m, zap.NewNop())

	pred, err := c.Predict(context.Background(), encodePNG(t, gradientImage(512, 384)))
	require.NoError(t, err)
	require.Equal(t, "Guitar", pred.Label)
	require.InDelta(t, 93.0, pred.Confidence, 1e-6)
	require.Equal(t, int32(1), sess.runs.Load())
}

func TestClassifier_PredictDecodeFailure(t *testing.T) {
	m, sess, _ := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})
	require.NoError(t, m.Load())

	c := New(m, zap.NewNop())

	_, err := c.Predict(context.Background(), []byte("garbage"))
	require.Error(t, err)
	require.Equal(t, KindImageDecode, KindOf(err))

	// No partial forward pass happened.
	require.Equal(t, int32(0), sess.runs.Load())
}

func TestClassifier_PredictInferenceFailure(t *testing.T) {
	m, sess, _ := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})
	sess.runErr = errors.New("shape mismatch")
	require.NoError(t, m.Load())

	c := New(m, zap.NewNop())

	_, err := c.Predict(context.Background(), encodePNG(t, gradientImage(64, 64)))
	require.Error(t, err)
	require.Equal(t, KindInference, KindOf(err))
}

func TestClassifier_ConcurrentPredictsAreSerialized(t *testing.T) {
	m, sess, _ := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.2, 0.8})
	require.NoError(t, m.Load())

	c := New(m, zap.NewNop())
	data := encodePNG(t, gradientImage(128, 128))

	// The fake session panics if two forward passes overlap.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pred, err := c.Predict(context.Background(), data)
			require.NoError(t, err)
			require.Equal(t, "B", pred.Label)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(8), sess.runs.Load())
}

func TestClassifier_PredictAfterClose(t *testing.T) {
	m, _, _ := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})
	require.NoError(t, m.Load())
	require.NoError(t, m.Close())

	c := New(m, zap.NewNop())

	_, err := c.Predict(context.Background(), encodePNG(t, gradientImage(64, 64)))
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestClassifier_CanceledContext(t *testing.T) {
	m, _, _ := newFakeModel(t, LabelSet{"A", "B"}, []float32{0.1, 0.9})
	require.NoError(t, m.Load())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(m, zap.NewNop())
	_, err := c.Predict(ctx, encodePNG(t, gradientImage(64, 64)))
	require.ErrorIs(t, err, context.Canceled)
}
