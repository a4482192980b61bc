package classifier

import (
	"sync"
	"sync/atomic"
)

// State tracks the model handle lifecycle: Unloaded → Loading → Ready|Failed,
// with Closed terminal after release.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options describe the packaged model artifact bound by a Model.
type Options struct {
	ModelPath     string
	Labels        LabelSet
	InputSize     int
	Normalization Normalization
}

// session is the loaded inference handle: a forward pass over a preallocated
// input/output tensor pair. Run is not re-entrant; the Model serializes calls.
type session interface {
	Run() error
	Input() []float32
	Output() []float32
	Destroy() error
}

// Model owns the single shared inference handle. Load is idempotent and
// guarded so racing callers converge on one handle (or one failure), and
// forward passes are serialized internally.
type Model struct {
	opts Options
	open func(opts Options) (session, error)

	state atomic.Int32

	mu      sync.Mutex // guards load and close transitions
	runMu   sync.Mutex // exclusive access per inference call
	sess    session
	loadErr error
}

func NewModel(opts Options) *Model {
	if opts.InputSize == 0 {
		opts.InputSize = 224
	}
	if opts.Normalization == "" {
		opts.Normalization = NormalizationScale
	}
	if len(opts.Labels) == 0 {
		opts.Labels = DefaultLabels()
	}

	return &Model{opts: opts, open: openONNXSession}
}

func (m *Model) State() State {
	return State(m.state.Load())
}

func (m *Model) Labels() LabelSet {
	return m.opts.Labels
}

func (m *Model) Options() Options {
	return m.opts
}

// Load binds the model artifact into an inference-ready handle. Repeat calls
// return the cached outcome: the ready handle after a success, the original
// error after a failure. Retrying after a failure means constructing a fresh
// Model.
func (m *Model) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.State() {
	case StateReady:
		return nil
	case StateFailed:
		return m.loadErr
	case StateClosed:
		return newError(KindModelLoad, "model handle is closed")
	}

	m.state.Store(int32(StateLoading))

	sess, err := m.open(m.opts)
	if err != nil {
		if KindOf(err) == "" {
			err = newError(KindModelLoad, "failed to load model: %w", err)
		}

		m.loadErr = err
		m.state.Store(int32(StateFailed))
		return m.loadErr
	}

	m.sess = sess
	m.state.Store(int32(StateReady))
	return nil
}

// run performs one synchronous forward pass and copies out the raw confidence
// vector. Prediction attempts before a successful load are rejected
// immediately rather than blocked.
func (m *Model) run(input []float32) ([]float32, error) {
	if m.State() != StateReady {
		return nil, ErrNotInitialized
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	// Close may have released the handle while we waited for the lock.
	if m.sess == nil {
		return nil, ErrNotInitialized
	}

	in := m.sess.Input()
	if len(input) != len(in) {
		return nil, newError(KindInference, "input tensor has %d values, model expects %d", len(input), len(in))
	}
	copy(in, input)

	if err := m.sess.Run(); err != nil {
		return nil, newError(KindInference, "forward pass failed: %w", err)
	}

	out := m.sess.Output()
	raw := make([]float32, len(out))
	copy(raw, out)

	return raw, nil
}

// Close releases the handle exactly once. Further loads and predictions fail.
// An in-flight forward pass finishes before the session is destroyed.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == StateClosed {
		return nil
	}
	m.state.Store(int32(StateClosed))

	if m.sess == nil {
		return nil
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	sess := m.sess
	m.sess = nil
	return sess.Destroy()
}
