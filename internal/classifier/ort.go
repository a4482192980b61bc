package classifier

import (
	"errors"

	ort "github.com/yalue/onnxruntime_go"
)

// onnxSession binds a model file through ONNX Runtime with persistent
// input/output tensors, fed and drained across calls.
type onnxSession struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func openONNXSession(opts Options) (session, error) {
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, newError(KindModelLoad, "failed to initialize onnx runtime: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, newError(KindModelLoad, "failed to inspect model %q: %w", opts.ModelPath, err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, newError(KindModelLoad, "expected one input and one output, model declares %d/%d", len(inputs), len(outputs))
	}

	in, out := inputs[0], outputs[0]

	// Label-count/output-width agreement is checked here, once, so a mismatch
	// fails the load with a configuration error instead of surfacing as an
	// out-of-range class index at prediction time.
	if len(out.Dimensions) > 0 {
		width := out.Dimensions[len(out.Dimensions)-1]
		if width > 0 && int(width) != len(opts.Labels) {
			return nil, newError(KindModelLoad, "model outputs %d classes but label set has %d", width, len(opts.Labels))
		}
	}

	size := int64(opts.InputSize)
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, size, size, 3))
	if err != nil {
		return nil, newError(KindModelLoad, "failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(opts.Labels))))
	if err != nil {
		inputTensor.Destroy()
		return nil, newError(KindModelLoad, "failed to create output tensor: %w", err)
	}

	sess, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{in.Name}, []string{out.Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, newError(KindModelLoad, "failed to create onnx session: %w", err)
	}

	return &onnxSession{
		session: sess,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

func (s *onnxSession) Run() error {
	return s.session.Run()
}

func (s *onnxSession) Input() []float32 {
	return s.input.GetData()
}

func (s *onnxSession) Output() []float32 {
	return s.output.GetData()
}

func (s *onnxSession) Destroy() error {
	return errors.Join(
		s.input.Destroy(),
		s.output.Destroy(),
		s.session.Destroy(),
	)
}
