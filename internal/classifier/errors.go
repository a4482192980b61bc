package classifier

import (
	"errors"
	"fmt"
)

// ErrorKind tags every failure the pipeline can surface so callers can map
// each one to an appropriate message: "model unavailable" vs. "could not read
// that image" vs. "recognition failed".
type ErrorKind string

const (
	// KindLabelLoad is recovered internally: the default label set is
	// substituted and the error is only reported for logging.
	KindLabelLoad ErrorKind = "label_load"

	// KindModelLoad is fatal to the pipeline; no prediction is possible
	// until a later load succeeds.
	KindModelLoad ErrorKind = "model_load"

	// KindImageDecode and KindInference are fatal to a single request.
	KindImageDecode ErrorKind = "image_decode"
	KindInference   ErrorKind = "inference"

	// KindNotInitialized is returned when prediction is attempted before a
	// successful model load.
	KindNotInitialized ErrorKind = "not_initialized"
)

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes two pipeline errors of the same kind match under errors.Is, so
// sentinel comparisons like errors.Is(err, ErrNotInitialized) work.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return e.Kind == other.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ErrNotInitialized is returned by Predict while the model is still in the
// Unloaded or Loading state. The pipeline rejects immediately rather than
// blocking until the load settles.
var ErrNotInitialized = &Error{Kind: KindNotInitialized, Err: errors.New("model is not loaded")}

// KindOf extracts the pipeline error kind from err, or "" if err does not
// originate from the pipeline.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}
