package risk

import (
	"errors"
	"fmt"
)

var ErrModelNotConfigured = errors.New("no model path configured")

// ModelLoadError means the artifact was missing or unreadable.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load risk model %q: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InferenceError means a loaded model failed to score one input.
type InferenceError struct {
	Kind string
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s inference: %v", e.Kind, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
