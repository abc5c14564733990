package query

import "errors"

// ErrEmptyQuery is returned when no SQL text was supplied.
var ErrEmptyQuery = errors.New("query text is empty")

// ExecutionError reports a statement the engine rejected. Message carries the
// engine's own text unchanged.
type ExecutionError struct {
	Message         string
	ExecutionTimeMs float64
	Err             error
}

func (e *ExecutionError) Error() string { return e.Message }

func (e *ExecutionError) Unwrap() error { return e.Err }
