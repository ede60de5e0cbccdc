package pipeline

import (
	"errors"
	"fmt"

	"designagent/internal/contrast"
	"designagent/internal/designspec"
)

var (
	// ErrUpstreamInvocation marks a failed strategist or repair model call.
	ErrUpstreamInvocation = errors.New("pipeline: upstream invocation failed")
	// ErrExport marks a failed export.
	ErrExport = errors.New("pipeline: export failed")
	// ErrRunFinished is returned when a run that reached DONE or FAILED is
	// asked to move again.
	ErrRunFinished = errors.New("pipeline: run already finished")

	ErrMalformedSpec     = designspec.ErrMalformedSpec
	ErrMissingPaletteKey = contrast.ErrMissingPaletteKey
)

// StageError is returned for every failed run. State is the state the run
// was in when it stopped.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedState returns the state a failed run stopped in, or "" when err did
// not come from a run.
func FailedState(err error) State {
	var se *StageError
	if errors.As(err, &se) {
		return se.State
	}
	return ""
}
