package pipeline

import (
	"errors"
	"fmt"

	"github.com/sells-group/opportunity-agent/internal/model"
)

// StageError is a classified failure raised by one pipeline stage. The code
// drives the response envelope; Retryable drives the retry hint handed back
// to the calling workflow.
type StageError struct {
	Stage     string
	Code      model.ErrorCode
	Retryable bool
	Err       error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Code, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// notConfigured marks a stage whose external dependency was never built
// because its configuration is missing. Retrying cannot succeed until the
// deployment is fixed, so these are always flagged non-retryable.
func notConfigured(stage string, err error) *StageError {
	return &StageError{
		Stage:     stage,
		Code:      model.ErrServiceNotConfigured,
		Retryable: false,
		Err:       err,
	}
}

// asStageError extracts a StageError from an error chain.
func asStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
