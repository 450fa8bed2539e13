package editor

import (
	"errors"
	"fmt"
)

var (
	// Local rejections, no network call is made.
	ErrReadOnly            = errors.New("workflow is read-only while viewing a run")
	ErrBusy                = errors.New("another request is in progress")
	ErrClosed              = errors.New("editor is closed")
	ErrInvalidDocument     = errors.New("workflow is not valid")
	ErrUnknownStepType     = errors.New("unknown step type")
	ErrUnknownInput        = errors.New("unknown step input")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrOutputUnavailable   = errors.New("output is not available to this step")
	ErrDuplicateDefinition = errors.New("output definition already exists")
	ErrMissingParameter    = errors.New("missing run parameter")
	ErrRunRequiresWorkflow = errors.New("a run can only be opened for a workflow")

	// ErrRunCancelled is returned by a ParameterPrompt when the user backs out.
	ErrRunCancelled = errors.New("run cancelled")
)

// ActionError records which editor action failed.
type ActionError struct {
	Op  string
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func (e *ActionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func actionError(op string, err error) error {
	if err == nil {
		return nil
	}

	return &ActionError{Op: op, Err: err}
}

type userMessager interface {
	UserMessage() string
}

// bannerMessage picks the text shown to the user for a failed request.
func bannerMessage(err error, fallback string) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}

	return fallback
}
