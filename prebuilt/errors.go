package prebuilt

import (
	"errors"
	"fmt"
)

var (
	// ErrModelCall matches every *ModelCallError.
	ErrModelCall = errors.New("model call failed")

	// ErrEmptyResponse is wrapped in a ModelCallError when the model returns no choices.
	ErrEmptyResponse = errors.New("model returned no choices")
)

// ModelCallError is returned when an agent's model call fails. Err is the model
// client's error, untouched.
type ModelCallError struct {
	Agent string
	Err   error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("agent %s: model call failed: %v", e.Agent, e.Err)
}

func (e *ModelCallError) Is(target error) bool {
	return target == ErrModelCall
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}
