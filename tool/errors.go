package tool

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool matches every *UnknownToolError.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments matches every *InvalidArgumentsError.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrExecution matches every *ExecutionError.
	ErrExecution = errors.New("tool execution failed")
)

// UnknownToolError is returned when a call names a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// InvalidArgumentsError is returned when a call's arguments are not valid JSON
// or do not satisfy the tool's input schema.
type InvalidArgumentsError struct {
	Tool string
	Err  error
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %v", e.Tool, e.Err)
}

func (e *InvalidArgumentsError) Is(target error) bool {
	return target == ErrInvalidArguments
}

func (e *InvalidArgumentsError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps an error returned by a tool handler.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
