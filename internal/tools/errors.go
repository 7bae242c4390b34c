package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tool registry.
var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrDuplicateTool = errors.New("tool already registered")
	ErrEmptyName     = errors.New("tool name is empty")
	ErrToolExecution = errors.New("tool execution failed")
)

// ExecutionError wraps a failure raised by a tool's invoke function.
type ExecutionError struct {
	Tool  string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s execution failed: %v", e.Tool, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrToolExecution) match any ExecutionError.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}
