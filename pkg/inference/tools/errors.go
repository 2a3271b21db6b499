package tools

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateTool = errors.New("duplicate tool")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrToolExecution = errors.New("tool execution failed")
	ErrInvalidInput  = errors.New("invalid tool arguments")
)

// DuplicateToolError is returned when registering a name that is already taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

func (e *DuplicateToolError) Is(target error) bool {
	return target == ErrDuplicateTool
}

// UnknownToolError is returned when a name is not in the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.Name)
}

func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// ToolExecutionError wraps whatever went wrong inside a tool's callable.
type ToolExecutionError struct {
	ToolName string
	Cause    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.ToolName, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Cause
}

func (e *ToolExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}

// ArgumentError is returned when provider-supplied arguments do not match the
// tool's parameter schema.
type ArgumentError struct {
	ToolName string
	Problems []string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %v", e.ToolName, e.Problems)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidInput
}
