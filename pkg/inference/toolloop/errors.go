package toolloop

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrLoopExceeded = errors.New("agent loop exceeded")
	ErrEmptyInput   = errors.New("user input is empty")
)

// AgentLoopExceededError is returned when the backend keeps requesting tools
// past the configured bound.
type AgentLoopExceededError struct {
	MaxIterations int
	LastTool      string
}

func (e *AgentLoopExceededError) Error() string {
	return fmt.Sprintf("tool call chain exceeded %d iterations (last tool: %s)", e.MaxIterations, e.LastTool)
}

func (e *AgentLoopExceededError) Is(target error) bool {
	return target == ErrLoopExceeded
}
