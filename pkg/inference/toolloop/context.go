package toolloop

import (
	"context"

	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
)

type Phase string

const (
	PhaseReasoning    Phase = "reasoning"
	PhaseToolDispatch Phase = "tool_dispatch"
	PhaseToolResult   Phase = "tool_result"
	PhaseResponding   Phase = "responding"
)

// Event describes a state transition of the loop. Call is set for tool
// phases, Turn for tool results and the final answer.
type Event struct {
	Phase     Phase
	Iteration int
	Call      *engine.ToolCall
	Turn      *conversation.Turn
	Err       error
}

// Hook observes loop progress. It runs synchronously on the loop goroutine.
type Hook func(ctx context.Context, ev Event)

type hookKey struct{}

// WithHook attaches a hook to the context, for callers that do not own the
// Loop.
func WithHook(ctx context.Context, hook Hook) context.Context {
	if hook == nil {
		return ctx
	}
	return context.WithValue(ctx, hookKey{}, hook)
}

// HookFromContext returns the hook attached to the context, if any.
func HookFromContext(ctx context.Context) (Hook, bool) {
	v := ctx.Value(hookKey{})
	if v == nil {
		return nil, false
	}
	h, ok := v.(Hook)
	return h, ok && h != nil
}
