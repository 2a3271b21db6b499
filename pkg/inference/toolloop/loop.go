package toolloop

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Loop answers one user utterance at a time: it asks the engine what to do,
// dispatches the tools it requests, feeds the results back, and records the
// whole exchange in memory once the engine gives a final answer.
type Loop struct {
	eng        engine.Engine
	engineName string
	registry   *tools.Registry
	loopCfg    LoopConfig
	hook       Hook
}

type Option func(*Loop)

func New(opts ...Option) *Loop {
	l := &Loop{
		loopCfg: DefaultLoopConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func WithEngine(eng engine.Engine) Option {
	return func(l *Loop) { l.eng = eng }
}

// WithEngineName labels backend errors with the engine's name.
func WithEngineName(name string) Option {
	return func(l *Loop) { l.engineName = name }
}

func WithRegistry(reg *tools.Registry) Option {
	return func(l *Loop) { l.registry = reg }
}

func WithLoopConfig(cfg LoopConfig) Option {
	return func(l *Loop) { l.loopCfg = cfg }
}

func WithLoopHook(h Hook) Option {
	return func(l *Loop) { l.hook = h }
}

func (l *Loop) Config() LoopConfig {
	return l.loopCfg
}

func (l *Loop) emit(ctx context.Context, ev Event) {
	if l.hook != nil {
		l.hook(ctx, ev)
	}
	if h, ok := HookFromContext(ctx); ok {
		h(ctx, ev)
	}
}

// RunLoop processes one utterance and returns the final answer.
//
// Memory is only written when the engine produces a final answer; the user
// turn, every tool turn and the assistant turn are then appended together.
// On any failure (backend error, chain bound, cancellation) memory is left
// exactly as it was.
func (l *Loop) RunLoop(ctx context.Context, mem *conversation.Memory, utterance string) (string, error) {
	if l == nil {
		return "", errors.New("tool loop is nil")
	}
	if l.eng == nil {
		return "", errors.New("tool loop engine is nil")
	}
	if l.registry == nil {
		return "", errors.New("tool loop registry is nil")
	}
	if mem == nil {
		return "", errors.New("tool loop memory is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(utterance) == "" {
		return "", ErrEmptyInput
	}

	maxIterations := l.loopCfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultLoopConfig().MaxIterations
	}

	history := mem.Snapshot()
	catalog := l.registry.Descriptions()
	var pending []conversation.Turn
	dispatched := 0

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		logger(ctx).Debug().Int("iteration", dispatched+1).Msg("toolloop: engine inference step")
		l.emit(ctx, Event{Phase: PhaseReasoning, Iteration: dispatched + 1})

		req := &engine.Request{
			SystemPrompt: l.loopCfg.SystemPrompt,
			History:      history,
			Input:        utterance,
			Pending:      append([]conversation.Turn(nil), pending...),
			Tools:        catalog,
		}
		decision, err := l.eng.Decide(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", engine.Unavailable(l.engineName, err)
		}

		switch d := decision.(type) {
		case engine.FinalAnswer:
			final := conversation.NewAssistantTurn(d.Text)
			exchange := make([]conversation.Turn, 0, len(pending)+2)
			exchange = append(exchange, conversation.NewUserTurn(utterance))
			exchange = append(exchange, pending...)
			exchange = append(exchange, final)
			if err := mem.Append(exchange...); err != nil {
				return "", errors.Wrap(err, "could not record exchange")
			}
			l.emit(ctx, Event{Phase: PhaseResponding, Iteration: dispatched + 1, Turn: &final})
			return d.Text, nil

		case engine.ToolCall:
			if dispatched >= maxIterations {
				logger(ctx).Warn().Int("max_iterations", maxIterations).Str("tool", d.Name).Msg("toolloop: maximum iterations reached")
				return "", &AgentLoopExceededError{MaxIterations: maxIterations, LastTool: d.Name}
			}
			dispatched++

			call := d
			l.emit(ctx, Event{Phase: PhaseToolDispatch, Iteration: dispatched, Call: &call})
			turn, err := l.dispatch(ctx, call)
			if err != nil {
				return "", err
			}
			pending = append(pending, turn)
			l.emit(ctx, Event{Phase: PhaseToolResult, Iteration: dispatched, Call: &call, Turn: &turn})

		default:
			return "", engine.Unavailable(l.engineName, fmt.Errorf("unexpected decision %T", decision))
		}
	}
}

// dispatch runs a tool call and turns its outcome into a tool turn. Tool
// failures become the turn's content so the engine can react to them; only
// cancellation aborts the chain.
func (l *Loop) dispatch(ctx context.Context, call engine.ToolCall) (conversation.Turn, error) {
	result, err := l.registry.Invoke(ctx, call.Name, call.Argument)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return conversation.Turn{}, ctxErr
		}
		logger(ctx).Warn().Err(err).Str("tool", call.Name).Msg("toolloop: tool failed")
		turn := conversation.NewToolTurn(call.ID, call.Name, call.Argument, "Error: "+err.Error())
		turn.ToolError = true
		return turn, nil
	}
	return conversation.NewToolTurn(call.ID, call.Name, call.Argument, result), nil
}

// logger returns the logger attached to ctx, falling back to the global one.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
