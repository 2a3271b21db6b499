package engine

import (
	"context"
)

// Engine is the reasoning backend. Given the conversation so far and the tool
// catalog, it decides whether to answer or to call a tool. Callers never
// second-guess the decision.
type Engine interface {
	Decide(ctx context.Context, req *Request) (Decision, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, req *Request) (Decision, error)

func (f EngineFunc) Decide(ctx context.Context, req *Request) (Decision, error) {
	return f(ctx, req)
}

// Middleware decorates an engine.
type Middleware func(Engine) Engine

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(eng Engine, mws ...Middleware) Engine {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			eng = mws[i](eng)
		}
	}
	return eng
}
