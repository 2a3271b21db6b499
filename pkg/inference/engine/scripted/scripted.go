// Package scripted provides a deterministic Engine that replays a fixed list
// of decisions. It backs the tests and the offline demo mode.
package scripted

import (
	"context"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Step is one scripted backend answer. Exactly one of Answer, Tool or Err is
// expected to be set.
type Step struct {
	Answer   string `yaml:"answer,omitempty"`
	Tool     string `yaml:"tool,omitempty"`
	Argument string `yaml:"argument,omitempty"`
	Error    string `yaml:"error,omitempty"`

	Err error `yaml:"-"`
}

func Answer(text string) Step {
	return Step{Answer: text}
}

func Call(tool, argument string) Step {
	return Step{Tool: tool, Argument: argument}
}

func Fail(err error) Step {
	return Step{Err: err}
}

var ErrScriptExhausted = errors.New("script exhausted")

// Engine replays its steps in order and records every request it receives.
type Engine struct {
	mu       sync.Mutex
	steps    []Step
	index    int
	repeat   bool
	requests []engine.Request
	calls    int
}

var _ engine.Engine = (*Engine)(nil)

type Option func(*Engine)

// WithRepeat restarts the script from the top once it runs out.
func WithRepeat() Option {
	return func(e *Engine) { e.repeat = true }
}

func New(steps []Step, opts ...Option) *Engine {
	cloned := make([]Step, len(steps))
	copy(cloned, steps)
	e := &Engine{steps: cloned}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type scriptFile struct {
	Repeat bool   `yaml:"repeat"`
	Steps  []Step `yaml:"steps"`
}

// Load reads a YAML script:
//
//	repeat: false
//	steps:
//	  - tool: Calculator
//	    argument: 12 * 7
//	  - answer: "84"
func Load(r io.Reader) (*Engine, error) {
	var f scriptFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "could not parse script")
	}
	if len(f.Steps) == 0 {
		return nil, errors.New("script has no steps")
	}
	var opts []Option
	if f.Repeat {
		opts = append(opts, WithRepeat())
	}
	return New(f.Steps, opts...), nil
}

func LoadFile(path string) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open script %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

func (e *Engine) Decide(ctx context.Context, req *engine.Request) (engine.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	e.requests = append(e.requests, cloneRequest(req))

	if e.index >= len(e.steps) {
		if !e.repeat || len(e.steps) == 0 {
			return nil, errors.Wrapf(ErrScriptExhausted, "step %d", e.index+1)
		}
		e.index = 0
	}
	step := e.steps[e.index]
	e.index++

	switch {
	case step.Err != nil:
		return nil, step.Err
	case step.Error != "":
		return nil, errors.New(step.Error)
	case step.Tool != "":
		return engine.ToolCall{
			ID:       callID(e.calls),
			Name:     step.Tool,
			Argument: step.Argument,
		}, nil
	default:
		return engine.FinalAnswer{Text: step.Answer}, nil
	}
}

// Requests returns copies of all requests seen so far.
func (e *Engine) Requests() []engine.Request {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]engine.Request, len(e.requests))
	copy(out, e.requests)
	return out
}

func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func cloneRequest(req *engine.Request) engine.Request {
	if req == nil {
		return engine.Request{}
	}
	out := *req
	out.History = append([]conversation.Turn(nil), req.History...)
	out.Pending = append([]conversation.Turn(nil), req.Pending...)
	out.Tools = append([]tools.Description(nil), req.Tools...)
	return out
}

func callID(n int) string {
	return "call-" + strconv.Itoa(n)
}
