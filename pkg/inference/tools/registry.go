package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registry is the catalog of tools available to one session. Names are unique
// and the catalog keeps registration order so every request sees the same
// listing.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]Definition
	config ToolConfig
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:  make(map[string]Definition),
		config: DefaultToolConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type RegistryOption func(*Registry)

func WithToolConfig(cfg ToolConfig) RegistryOption {
	return func(r *Registry) { r.config = cfg }
}

// Register adds a tool. Names must be unique within the registry.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if def.Func == nil {
		return errors.Errorf("tool %s has no function", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}
	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister is Register for startup wiring, where a conflict is a bug.
func (r *Registry) MustRegister(defs ...Definition) *Registry {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tools[name]
	if !ok {
		return Definition{}, &UnknownToolError{Name: name}
	}
	return def, nil
}

// Invoke runs the named tool. Failures of the tool itself, panics included,
// come back as *ToolExecutionError.
func (r *Registry) Invoke(ctx context.Context, name string, argument string) (result string, err error) {
	def, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	if !r.config.IsToolAllowed(name) {
		return "", &UnknownToolError{Name: name}
	}

	if r.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ExecutionTimeout)
		defer cancel()
	}

	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Str("tool", name).Interface("panic", rec).Msg("tool panicked")
			result = ""
			err = &ToolExecutionError{ToolName: name, Cause: fmt.Errorf("panic: %v", rec)}
		}
	}()

	logger.Debug().Str("tool", name).Str("argument", argument).Msg("invoking tool")
	out, err := def.Func(ctx, argument)
	if err != nil {
		return "", &ToolExecutionError{ToolName: name, Cause: err}
	}
	return out, nil
}

// Descriptions lists the catalog shown to the backend, in registration order.
func (r *Registry) Descriptions() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Description, 0, len(r.order))
	for _, name := range r.order {
		if !r.config.IsToolAllowed(name) {
			continue
		}
		out = append(out, r.tools[name].Describe())
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}
