package session

import (
	"context"
	"errors"
	"sync"

	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/toolloop"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNil           = errors.New("session is nil")
	ErrSessionEngineNil     = errors.New("session engine is nil")
	ErrSessionAlreadyActive = errors.New("session already has an active turn")
	ErrSessionNoActive      = errors.New("session has no active turn")
)

// Session is one conversation with the agent.
//
// It owns:
// - a stable SessionID
// - its own Memory and tool Registry
// - the invariant that only one utterance is processed at a time
type Session struct {
	SessionID string
	Memory    *conversation.Memory
	Registry  *tools.Registry

	loop *toolloop.Loop

	mu     sync.Mutex
	cancel context.CancelFunc
}

type Options struct {
	Engine     engine.Engine
	EngineName string
	// Registry defaults to an empty registry. It must not be shared with
	// another session.
	Registry   *tools.Registry
	LoopConfig toolloop.LoopConfig
	Hook       toolloop.Hook
}

// New constructs a Session with a generated SessionID and empty memory.
func New(opts Options) (*Session, error) {
	if opts.Engine == nil {
		return nil, ErrSessionEngineNil
	}
	reg := opts.Registry
	if reg == nil {
		reg = tools.NewRegistry()
	}
	cfg := opts.LoopConfig
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = toolloop.DefaultLoopConfig().MaxIterations
	}

	return &Session{
		SessionID: uuid.NewString(),
		Memory:    conversation.NewMemory(),
		Registry:  reg,
		loop: toolloop.New(
			toolloop.WithEngine(opts.Engine),
			toolloop.WithEngineName(opts.EngineName),
			toolloop.WithRegistry(reg),
			toolloop.WithLoopConfig(cfg),
			toolloop.WithLoopHook(opts.Hook),
		),
	}, nil
}

// IsRunning reports whether an utterance is being processed.
func (s *Session) IsRunning() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Submit processes one utterance and blocks until the final answer, or until
// the turn fails. A failed or cancelled turn leaves Memory unchanged.
func (s *Session) Submit(ctx context.Context, utterance string) (string, error) {
	if s == nil {
		return "", ErrSessionNil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return "", ErrSessionAlreadyActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	inferenceID := uuid.NewString()
	logger := log.With().Str("session_id", s.SessionID).Str("inference_id", inferenceID).Logger()
	// the loop, the registry and the tools log through zerolog.Ctx
	runCtx = logger.WithContext(runCtx)

	logger.Debug().Int("history", s.Memory.Len()).Msg("processing utterance")
	answer, err := s.loop.RunLoop(runCtx, s.Memory, utterance)
	if err != nil {
		logger.Debug().Err(err).Msg("turn failed")
		return "", err
	}
	logger.Debug().Int("history", s.Memory.Len()).Msg("turn completed")
	return answer, nil
}

// CancelActive abandons the utterance currently being processed, if any.
func (s *Session) CancelActive() error {
	if s == nil {
		return ErrSessionNil
	}
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return ErrSessionNoActive
	}
	cancel()
	return nil
}

// History returns a snapshot of the session's memory.
func (s *Session) History() []conversation.Turn {
	if s == nil {
		return nil
	}
	return s.Memory.Snapshot()
}

func (s *Session) LoopConfig() toolloop.LoopConfig {
	return s.loop.Config()
}
