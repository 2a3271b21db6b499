package claude

import (
	"context"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const EngineName = "claude"

// ClaudeEngine decides the next step through the Anthropic Messages API.
type ClaudeEngine struct {
	settings *settings.StepSettings
	client   anthropic.Client
}

var _ engine.Engine = (*ClaudeEngine)(nil)

// NewClaudeEngine builds the client from the claude API key and optional base
// URL. Retries are left to the engine retry middleware.
func NewClaudeEngine(s *settings.StepSettings) (*ClaudeEngine, error) {
	apiKey := s.Chat.APIKey(types.ApiTypeClaude)
	if apiKey == "" {
		return nil, errors.Errorf("no API key for %s (set ANTHROPIC_API_KEY)", types.ApiTypeClaude)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(s.Client.Client()),
	}
	if baseURL := s.Chat.BaseURL(types.ApiTypeClaude); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &ClaudeEngine{
		settings: s,
		client:   anthropic.NewClient(opts...),
	}, nil
}

func (e *ClaudeEngine) Decide(ctx context.Context, req *engine.Request) (engine.Decision, error) {
	params, err := MakeMessageRequest(e.settings, req)
	if err != nil {
		return nil, engine.Unavailable(EngineName, err)
	}

	log.Debug().
		Str("model", string(params.Model)).
		Int("messages", len(params.Messages)).
		Int("tools", len(params.Tools)).
		Msg("Claude Decide started")

	start := time.Now()
	msg, err := e.client.Messages.New(ctx, *params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Msg("Claude request failed")
		return nil, engine.Unavailable(EngineName, err)
	}

	decision, err := DecisionFromMessage(req, msg)
	if err != nil {
		return nil, engine.Unavailable(EngineName, err)
	}

	log.Debug().
		Dur("elapsed", time.Since(start)).
		Int64("input_tokens", msg.Usage.InputTokens).
		Int64("output_tokens", msg.Usage.OutputTokens).
		Str("stop_reason", string(msg.StopReason)).
		Msg("Claude Decide completed")

	return decision, nil
}
