package openai

import (
	"context"
	"time"

	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

const EngineName = "openai"

// OpenAIEngine decides the next step through the Chat Completions API.
type OpenAIEngine struct {
	settings *settings.StepSettings
	client   *go_openai.Client
}

var _ engine.Engine = (*OpenAIEngine)(nil)

func NewOpenAIEngine(s *settings.StepSettings) (*OpenAIEngine, error) {
	client, err := MakeClient(s)
	if err != nil {
		return nil, err
	}
	return &OpenAIEngine{settings: s, client: client}, nil
}

func (e *OpenAIEngine) Decide(ctx context.Context, req *engine.Request) (engine.Decision, error) {
	creq, err := MakeCompletionRequest(e.settings, req)
	if err != nil {
		return nil, engine.Unavailable(EngineName, err)
	}

	log.Debug().
		Str("model", creq.Model).
		Int("messages", len(creq.Messages)).
		Int("tools", len(creq.Tools)).
		Msg("OpenAI Decide started")

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, *creq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Msg("OpenAI request failed")
		return nil, engine.Unavailable(EngineName, err)
	}

	decision, err := DecisionFromResponse(req, &resp)
	if err != nil {
		return nil, engine.Unavailable(EngineName, err)
	}

	ev := log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens)
	if len(resp.Choices) > 0 {
		ev = ev.Str("finish_reason", string(resp.Choices[0].FinishReason))
	}
	ev.Msg("OpenAI Decide completed")

	return decision, nil
}
