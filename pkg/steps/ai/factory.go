package ai

import (
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/engine/scripted"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/claude"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/openai"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type StandardEngineFactory struct {
	Settings *settings.StepSettings
	Retry    engine.RetryConfig
	Logger   *zerolog.Logger
}

// NewEngine builds the engine selected by the api type, falling back to
// guessing from the model name, and wraps it with retry and logging
// middleware. It also returns the engine's name for error reporting.
func (f *StandardEngineFactory) NewEngine() (engine.Engine, string, error) {
	if f.Settings == nil || f.Settings.Chat == nil {
		return nil, "", errors.New("no chat settings")
	}
	settings_ := f.Settings.Clone()

	apiType := types.ApiTypeOpenAI
	switch {
	case settings_.Chat.ApiType != nil && *settings_.Chat.ApiType != "":
		apiType = *settings_.Chat.ApiType
	case claude.IsClaudeEngine(settings_.Chat.EngineOrDefault()):
		apiType = types.ApiTypeClaude
	case openai.IsOpenAiEngine(settings_.Chat.EngineOrDefault()):
		apiType = types.ApiTypeOpenAI
	}

	var ret engine.Engine
	switch apiType {
	case types.ApiTypeOpenAI:
		e, err := openai.NewOpenAIEngine(settings_)
		if err != nil {
			return nil, "", err
		}
		ret = e

	case types.ApiTypeClaude:
		e, err := claude.NewClaudeEngine(settings_)
		if err != nil {
			return nil, "", err
		}
		ret = e

	case types.ApiTypeScripted:
		if settings_.ScriptPath == "" {
			return nil, "", errors.New("the scripted engine needs a script file (--script)")
		}
		e, err := scripted.LoadFile(settings_.ScriptPath)
		if err != nil {
			return nil, "", err
		}
		ret = e

	default:
		return nil, "", errors.Errorf("%s is not supported", apiType)
	}

	var mws []engine.Middleware
	if f.Logger != nil {
		mws = append(mws, engine.WithLogging(*f.Logger))
	}
	if f.Retry.MaxRetries > 0 {
		mws = append(mws, engine.WithRetry(f.Retry))
	}

	return engine.Chain(ret, mws...), string(apiType), nil
}

// NewEngineFromSettings builds an engine with default retry and logging.
func NewEngineFromSettings(s *settings.StepSettings) (engine.Engine, string, error) {
	f := &StandardEngineFactory{Settings: s, Retry: engine.DefaultRetryConfig()}
	return f.NewEngine()
}
