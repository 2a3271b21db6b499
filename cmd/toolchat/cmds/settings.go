package cmds

import (
	"time"

	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/toolloop"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	ai "github.com/go-go-golems/toolchat/pkg/steps/ai"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	"github.com/go-go-golems/toolchat/pkg/toolbox/calculator"
	"github.com/go-go-golems/toolchat/pkg/toolbox/search"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keySystem        = "system"
	keyMaxIterations = "max-iterations"
	keyRetries       = "retries"
	keySearchBackend = "search-backend"
	keySearchResults = "search-results"
	keySearchURL     = "search-base-url"
	keySearchTTL     = "search-cache-ttl"
	keyMarkdown      = "markdown"
	keyToolTimeout   = "tool-timeout"
	keyShowTools     = "show-tools"

	backendAuto = "auto"
)

// AddSettingsFlags registers every flag that ends up in viper and from there
// in the engine, loop and tool configuration.
func AddSettingsFlags(fs *pflag.FlagSet) {
	fs.String(keySystem, "", "A brief system prompt for the chatbot")
	fs.String(settings.KeyModel, settings.DefaultEngine, "Model to use")
	fs.Float64(settings.KeyTemperature, settings.DefaultTemperature, "Model temperature")
	fs.String(settings.KeyApiType, "openai", "Backend API (openai, claude, scripted)")
	fs.Int(settings.KeyMaxResponseTokens, 0, "Maximum tokens per response (0 uses the provider default)")
	fs.Duration(settings.KeyTimeout, settings.DefaultTimeout, "Timeout for a single backend request")
	fs.String(settings.KeyScript, "", "YAML script replayed by the scripted backend")
	fs.StringSlice(settings.KeyStop, nil, "Stop sequences passed to the model")
	fs.String(settings.KeyUserAgent, settings.DefaultUserAgent, "User-Agent sent to the backend API")
	fs.String(settings.KeySettingsFile, "", "YAML file with chat and client settings, overridden by flags")
	fs.String("openai-api-key", "", "OpenAI API key")
	fs.String("openai-base-url", "", "OpenAI compatible base URL")
	fs.String("claude-api-key", "", "Anthropic API key")
	fs.String("claude-base-url", "", "Anthropic base URL")

	fs.Int(keyMaxIterations, toolloop.DefaultLoopConfig().MaxIterations, "Maximum tool calls per question")
	fs.Uint64(keyRetries, 0, "Retries of a failed backend request")
	fs.Duration(keyToolTimeout, tools.DefaultToolConfig().ExecutionTimeout, "Timeout for a single tool call")

	fs.String(keySearchBackend, backendAuto, "Search backend (auto, serper, kagi, duckduckgo)")
	fs.Int(keySearchResults, search.DefaultMaxResults, "Number of search results handed to the model")
	fs.String(keySearchURL, "", "Override the search backend endpoint")
	fs.Duration(keySearchTTL, search.DefaultCacheTTL, "How long search results are cached (0 keeps them)")
	fs.String("serper-api-key", "", "serper.dev API key")
	fs.String("kagi-api-key", "", "Kagi API key")

	fs.Bool(keyMarkdown, false, "Render answers as markdown")
	fs.Bool(keyShowTools, true, "Print each tool call while a question is answered")
}

// resolveSearchBackend picks the first backend with a key when set to auto.
func resolveSearchBackend(v *viper.Viper) string {
	backend := v.GetString(keySearchBackend)
	if backend != "" && backend != backendAuto {
		return backend
	}
	switch {
	case v.GetString("serper-api-key") != "":
		return search.BackendSerper
	case v.GetString("kagi-api-key") != "":
		return search.BackendKagi
	}
	return search.BackendDuckDuckGo
}

func newSearcher(v *viper.Viper) (search.Searcher, error) {
	backend := resolveSearchBackend(v)
	cfg := search.Config{
		Backend:    backend,
		BaseURL:    v.GetString(keySearchURL),
		MaxResults: v.GetInt(keySearchResults),
		CacheTTL:   v.GetDuration(keySearchTTL),
	}
	switch backend {
	case search.BackendSerper:
		cfg.APIKey = v.GetString("serper-api-key")
	case search.BackendKagi:
		cfg.APIKey = v.GetString("kagi-api-key")
	}
	log.Debug().Str("backend", backend).Msg("search backend selected")
	return search.New(cfg)
}

// newRegistry builds a fresh per-session registry with the Search and
// Calculator tools.
func newRegistry(v *viper.Viper) (*tools.Registry, error) {
	searcher, err := newSearcher(v)
	if err != nil {
		return nil, err
	}
	cfg := tools.DefaultToolConfig()
	if d := v.GetDuration(keyToolTimeout); d > 0 {
		cfg = cfg.WithExecutionTimeout(d)
	}
	reg := tools.NewRegistry(tools.WithToolConfig(cfg))
	for _, def := range []tools.Definition{search.Tool(searcher), calculator.Tool()} {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func newEngine(v *viper.Viper) (engine.Engine, string, error) {
	ss, err := settings.NewStepSettingsFromViper(v)
	if err != nil {
		return nil, "", err
	}
	logger := log.Logger
	logger.Debug().Fields(ss.GetMetadata()).Msg("engine settings")
	factory := &ai.StandardEngineFactory{
		Settings: ss,
		Retry: engine.RetryConfig{
			MaxRetries: v.GetUint64(keyRetries),
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   8 * time.Second,
		},
		Logger: &logger,
	}
	return factory.NewEngine()
}

func loopConfig(v *viper.Viper) (toolloop.LoopConfig, error) {
	cfg := toolloop.DefaultLoopConfig().WithSystemPrompt(v.GetString(keySystem))
	if v.IsSet(keyMaxIterations) {
		n := v.GetInt(keyMaxIterations)
		if n < 1 {
			return cfg, errors.Errorf("--%s must be at least 1", keyMaxIterations)
		}
		cfg = cfg.WithMaxIterations(n)
	}
	return cfg, nil
}
