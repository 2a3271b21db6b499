package settings

import (
	"github.com/go-go-golems/toolchat/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
)

const (
	DefaultEngine      = "gpt-3.5-turbo"
	DefaultTemperature = 0.0
)

type ChatSettings struct {
	Engine            *string           `yaml:"engine,omitempty"`
	ApiType           *types.ApiType    `yaml:"api_type,omitempty"`
	MaxResponseTokens *int              `yaml:"max_response_tokens,omitempty"`
	TopP              *float64          `yaml:"top_p,omitempty"`
	Temperature       *float64          `yaml:"temperature,omitempty"`
	Stop              []string          `yaml:"stop,omitempty"`
	APIKeys           map[string]string `yaml:"api_keys,omitempty"`
	// BaseURLs overrides provider endpoints, keyed like APIKeys ("openai-base-url").
	BaseURLs map[string]string `yaml:"base_urls,omitempty"`
}

func NewChatSettings() *ChatSettings {
	engine := DefaultEngine
	apiType := types.ApiTypeOpenAI
	temperature := DefaultTemperature
	return &ChatSettings{
		Engine:      &engine,
		ApiType:     &apiType,
		Temperature: &temperature,
		Stop:        []string{},
		APIKeys:     map[string]string{},
		BaseURLs:    map[string]string{},
	}
}

func (s *ChatSettings) Clone() *ChatSettings {
	return clone.Clone(s).(*ChatSettings)
}

// APIKey returns the configured key for the given provider, or "".
func (s *ChatSettings) APIKey(t types.ApiType) string {
	if s == nil || s.APIKeys == nil {
		return ""
	}
	return s.APIKeys[t.KeyName()]
}

func (s *ChatSettings) BaseURL(t types.ApiType) string {
	if s == nil || s.BaseURLs == nil {
		return ""
	}
	return s.BaseURLs[string(t)+"-base-url"]
}

func (s *ChatSettings) EngineOrDefault() string {
	if s == nil || s.Engine == nil || *s.Engine == "" {
		return DefaultEngine
	}
	return *s.Engine
}

func (s *ChatSettings) ApiTypeOrDefault() types.ApiType {
	if s == nil || s.ApiType == nil || *s.ApiType == "" {
		return types.ApiTypeOpenAI
	}
	return *s.ApiType
}
