package types

import "fmt"

type ApiType string

const (
	ApiTypeOpenAI ApiType = "openai"
	ApiTypeClaude ApiType = "claude"
	// ApiTypeScripted replays a YAML script instead of calling a provider.
	ApiTypeScripted ApiType = "scripted"
)

func ApiTypes() []ApiType {
	return []ApiType{ApiTypeOpenAI, ApiTypeClaude, ApiTypeScripted}
}

func ParseApiType(s string) (ApiType, error) {
	for _, t := range ApiTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown api type %q (expected one of %v)", s, ApiTypes())
}

// KeyName returns the environment / config key holding the API key for t.
func (t ApiType) KeyName() string {
	switch t {
	case ApiTypeOpenAI:
		return "openai-api-key"
	case ApiTypeClaude:
		return "claude-api-key"
	}
	return ""
}
