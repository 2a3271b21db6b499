package settings

import (
	"io"
	"os"

	"github.com/go-go-golems/toolchat/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type factoryConfigFileWrapper struct {
	Factories *StepSettings
}

type StepSettings struct {
	Chat   *ChatSettings   `yaml:"chat,omitempty"`
	Client *ClientSettings `yaml:"client,omitempty"`
	// ScriptPath is the YAML script replayed by the scripted engine.
	ScriptPath string `yaml:"script,omitempty"`
}

func NewStepSettings() *StepSettings {
	return &StepSettings{
		Chat:   NewChatSettings(),
		Client: NewClientSettings(),
	}
}

func NewStepSettingsFromYAML(s io.Reader) (*StepSettings, error) {
	settings_ := factoryConfigFileWrapper{
		Factories: NewStepSettings(),
	}
	if err := yaml.NewDecoder(s).Decode(&settings_); err != nil {
		return nil, err
	}

	ss := settings_.Factories
	if ss.Chat == nil {
		ss.Chat = NewChatSettings()
	}
	if ss.Chat.APIKeys == nil {
		ss.Chat.APIKeys = map[string]string{}
	}
	if ss.Chat.BaseURLs == nil {
		ss.Chat.BaseURLs = map[string]string{}
	}
	if ss.Client == nil {
		ss.Client = NewClientSettings()
	}
	return ss, nil
}

func (ss *StepSettings) Clone() *StepSettings {
	return &StepSettings{
		Chat:       ss.Chat.Clone(),
		Client:     ss.Client.Clone(),
		ScriptPath: ss.ScriptPath,
	}
}

// Viper keys read by NewStepSettingsFromViper.
const (
	KeyApiType           = "api-type"
	KeyModel             = "model"
	KeyTemperature       = "temperature"
	KeyTopP              = "top-p"
	KeyMaxResponseTokens = "max-response-tokens"
	KeyTimeout           = "timeout"
	KeyScript            = "script"
	KeyStop              = "stop"
	KeyUserAgent         = "user-agent"
	KeySettingsFile      = "settings-file"
)

// NewStepSettingsFromViper starts from the defaults, or from the YAML file
// named by settings-file, and overrides every value that is set in v, whether
// it came from a flag, the environment or a config file.
func NewStepSettingsFromViper(v *viper.Viper) (*StepSettings, error) {
	ss := NewStepSettings()
	if path := v.GetString(KeySettingsFile); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open settings file")
		}
		defer f.Close()
		ss, err = NewStepSettingsFromYAML(f)
		if err != nil {
			return nil, errors.Wrapf(err, "parse settings file %s", path)
		}
	}

	if v.IsSet(KeyApiType) {
		t, err := types.ParseApiType(v.GetString(KeyApiType))
		if err != nil {
			return nil, err
		}
		ss.Chat.ApiType = &t
	}
	if v.IsSet(KeyModel) {
		if m := v.GetString(KeyModel); m != "" {
			ss.Chat.Engine = &m
		}
	}
	if v.IsSet(KeyTemperature) {
		temp := v.GetFloat64(KeyTemperature)
		if temp < 0 || temp > 2 {
			return nil, errors.Errorf("temperature %v out of range [0, 2]", temp)
		}
		ss.Chat.Temperature = &temp
	}
	if v.IsSet(KeyTopP) {
		topP := v.GetFloat64(KeyTopP)
		ss.Chat.TopP = &topP
	}
	if v.IsSet(KeyMaxResponseTokens) {
		n := v.GetInt(KeyMaxResponseTokens)
		if n > 0 {
			ss.Chat.MaxResponseTokens = &n
		}
	}
	if v.IsSet(KeyTimeout) {
		d := v.GetDuration(KeyTimeout)
		if d <= 0 {
			return nil, errors.Errorf("timeout must be positive, got %s", d)
		}
		ss.Client.Timeout = &d
	}
	if v.IsSet(KeyUserAgent) {
		if ua := v.GetString(KeyUserAgent); ua != "" {
			ss.Client.UserAgent = &ua
		}
	}
	if v.IsSet(KeyStop) {
		if stop := v.GetStringSlice(KeyStop); len(stop) > 0 {
			ss.Chat.Stop = stop
		}
	}
	if script := v.GetString(KeyScript); script != "" {
		ss.ScriptPath = script
	}

	for _, t := range types.ApiTypes() {
		if key := t.KeyName(); key != "" {
			if val := v.GetString(key); val != "" {
				ss.Chat.APIKeys[key] = val
			}
		}
		baseKey := string(t) + "-base-url"
		if val := v.GetString(baseKey); val != "" {
			ss.Chat.BaseURLs[baseKey] = val
		}
	}

	return ss, nil
}

func (ss *StepSettings) GetMetadata() map[string]interface{} {
	metadata := make(map[string]interface{})

	if ss.Chat != nil {
		metadata["ai-api-type"] = string(ss.Chat.ApiTypeOrDefault())
		metadata["ai-engine"] = ss.Chat.EngineOrDefault()
		if ss.Chat.MaxResponseTokens != nil {
			metadata["ai-max-response-tokens"] = *ss.Chat.MaxResponseTokens
		}
		if ss.Chat.TopP != nil && *ss.Chat.TopP != 1 {
			metadata["ai-top-p"] = *ss.Chat.TopP
		}
		if ss.Chat.Temperature != nil {
			metadata["ai-temperature"] = *ss.Chat.Temperature
		}
		if len(ss.Chat.Stop) > 0 {
			metadata["ai-stop"] = ss.Chat.Stop
		}
		for k, v := range ss.Chat.BaseURLs {
			metadata[k] = v
		}
	}

	if ss.Client != nil {
		if ss.Client.Timeout != nil {
			metadata["timeout"] = ss.Client.Timeout.String()
		}
		if ss.Client.UserAgent != nil {
			metadata["user-agent"] = *ss.Client.UserAgent
		}
	}
	if ss.ScriptPath != "" {
		metadata["script"] = ss.ScriptPath
	}

	return metadata
}
