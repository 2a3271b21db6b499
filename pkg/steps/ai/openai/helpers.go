package openai

import (
	"math"
	"strings"

	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

const DefaultBaseURL = "https://api.openai.com/v1"

func IsOpenAiEngine(engine string) bool {
	if strings.HasPrefix(engine, "gpt") {
		return true
	}
	if strings.HasPrefix(engine, "text-") {
		return true
	}

	return false
}

func isReasoningModel(engine string) bool {
	m := strings.ToLower(strings.TrimSpace(engine))
	return strings.HasPrefix(m, "o1") ||
		strings.HasPrefix(m, "o3") ||
		strings.HasPrefix(m, "o4") ||
		strings.HasPrefix(m, "gpt-5")
}

// requestTemperature maps a configured temperature onto the request field.
// The field is omitempty, so an explicit 0 is sent as the smallest positive
// float32, which the API treats as 0.
func requestTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// toolCallID returns the id linking a tool turn's call and result messages.
// Turns recorded without a provider id get a fresh one.
func toolCallID(turn conversation.Turn) string {
	if turn.ToolCallID != "" {
		return turn.ToolCallID
	}
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// turnMessages converts one transcript turn into chat messages. A tool turn
// becomes the assistant message requesting the call followed by the tool
// result.
func turnMessages(turn conversation.Turn) []go_openai.ChatCompletionMessage {
	switch turn.Role {
	case conversation.RoleUser:
		return []go_openai.ChatCompletionMessage{{Role: go_openai.ChatMessageRoleUser, Content: turn.Content}}
	case conversation.RoleAssistant:
		return []go_openai.ChatCompletionMessage{{Role: go_openai.ChatMessageRoleAssistant, Content: turn.Content}}
	case conversation.RoleTool:
		id := toolCallID(turn)
		return []go_openai.ChatCompletionMessage{
			{
				Role: go_openai.ChatMessageRoleAssistant,
				ToolCalls: []go_openai.ToolCall{{
					ID:   id,
					Type: go_openai.ToolTypeFunction,
					Function: go_openai.FunctionCall{
						Name:      turn.ToolName,
						Arguments: tools.EncodeArgument(turn.ToolArgument),
					},
				}},
			},
			{
				Role:       go_openai.ChatMessageRoleTool,
				Content:    turn.Content,
				ToolCallID: id,
			},
		}
	}
	log.Warn().Str("role", string(turn.Role)).Msg("OpenAI request: skipping turn with unsupported role")
	return nil
}

// MakeCompletionRequest builds the chat completion request for one reasoning
// step: system prompt, history, the user input and the pending tool turns.
func MakeCompletionRequest(
	s *settings.StepSettings,
	req *engine.Request,
) (*go_openai.ChatCompletionRequest, error) {
	if s == nil || s.Chat == nil {
		return nil, errors.New("no chat settings")
	}
	if req == nil {
		return nil, errors.New("no request")
	}
	chatSettings := s.Chat
	model := chatSettings.EngineOrDefault()

	var msgs []go_openai.ChatCompletionMessage
	if strings.TrimSpace(req.SystemPrompt) != "" {
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:    go_openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, turn := range req.Transcript() {
		msgs = append(msgs, turnMessages(turn)...)
	}

	ret := &go_openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if chatSettings.Temperature != nil && !isReasoningModel(model) {
		ret.Temperature = requestTemperature(*chatSettings.Temperature)
	}
	if chatSettings.TopP != nil && !isReasoningModel(model) {
		ret.TopP = float32(*chatSettings.TopP)
	}
	if chatSettings.MaxResponseTokens != nil {
		if isReasoningModel(model) {
			ret.MaxCompletionTokens = *chatSettings.MaxResponseTokens
		} else {
			ret.MaxTokens = *chatSettings.MaxResponseTokens
		}
	}
	if len(chatSettings.Stop) > 0 {
		ret.Stop = chatSettings.Stop
	}

	if len(req.Tools) > 0 {
		openaiTools := make([]go_openai.Tool, 0, len(req.Tools))
		for _, desc := range req.Tools {
			params, err := desc.SchemaMap()
			if err != nil {
				return nil, errors.Wrapf(err, "could not export schema of tool %s", desc.Name)
			}
			openaiTools = append(openaiTools, go_openai.Tool{
				Type: go_openai.ToolTypeFunction,
				Function: &go_openai.FunctionDefinition{
					Name:        desc.Name,
					Description: desc.Description,
					Parameters:  params,
				},
			})
		}
		ret.Tools = openaiTools
		ret.ToolChoice = "auto"
		ret.ParallelToolCalls = false
	}

	return ret, nil
}

// DecisionFromResponse reads the first choice of a completion. A tool call
// wins over text; when several calls come back only the first is used.
func DecisionFromResponse(req *engine.Request, resp *go_openai.ChatCompletionResponse) (engine.Decision, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("completion has no choices")
	}
	msg := resp.Choices[0].Message

	if len(msg.ToolCalls) > 0 {
		if len(msg.ToolCalls) > 1 {
			names := make([]string, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				names = append(names, tc.Function.Name)
			}
			log.Warn().Strs("tools", names).Msg("OpenAI returned several tool calls, using the first")
		}
		tc := msg.ToolCalls[0]
		if tc.Function.Name == "" {
			return nil, errors.New("tool call without a function name")
		}
		return engine.ToolCall{
			ID:       tc.ID,
			Name:     tc.Function.Name,
			Argument: req.DecodeArgument(tc.Function.Name, tc.Function.Arguments),
		}, nil
	}

	return engine.FinalAnswer{Text: strings.TrimSpace(msg.Content)}, nil
}

func MakeClient(s *settings.StepSettings) (*go_openai.Client, error) {
	apiKey := s.Chat.APIKey(types.ApiTypeOpenAI)
	if apiKey == "" {
		return nil, errors.Errorf("no API key for %s (set OPENAI_API_KEY)", types.ApiTypeOpenAI)
	}
	config := go_openai.DefaultConfig(apiKey)
	if baseURL := s.Chat.BaseURL(types.ApiTypeOpenAI); baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = s.Client.Client()
	return go_openai.NewClientWithConfig(config), nil
}
