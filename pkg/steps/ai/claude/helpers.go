package claude

import (
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultMaxTokens = 1024
)

func IsClaudeEngine(engine string) bool {
	return strings.HasPrefix(engine, "claude")
}

// modelFor maps the configured engine onto a Claude model. The global
// default is an OpenAI model name, which Claude would reject.
func modelFor(s *settings.ChatSettings) string {
	m := s.EngineOrDefault()
	if !IsClaudeEngine(m) {
		log.Warn().Str("engine", m).Str("model", DefaultModel).Msg("engine is not a Claude model, using default")
		return DefaultModel
	}
	return m
}

func toolUseID(turn conversation.Turn) string {
	if turn.ToolCallID != "" {
		return turn.ToolCallID
	}
	return "toolu_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// turnMessages converts a transcript turn into Messages API messages. A tool
// turn becomes an assistant tool_use block followed by a user tool_result
// block, which keeps user and assistant messages alternating.
func turnMessages(turn conversation.Turn) []anthropic.MessageParam {
	switch turn.Role {
	case conversation.RoleUser:
		return []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content))}
	case conversation.RoleAssistant:
		return []anthropic.MessageParam{anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content))}
	case conversation.RoleTool:
		id := toolUseID(turn)
		return []anthropic.MessageParam{
			anthropic.NewAssistantMessage(anthropic.NewToolUseBlock(
				id,
				tools.Input{Input: turn.ToolArgument},
				turn.ToolName,
			)),
			anthropic.NewUserMessage(anthropic.NewToolResultBlock(id, turn.Content, turn.ToolError)),
		}
	}
	log.Warn().Str("role", string(turn.Role)).Msg("Claude request: skipping turn with unsupported role")
	return nil
}

func makeTool(desc tools.Description) (anthropic.ToolUnionParam, error) {
	schema, err := desc.SchemaMap()
	if err != nil {
		return anthropic.ToolUnionParam{}, err
	}
	inputSchema := anthropic.ToolInputSchemaParam{Properties: schema["properties"]}
	if req, ok := schema["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				inputSchema.Required = append(inputSchema.Required, s)
			}
		}
	}
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        desc.Name,
			Description: anthropic.String(desc.Description),
			InputSchema: inputSchema,
		},
	}, nil
}

// MakeMessageRequest builds the Messages API request for one reasoning step.
func MakeMessageRequest(s *settings.StepSettings, req *engine.Request) (*anthropic.MessageNewParams, error) {
	if s == nil || s.Chat == nil {
		return nil, errors.New("no chat settings")
	}
	if req == nil {
		return nil, errors.New("no request")
	}
	chat := s.Chat

	maxTokens := int64(DefaultMaxTokens)
	if chat.MaxResponseTokens != nil && *chat.MaxResponseTokens > 0 {
		maxTokens = int64(*chat.MaxResponseTokens)
	}

	params := &anthropic.MessageNewParams{
		Model:     anthropic.Model(modelFor(chat)),
		MaxTokens: maxTokens,
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	for _, turn := range req.Transcript() {
		params.Messages = append(params.Messages, turnMessages(turn)...)
	}
	if chat.Temperature != nil {
		params.Temperature = anthropic.Float(*chat.Temperature)
	}
	if chat.TopP != nil {
		params.TopP = anthropic.Float(*chat.TopP)
	}
	if len(chat.Stop) > 0 {
		params.StopSequences = chat.Stop
	}

	if len(req.Tools) > 0 {
		for _, desc := range req.Tools {
			tool, err := makeTool(desc)
			if err != nil {
				return nil, errors.Wrapf(err, "could not export schema of tool %s", desc.Name)
			}
			params.Tools = append(params.Tools, tool)
		}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfAuto: &anthropic.ToolChoiceAutoParam{DisableParallelToolUse: anthropic.Bool(true)},
		}
	}

	return params, nil
}

// DecisionFromMessage turns a Messages API response into a decision. The
// first tool_use block wins; otherwise the text blocks form the answer.
func DecisionFromMessage(req *engine.Request, msg *anthropic.Message) (engine.Decision, error) {
	if msg == nil {
		return nil, errors.New("no message")
	}

	var text strings.Builder
	var calls []anthropic.ToolUseBlock
	for _, cb := range msg.Content {
		switch b := cb.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			calls = append(calls, b)
		}
	}

	if len(calls) > 0 {
		if len(calls) > 1 {
			log.Warn().Int("tool_calls", len(calls)).Msg("Claude returned several tool calls, using the first")
		}
		call := calls[0]
		return engine.ToolCall{
			ID:       call.ID,
			Name:     call.Name,
			Argument: req.DecodeArgument(call.Name, string(call.Input)),
		}, nil
	}

	return engine.FinalAnswer{Text: strings.TrimSpace(text.String())}, nil
}
