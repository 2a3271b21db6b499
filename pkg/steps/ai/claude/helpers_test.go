package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchDescription() tools.Description {
	return tools.NewDefinition("Search", "current events", "query", func(ctx context.Context, arg string) (string, error) {
		return arg, nil
	}).Describe()
}

func claudeSettings() *settings.StepSettings {
	ss := settings.NewStepSettings()
	model := "claude-3-5-sonnet-latest"
	apiType := types.ApiTypeClaude
	ss.Chat.Engine = &model
	ss.Chat.ApiType = &apiType
	ss.Chat.APIKeys["claude-api-key"] = "ak-test"
	return ss
}

func TestMakeMessageRequest(t *testing.T) {
	req := &engine.Request{
		SystemPrompt: "be brief",
		History: []conversation.Turn{
			conversation.NewUserTurn("hi"),
			conversation.NewAssistantTurn("hello"),
		},
		Input:   "Weather in Paris?",
		Pending: []conversation.Turn{conversation.NewToolTurn("toolu_1", "Search", "Paris weather", "sunny")},
		Tools:   []tools.Description{searchDescription()},
	}

	params, err := MakeMessageRequest(claudeSettings(), req)
	require.NoError(t, err)

	assert.Equal(t, anthropic.Model("claude-3-5-sonnet-latest"), params.Model)
	assert.Equal(t, int64(DefaultMaxTokens), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "be brief", params.System[0].Text)

	require.Len(t, params.Messages, 5)
	roles := []anthropic.MessageParamRole{}
	for _, m := range params.Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
	}, roles)

	use := params.Messages[3].Content[0].OfToolUse
	require.NotNil(t, use)
	assert.Equal(t, "toolu_1", use.ID)
	assert.Equal(t, "Search", use.Name)

	result := params.Messages[4].Content[0].OfToolResult
	require.NotNil(t, result)
	assert.Equal(t, "toolu_1", result.ToolUseID)

	require.Len(t, params.Tools, 1)
	require.NotNil(t, params.Tools[0].OfTool)
	assert.Equal(t, "Search", params.Tools[0].OfTool.Name)
	assert.Equal(t, []string{"input"}, params.Tools[0].OfTool.InputSchema.Required)
}

func TestMakeMessageRequest_ToolErrorFlag(t *testing.T) {
	failed := conversation.NewToolTurn("toolu_1", "Search", "q", "Error: search backend unavailable")
	failed.ToolError = true
	req := &engine.Request{
		Input: "q?",
		Pending: []conversation.Turn{
			failed,
			conversation.NewToolTurn("toolu_2", "Search", "errors in go", "Error: handling in Go uses explicit returns"),
		},
	}

	params, err := MakeMessageRequest(claudeSettings(), req)
	require.NoError(t, err)
	require.Len(t, params.Messages, 5)

	isError := func(m anthropic.MessageParam) interface{} {
		result := m.Content[0].OfToolResult
		require.NotNil(t, result)
		b, err := json.Marshal(result)
		require.NoError(t, err)
		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &raw))
		return raw["is_error"]
	}
	assert.Equal(t, true, isError(params.Messages[2]))
	assert.NotEqual(t, true, isError(params.Messages[4]), "a result that merely starts with Error: is not a failure")
}

func TestMakeMessageRequest_NonClaudeModelFallsBack(t *testing.T) {
	ss := claudeSettings()
	gpt := "gpt-3.5-turbo"
	ss.Chat.Engine = &gpt

	params, err := MakeMessageRequest(ss, &engine.Request{Input: "hi"})
	require.NoError(t, err)
	assert.Equal(t, anthropic.Model(DefaultModel), params.Model)
	assert.Empty(t, params.Tools)
}

func newTestEngine(t *testing.T, handler http.HandlerFunc) *ClaudeEngine {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ss := claudeSettings()
	ss.Chat.BaseURLs["claude-base-url"] = srv.URL
	e, err := NewClaudeEngine(ss)
	require.NoError(t, err)
	return e
}

func TestClaudeEngine_DecideToolUse(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-sonnet-latest", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-latest",
			"content": [
				{"type": "text", "text": "Let me look that up."},
				{"type": "tool_use", "id": "toolu_9", "name": "Search", "input": {"input": "Paris weather"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 12, "output_tokens": 7}
		}`))
	})

	d, err := e.Decide(context.Background(), &engine.Request{
		Input: "Weather in Paris?",
		Tools: []tools.Description{searchDescription()},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.ToolCall{ID: "toolu_9", Name: "Search", Argument: "Paris weather"}, d)
}

func TestClaudeEngine_DecideText(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-latest",
			"content": [{"type": "text", "text": "It is sunny."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 4}
		}`))
	})

	d, err := e.Decide(context.Background(), &engine.Request{Input: "Weather in Paris?"})
	require.NoError(t, err)
	assert.Equal(t, engine.FinalAnswer{Text: "It is sunny."}, d)
}

func TestClaudeEngine_DecideBackendError(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "api_error", "message": "boom"}}`))
	})

	_, err := e.Decide(context.Background(), &engine.Request{Input: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrBackendUnavailable)
}

func TestNewClaudeEngine_RequiresKey(t *testing.T) {
	ss := claudeSettings()
	delete(ss.Chat.APIKeys, "claude-api-key")
	_, err := NewClaudeEngine(ss)
	require.Error(t, err)
}
