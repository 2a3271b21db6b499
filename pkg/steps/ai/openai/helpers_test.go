package openai

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/engine"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/go-go-golems/toolchat/pkg/steps/ai/settings"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculatorDescription() tools.Description {
	return tools.NewDefinition("Calculator", "math", "expression", func(ctx context.Context, arg string) (string, error) {
		return arg, nil
	}).Describe()
}

func testRequest() *engine.Request {
	return &engine.Request{
		SystemPrompt: "be brief",
		History: []conversation.Turn{
			conversation.NewUserTurn("hi"),
			conversation.NewAssistantTurn("hello"),
		},
		Input:   "What is 12 * 7?",
		Pending: []conversation.Turn{conversation.NewToolTurn("call_1", "Calculator", "12 * 7", "84")},
		Tools:   []tools.Description{calculatorDescription()},
	}
}

func TestMakeCompletionRequest_MessageOrder(t *testing.T) {
	ss := settings.NewStepSettings()
	creq, err := MakeCompletionRequest(ss, testRequest())
	require.NoError(t, err)

	assert.Equal(t, "gpt-3.5-turbo", creq.Model)
	require.Len(t, creq.Messages, 6)
	assert.Equal(t, go_openai.ChatMessageRoleSystem, creq.Messages[0].Role)
	assert.Equal(t, "hi", creq.Messages[1].Content)
	assert.Equal(t, "hello", creq.Messages[2].Content)
	assert.Equal(t, "What is 12 * 7?", creq.Messages[3].Content)

	call := creq.Messages[4]
	assert.Equal(t, go_openai.ChatMessageRoleAssistant, call.Role)
	require.Len(t, call.ToolCalls, 1)
	assert.Equal(t, "call_1", call.ToolCalls[0].ID)
	assert.Equal(t, "Calculator", call.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"input":"12 * 7"}`, call.ToolCalls[0].Function.Arguments)

	result := creq.Messages[5]
	assert.Equal(t, go_openai.ChatMessageRoleTool, result.Role)
	assert.Equal(t, "call_1", result.ToolCallID)
	assert.Equal(t, "84", result.Content)
}

func TestMakeCompletionRequest_Tools(t *testing.T) {
	creq, err := MakeCompletionRequest(settings.NewStepSettings(), testRequest())
	require.NoError(t, err)

	require.Len(t, creq.Tools, 1)
	assert.Equal(t, "Calculator", creq.Tools[0].Function.Name)
	params, ok := creq.Tools[0].Function.Parameters.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, "auto", creq.ToolChoice)
	assert.Equal(t, false, creq.ParallelToolCalls)
}

func TestMakeCompletionRequest_GeneratesMissingToolCallID(t *testing.T) {
	req := &engine.Request{
		Input:   "q",
		Pending: []conversation.Turn{conversation.NewToolTurn("", "Search", "weather", "sunny")},
	}
	creq, err := MakeCompletionRequest(settings.NewStepSettings(), req)
	require.NoError(t, err)
	require.Len(t, creq.Messages, 3)
	id := creq.Messages[1].ToolCalls[0].ID
	assert.NotEmpty(t, id)
	assert.Equal(t, id, creq.Messages[2].ToolCallID)
	assert.Empty(t, creq.Tools)
}

func TestDecisionFromResponse(t *testing.T) {
	req := testRequest()

	d, err := DecisionFromResponse(req, &go_openai.ChatCompletionResponse{
		Choices: []go_openai.ChatCompletionChoice{{Message: go_openai.ChatCompletionMessage{Content: " 84 \n"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.FinalAnswer{Text: "84"}, d)

	d, err = DecisionFromResponse(req, &go_openai.ChatCompletionResponse{
		Choices: []go_openai.ChatCompletionChoice{{Message: go_openai.ChatCompletionMessage{
			ToolCalls: []go_openai.ToolCall{
				{ID: "c1", Function: go_openai.FunctionCall{Name: "Calculator", Arguments: `{"input":"12 * 7"}`}},
				{ID: "c2", Function: go_openai.FunctionCall{Name: "Calculator", Arguments: `{"input":"1 + 1"}`}},
			},
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.ToolCall{ID: "c1", Name: "Calculator", Argument: "12 * 7"}, d)

	_, err = DecisionFromResponse(req, &go_openai.ChatCompletionResponse{})
	require.Error(t, err)
}

func newTestEngine(t *testing.T, handler http.HandlerFunc) *OpenAIEngine {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ss := settings.NewStepSettings()
	ss.Chat.APIKeys["openai-api-key"] = "sk-test"
	ss.Chat.BaseURLs["openai-base-url"] = srv.URL + "/v1"
	e, err := NewOpenAIEngine(ss)
	require.NoError(t, err)
	return e
}

func TestOpenAIEngine_Decide(t *testing.T) {
	var got go_openai.ChatCompletionRequest
	var raw map[string]any
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		require.NoError(t, json.Unmarshal(body, &raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"tool_calls": [{"id": "call_9", "type": "function",
						"function": {"name": "Calculator", "arguments": "{\"input\":\"2 ^ 10\"}"}}]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	})

	d, err := e.Decide(context.Background(), &engine.Request{
		Input: "What is 2 to the 10th?",
		Tools: []tools.Description{calculatorDescription()},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.ToolCall{ID: "call_9", Name: "Calculator", Argument: "2 ^ 10"}, d)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	require.Len(t, got.Tools, 1)

	// the default temperature of 0 must reach the API instead of being omitted
	require.Contains(t, raw, "temperature")
	assert.InDelta(t, 0, raw["temperature"], 1e-9)
}

func TestRequestTemperature(t *testing.T) {
	assert.Equal(t, float32(math.SmallestNonzeroFloat32), requestTemperature(0))
	assert.Equal(t, float32(0.7), requestTemperature(0.7))

	ss := settings.NewStepSettings()
	creq, err := MakeCompletionRequest(ss, &engine.Request{Input: "hi"})
	require.NoError(t, err)
	body, err := json.Marshal(creq)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"temperature":`)
}

func TestOpenAIEngine_DecideBackendError(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	})

	_, err := e.Decide(context.Background(), &engine.Request{Input: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrBackendUnavailable)
}

func TestNewOpenAIEngine_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEngine(settings.NewStepSettings())
	require.Error(t, err)
}
