package engine

import (
	"github.com/go-go-golems/toolchat/pkg/conversation"
	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/rs/zerolog/log"
)

// Request is built fresh for every reasoning step.
//
// History is the committed memory, Input the utterance being processed and
// Pending the tool turns produced so far while processing it, oldest first.
type Request struct {
	SystemPrompt string
	History      []conversation.Turn
	Input        string
	Pending      []conversation.Turn
	Tools        []tools.Description
}

// Transcript returns every turn the backend should see, in order: history,
// the current user utterance, then the pending tool turns.
func (r *Request) Transcript() []conversation.Turn {
	out := make([]conversation.Turn, 0, len(r.History)+1+len(r.Pending))
	out = append(out, r.History...)
	if r.Input != "" {
		out = append(out, conversation.NewUserTurn(r.Input))
	}
	out = append(out, r.Pending...)
	return out
}

// Tool returns the catalog entry with the given name.
func (r *Request) Tool(name string) (tools.Description, bool) {
	for _, t := range r.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return tools.Description{}, false
}

// DecodeArgument maps the raw arguments a provider sent for a tool call onto
// the tool's string argument. Arguments that do not fit the tool's schema, or
// calls to tools outside the catalog, are passed through raw so the tool's
// own error reaches the backend on the next step.
func (r *Request) DecodeArgument(name, raw string) string {
	desc, ok := r.Tool(name)
	if !ok {
		return raw
	}
	arg, err := tools.DecodeArgument(desc, raw)
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("tool arguments do not match schema, passing them through")
		return raw
	}
	return arg
}

// Decision is what the backend answers: a FinalAnswer or a ToolCall.
type Decision interface {
	isDecision()
}

type FinalAnswer struct {
	Text string `yaml:"text" json:"text"`
}

// ToolCall asks for one tool invocation. ID is the provider's call id, if it
// has one.
type ToolCall struct {
	ID       string `yaml:"id,omitempty" json:"id,omitempty"`
	Name     string `yaml:"name" json:"name"`
	Argument string `yaml:"argument" json:"argument"`
}

func (FinalAnswer) isDecision() {}
func (ToolCall) isDecision()    {}
