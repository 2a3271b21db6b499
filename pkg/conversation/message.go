package conversation

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleTool      Role = "tool"
)

// Turn is one atomic entry of the conversation history.
//
// ToolName, ToolCallID, ToolArgument and ToolError are only set on tool turns.
// They carry enough information for provider engines to rebuild the native
// "assistant requested tool, tool answered" message pair. ToolError marks a
// turn whose Content is the failure of the tool rather than its result.
type Turn struct {
	Role         Role   `yaml:"role" json:"role"`
	Content      string `yaml:"content" json:"content"`
	ToolName     string `yaml:"tool_name,omitempty" json:"tool_name,omitempty"`
	ToolCallID   string `yaml:"tool_call_id,omitempty" json:"tool_call_id,omitempty"`
	ToolArgument string `yaml:"tool_argument,omitempty" json:"tool_argument,omitempty"`
	ToolError    bool   `yaml:"tool_error,omitempty" json:"tool_error,omitempty"`
}

func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text}
}

func NewAssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text}
}

func NewToolTurn(callID, toolName, argument, result string) Turn {
	return Turn{
		Role:         RoleTool,
		Content:      result,
		ToolName:     toolName,
		ToolCallID:   callID,
		ToolArgument: argument,
	}
}

func (t Turn) IsTool() bool {
	return t.Role == RoleTool
}

// Validate reports whether the turn is well-formed enough to be stored.
func (t Turn) Validate() error {
	switch t.Role {
	case RoleUser, RoleAssistant:
	case RoleTool:
		if t.ToolName == "" {
			return fmt.Errorf("tool turn without tool name")
		}
	case RoleSystem:
		return fmt.Errorf("system turns are not stored in memory")
	default:
		return fmt.Errorf("unknown role %q", t.Role)
	}
	return nil
}

func (t Turn) String() string {
	if t.IsTool() {
		return fmt.Sprintf("[%s:%s]: %s", t.Role, t.ToolName, strings.TrimRight(t.Content, "\n"))
	}
	return fmt.Sprintf("[%s]: %s", t.Role, strings.TrimRight(t.Content, "\n"))
}
