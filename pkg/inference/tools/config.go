package tools

import "time"

// ToolConfig specifies how tools are exposed and executed.
type ToolConfig struct {
	// ExecutionTimeout bounds a single invocation. Zero disables the timeout.
	ExecutionTimeout time.Duration `json:"execution_timeout" yaml:"execution_timeout"`
	// AllowedTools restricts the catalog shown to the backend. Nil allows all.
	AllowedTools []string `json:"allowed_tools" yaml:"allowed_tools"`
}

func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		ExecutionTimeout: 30 * time.Second,
		AllowedTools:     nil,
	}
}

func (tc ToolConfig) WithExecutionTimeout(timeout time.Duration) ToolConfig {
	tc.ExecutionTimeout = timeout
	return tc
}

func (tc ToolConfig) WithAllowedTools(toolNames []string) ToolConfig {
	tc.AllowedTools = toolNames
	return tc
}

// IsToolAllowed checks if a tool is allowed by the configuration.
func (tc ToolConfig) IsToolAllowed(toolName string) bool {
	if len(tc.AllowedTools) == 0 {
		return true
	}
	for _, allowed := range tc.AllowedTools {
		if allowed == toolName {
			return true
		}
	}
	return false
}
