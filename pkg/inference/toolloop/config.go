package toolloop

// LoopConfig configures one agent loop.
type LoopConfig struct {
	// MaxIterations bounds the number of tool dispatches while answering one
	// utterance. A backend that keeps asking for tools past this bound fails
	// the turn with *AgentLoopExceededError.
	MaxIterations int `yaml:"max_iterations"`
	// SystemPrompt is sent along with every request. Empty means none.
	SystemPrompt string `yaml:"system_prompt"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations: 5,
	}
}

func (c LoopConfig) WithMaxIterations(maxIterations int) LoopConfig {
	c.MaxIterations = maxIterations
	return c
}

func (c LoopConfig) WithSystemPrompt(prompt string) LoopConfig {
	c.SystemPrompt = prompt
	return c
}
