package agent

import "time"

type AgentDefaults struct {
	Model             string        `yaml:"model"`
	MaxSteps          int           `yaml:"maxSteps"`
	MemoryWindow      int           `yaml:"memoryWindow"`
	CompletionTimeout time.Duration `yaml:"completionTimeout"`
}

type AgentsConfig struct {
	Defaults AgentDefaults `yaml:"defaults"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Model:             "snowflake-arctic",
		MaxSteps:          15,
		MemoryWindow:      40,
		CompletionTimeout: 2 * time.Minute,
	}
}

func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{Defaults: defaultAgentDefaults()}
}
