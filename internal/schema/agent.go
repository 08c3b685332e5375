package schema

import (
	"context"
	"time"
)

type AgentSettings struct {
	Model             string
	MaxSteps          int
	MemoryWindow      int
	ReadOnly          bool
	CompletionTimeout time.Duration
}

func NewAgentSettings(model string, maxSteps, memoryWindow int, readOnly bool, completionTimeout time.Duration) AgentSettings {
	return AgentSettings{
		Model:             model,
		MaxSteps:          maxSteps,
		MemoryWindow:      memoryWindow,
		ReadOnly:          readOnly,
		CompletionTimeout: completionTimeout,
	}
}

type AgentLooper interface {
	// ProcessDirect runs one turn outside the bus flow, e.g. the CLI
	// single-message mode or a scheduled analysis.
	ProcessDirect(ctx context.Context, content, key, channel, chatID string) (string, error)
	// Run processes messages from the bus until ctx is cancelled.
	Run(ctx context.Context) error
}
