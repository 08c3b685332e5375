// Package schema contains the contracts shared across snowwise packages.
// Concrete implementations live in their respective packages.
package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface every agent-callable tool must satisfy.
//
// Execute reports tool-level failures as "Error: ..." text with a nil
// error; a non-nil error means the session itself is broken (for example a
// lost warehouse connection) and the turn must stop.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// ToolDescriptor is the immutable description of a tool as shown to the model.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Describe returns the descriptor for t.
func Describe(t Tool) ToolDescriptor {
	return ToolDescriptor{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()}
}

// ToolInvocation is a tool call parsed from model output. Input is the raw
// text following "Action Input:".
type ToolInvocation struct {
	Tool  string
	Input string
}
