package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/shared/llmutils"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolQuery        ToolName = "sql_db_query"
	ToolSchema       ToolName = "sql_db_schema"
	ToolQueryChecker ToolName = "sql_db_query_checker"
)

var (
	// ErrUnknownTool is returned by Dispatch for a name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidInput is returned by Dispatch when the input cannot be bound
	// to the tool's required parameters.
	ErrInvalidInput = errors.New("invalid tool input")
)

// Registry holds a set of named tools and exposes them for execution.
// Tools keep their registration order, which is the order the model sees.
type Registry struct {
	tools map[string]schema.Tool
	order []string
}

// GetTool returns the tool with the given name, or nil.
func (r *Registry) GetTool(name ToolName) schema.Tool {
	return r.tools[string(name)]
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Descriptors returns the tool descriptors in registration order.
func (r *Registry) Descriptors() []schema.ToolDescriptor {
	out := make([]schema.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, schema.Describe(r.tools[name]))
	}
	return out
}

func (r *Registry) AllTools() ToolList {
	list := ToolList{tools: make(map[string]schema.Tool, len(r.tools))}
	for _, name := range r.order {
		list.Add(r.tools[name])
	}
	return list
}

// Dispatch runs inv. An unregistered name fails with ErrUnknownTool and an
// unbindable input with ErrInvalidInput, both before the tool is touched.
// Any other error comes from the tool itself and is fatal for the turn.
func (r *Registry) Dispatch(ctx context.Context, inv schema.ToolInvocation) (string, error) {
	tool, ok := r.tools[inv.Tool]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, inv.Tool)
	}

	params, err := BindInput(tool.Parameters(), inv.Input)
	if err != nil {
		return "", err
	}

	tc := TurnCtx(ctx)
	slog.Info("tool call",
		"tool", inv.Tool,
		"session", tc.SessionKey,
		"input", llmutils.Truncate(inv.Input, 200),
	)
	start := time.Now()
	out, err := tool.Execute(ctx, params)
	if err != nil {
		slog.Error("tool failed", "tool", inv.Tool, "session", tc.SessionKey, "err", err)
		return "", err
	}
	slog.Debug("tool result",
		"tool", inv.Tool,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"output", llmutils.Truncate(out, 200),
	)
	return out, nil
}
