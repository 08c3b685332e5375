package tools

import (
	"github.com/snowwise/snowwise/internal/llm"
	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/warehouse"
)

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	tools map[string]schema.Tool
	order []string
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{tools: make(map[string]schema.Tool)}
}

// WithTool adds a tool and returns the builder, enabling chaining.
// Re-adding a name replaces the tool but keeps its original position.
func (b *RegistryBuilder) WithTool(tool schema.Tool) *RegistryBuilder {
	if _, ok := b.tools[tool.Name()]; !ok {
		b.order = append(b.order, tool.Name())
	}
	b.tools[tool.Name()] = tool

	return b
}

// Build produces an immutable Registry from the accumulated tools.
func (b *RegistryBuilder) Build() *Registry {
	tools := make(map[string]schema.Tool, len(b.tools))
	for k, v := range b.tools {
		tools[k] = v
	}
	return &Registry{tools: tools, order: append([]string(nil), b.order...)}
}

// SQLToolset is the warehouse access the built-in tools need.
type SQLToolset interface {
	Describer
	Executor
}

// NewSQLRegistry registers the three warehouse tools in the order the model
// is shown them.
func NewSQLRegistry(conn SQLToolset, completer llm.Completer, guard warehouse.Guard) *Registry {
	return NewRegistryBuilder().
		WithTool(NewQueryExecTool(conn, guard)).
		WithTool(NewSchemaLookupTool(conn)).
		WithTool(NewQueryCheckerTool(completer)).
		Build()
}
