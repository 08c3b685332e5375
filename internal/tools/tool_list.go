package tools

import (
	"encoding/json"
	"sort"

	"github.com/snowwise/snowwise/internal/schema"
)

// ToolList is a named set of tools, used for listing and export.
type ToolList struct {
	tools map[string]schema.Tool
}

func NewToolList(ts ...schema.Tool) *ToolList {
	list := ToolList{tools: make(map[string]schema.Tool, len(ts))}
	for _, t := range ts {
		list.tools[t.Name()] = t
	}

	return &list
}

// Get returns the tool with the given name, or nil if not found.
func (r *ToolList) Get(name string) schema.Tool {
	return r.tools[name]
}

// Add registers a new tool, replacing any existing tool with the same name.
func (r *ToolList) Add(t schema.Tool) schema.Tool {
	r.tools[t.Name()] = t

	return t
}

// Len returns the number of tools.
func (r *ToolList) Len() int { return len(r.tools) }

// Definitions returns all tool definitions in function-calling format,
// sorted by name.
func (r *ToolList) Definitions() []map[string]any {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]map[string]any, 0, len(r.tools))
	for _, name := range names {
		t := r.tools[name]
		var params any
		if err := json.Unmarshal(t.Parameters(), &params); err != nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  params,
			},
		})
	}
	return list
}
