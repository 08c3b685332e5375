package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/snowwise/snowwise/internal/warehouse"
)

// Describer is the part of warehouse.Conn the schema tool needs.
type Describer interface {
	Describe(ctx context.Context, table string) (*warehouse.Table, error)
}

// SchemaLookupTool returns column metadata for a comma-separated list of
// tables, one section per table in input order.
type SchemaLookupTool struct {
	conn Describer
}

func NewSchemaLookupTool(conn Describer) *SchemaLookupTool {
	return &SchemaLookupTool{conn: conn}
}

func (t *SchemaLookupTool) Name() string { return string(ToolSchema) }
func (t *SchemaLookupTool) Description() string {
	return "Input to this tool is a comma-separated list of tables, output is the " +
		"schema and sample rows for those tables. " +
		"Example Input: table1, table2, table3"
}
func (t *SchemaLookupTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"table_names": {
				"type": "string",
				"description": "A comma-separated list of the table names for which to return the schema. Example input: 'table1, table2, table3'"
			}
		},
		"required": ["table_names"]
	}`)
}

// Execute describes every listed table. A failing table gets an error
// section and the others are still described; a lost connection aborts.
func (t *SchemaLookupTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	raw, _ := params["table_names"].(string)
	names := SplitTableNames(raw)
	if len(names) == 0 {
		return "Error: table_names is required", nil
	}

	var sb strings.Builder
	for _, name := range names {
		table, err := t.conn.Describe(ctx, name)
		if warehouse.IsConnectionError(err) {
			return "", err
		}
		fmt.Fprintf(&sb, "Schema for table %s:\n", name)
		if err != nil {
			fmt.Fprintf(&sb, "Error: %v\n\n", err)
			continue
		}
		sb.WriteString(table.String())
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// SplitTableNames splits a comma-separated list, trimming whitespace and
// surrounding quotes and skipping empty entries.
func SplitTableNames(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, "'`")
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
