package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/snowwise/snowwise/internal/warehouse"
)

// Executor is the part of warehouse.Conn the query tool needs.
type Executor interface {
	Exec(ctx context.Context, query string) (*warehouse.Table, string, error)
}

// QueryResult is the typed outcome of one execution. StatementID is empty
// exactly when Err is set.
type QueryResult struct {
	Table       *warehouse.Table
	StatementID string
	Err         error
}

// String renders the result as the observation text the model sees.
func (r QueryResult) String() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}
	return r.Table.String() + "\n\nquery_id: " + r.StatementID
}

// QueryExecTool runs a query and reports its result with the statement id.
type QueryExecTool struct {
	conn  Executor
	guard warehouse.Guard
}

func NewQueryExecTool(conn Executor, guard warehouse.Guard) *QueryExecTool {
	return &QueryExecTool{conn: conn, guard: guard}
}

func (t *QueryExecTool) Name() string { return string(ToolQuery) }
func (t *QueryExecTool) Description() string {
	return "Input to this tool is a detailed and correct SQL query, output is a " +
		"result and query_id from the database. If the query is not correct, an error message " +
		"will be returned. If an error is returned, rewrite the query, check the " +
		"query, and try again. If you encounter an issue with Unknown column " +
		"'xxxx' in 'field list', use " + string(ToolSchema) + " " +
		"to query the correct table fields."
}
func (t *QueryExecTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "A detailed and correct SQL query."
			}
		},
		"required": ["query"]
	}`)
}

// Run executes query after the read-only check.
func (t *QueryExecTool) Run(ctx context.Context, query string) QueryResult {
	query = strings.TrimSpace(query)
	if err := t.guard.Check(query); err != nil {
		return QueryResult{Err: err}
	}
	table, id, err := t.conn.Exec(ctx, query)
	if err != nil {
		return QueryResult{Err: err}
	}
	return QueryResult{Table: table, StatementID: id}
}

func (t *QueryExecTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "Error: query is required", nil
	}

	res := t.Run(ctx, query)
	if warehouse.IsConnectionError(res.Err) {
		return "", res.Err
	}
	return res.String(), nil
}
