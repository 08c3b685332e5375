package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/snowwise/snowwise/internal/llm"
	"github.com/snowwise/snowwise/internal/warehouse"
)

const checkerTemplate = `%s
Double check the %s query above for common mistakes, including:
- Using NOT IN with NULL values
- Using UNION when UNION ALL should have been used
- Using BETWEEN for exclusive ranges
- Data type mismatch in predicates
- Properly quoting identifiers
- Using the correct number of arguments for functions
- Casting to the correct data type
- Using the proper columns for joins

If there are any of the above mistakes, rewrite the query. If there are no mistakes, just reproduce the original query.

Output the final SQL query only.

SQL Query: `

const dialectSnowflake = "Snowflake"

// QueryCheckerTool asks the completion model to review a query for common
// mistakes and returns its (possibly rewritten) version.
type QueryCheckerTool struct {
	completer llm.Completer
	dialect   string
}

func NewQueryCheckerTool(completer llm.Completer) *QueryCheckerTool {
	return &QueryCheckerTool{completer: completer, dialect: dialectSnowflake}
}

func (t *QueryCheckerTool) Name() string { return string(ToolQueryChecker) }
func (t *QueryCheckerTool) Description() string {
	return "Use this tool to double check if your query is correct before executing it. " +
		"Always use this tool before executing a query with " + string(ToolQuery) + "!"
}
func (t *QueryCheckerTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "A detailed and SQL query to be checked."
			}
		},
		"required": ["query"]
	}`)
}

// CheckerPrompt renders the review prompt for query. The completion client
// escapes it, so query is embedded verbatim.
func CheckerPrompt(dialect, query string) string {
	return fmt.Sprintf(checkerTemplate, query, dialect)
}

func (t *QueryCheckerTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "Error: query is required", nil
	}

	out, err := t.completer.Complete(ctx, CheckerPrompt(t.dialect, query))
	if err != nil {
		if warehouse.IsConnectionError(err) {
			return "", err
		}
		return "Error: " + err.Error(), nil
	}
	return cleanChecked(out), nil
}

// cleanChecked trims whitespace and a leading "SQL Query:" label echoed
// from the prompt.
func cleanChecked(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len("SQL Query:") && strings.EqualFold(s[:len("SQL Query:")], "SQL Query:") {
		s = strings.TrimSpace(s[len("SQL Query:"):])
	}
	return s
}
