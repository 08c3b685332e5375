package agent

import (
	"fmt"
	"strings"

	"github.com/snowwise/snowwise/internal/schema"
)

// SystemInstruction scopes the assistant to query analysis and lays out the
// plan it follows with the user.
const SystemInstruction = `You are a helpful assistant for analyzing and optimizing queries running on Snowflake to reduce resource consumption and improve performance.
If the user's question is not related to query analysis or optimization, then politely refuse to answer it.
Scope: Only analyze and optimize SELECT queries. Do not run any queries that mutate the data warehouse (e.g., CREATE, UPDATE, DELETE, DROP).
YOU SHOULD FOLLOW THIS PLAN and seek approval from the user at every step before proceeding further:
1. Identify Expensive Queries
    - For a given date range (default: last 7 days), identify the top 20 most expensive SELECT queries using the SNOWFLAKE.ACCOUNT_USAGE.QUERY_HISTORY view.
    - Criteria for "most expensive" can be based on execution time or data scanned.
2. Analyze Query Structure
    - For each identified query, determine the tables being referenced in it and then get the schemas of these tables to understand their structure.
3. Suggest Optimizations
    - With the above context in mind, analyze the query logic to identify potential improvements.
    - Provide clear reasoning for each suggested optimization, specifying which metric (e.g., execution time, data scanned) the optimization aims to improve.
4. Validate Improvements
    - Run the original and optimized queries to compare performance metrics.
    - Ensure the output data of the optimized query matches the original query to verify correctness.
    - Compare key metrics such as execution time and data scanned, using the query_id obtained from running the queries and the SNOWFLAKE.ACCOUNT_USAGE.QUERY_HISTORY view.
5. Prepare Summary
    - Document the approach and methodology used for analyzing and optimizing the queries.
    - Summarize the results, including:
        - Original vs. optimized query performance
        - Metrics improved
        - Any notable observations or recommendations for further action`

const (
	promptPrefix = "Answer the following questions as best you can. You have access to the following tools:"

	formatInstructions = `Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question`
)

// PromptBuilder renders the single text prompt sent to the completion model
// on every reasoning step.
type PromptBuilder struct {
	instruction string
	tools       []schema.ToolDescriptor
}

func NewPromptBuilder(tools []schema.ToolDescriptor) *PromptBuilder {
	return &PromptBuilder{instruction: SystemInstruction, tools: tools}
}

// Build assembles instruction, tool list, format, recent history, the
// user's input and the scratchpad of earlier steps in this turn.
func (pb *PromptBuilder) Build(history []schema.Turn, input, scratchpad string) string {
	names := make([]string, 0, len(pb.tools))
	var toolLines []string
	for _, t := range pb.tools {
		names = append(names, t.Name)
		toolLines = append(toolLines, fmt.Sprintf("%s: %s", t.Name, t.Description))
	}

	var sb strings.Builder
	sb.WriteString(pb.instruction)
	sb.WriteString("\n\n")
	sb.WriteString(promptPrefix)
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(toolLines, "\n"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, formatInstructions, strings.Join(names, ", "))

	if len(history) > 0 {
		sb.WriteString("\n\nPrevious conversation:\n")
		for _, turn := range history {
			switch turn.Role {
			case schema.RoleUser:
				sb.WriteString("User: ")
			default:
				sb.WriteString("Assistant: ")
			}
			sb.WriteString(turn.Content)
			sb.WriteByte('\n')
		}
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString("\nBegin!\n\nQuestion: ")
	sb.WriteString(input)
	sb.WriteString("\nThought:")
	sb.WriteString(scratchpad)
	return sb.String()
}

// appendStep extends the scratchpad with one completed step.
func appendStep(scratchpad, log, observation string) string {
	return scratchpad + log + "\nObservation: " + observation + "\nThought: "
}
