package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowwise/snowwise/internal/schema"
)

func TestPromptBuilder_Build(t *testing.T) {
	pb := NewPromptBuilder([]schema.ToolDescriptor{
		{Name: "sql_db_query", Description: "runs a query"},
		{Name: "sql_db_schema", Description: "describes tables"},
	})

	p := pb.Build(nil, "find slow queries", "")
	assert.True(t, strings.HasPrefix(p, SystemInstruction))
	assert.Contains(t, p, "sql_db_query: runs a query\nsql_db_schema: describes tables")
	assert.Contains(t, p, "Action: the action to take, should be one of [sql_db_query, sql_db_schema]")
	assert.NotContains(t, p, "Previous conversation")
	assert.True(t, strings.HasSuffix(p, "Begin!\n\nQuestion: find slow queries\nThought:"))
}

func TestPromptBuilder_HistoryAndScratchpad(t *testing.T) {
	pb := NewPromptBuilder(nil)
	history := []schema.Turn{
		schema.NewUserTurn("find slow queries"),
		schema.NewAssistantTurn("Here are 20 queries. Continue?"),
	}
	scratch := appendStep("", " check", "ok")

	p := pb.Build(history, "yes", scratch)
	assert.Contains(t, p, "Previous conversation:\nUser: find slow queries\nAssistant: Here are 20 queries. Continue?\n")
	assert.True(t, strings.HasSuffix(p, "Question: yes\nThought: check\nObservation: ok\nThought: "))
}

func TestSystemInstruction(t *testing.T) {
	assert.Contains(t, SystemInstruction, "politely refuse")
	assert.Contains(t, SystemInstruction, "Only analyze and optimize SELECT queries")
	assert.Contains(t, SystemInstruction, "seek approval from the user at every step")
	for _, step := range []string{"1. Identify Expensive Queries", "2. Analyze Query Structure", "3. Suggest Optimizations", "4. Validate Improvements", "5. Prepare Summary"} {
		assert.Contains(t, SystemInstruction, step)
	}
}
