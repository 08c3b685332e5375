package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Action(t *testing.T) {
	d, err := Parse(" I should look at the history view.\nAction: sql_db_query\nAction Input: \"SELECT 1\"")
	require.NoError(t, err)
	assert.False(t, d.Done)
	assert.Equal(t, "sql_db_query", d.Action.Tool)
	assert.Equal(t, "SELECT 1", d.Action.Input)
	assert.Equal(t, "I should look at the history view.", d.Thought())
}

func TestParse_FinalAnswer(t *testing.T) {
	d, err := Parse(" I now know the final answer\nFinal Answer: The top query scans 2 TB.\nIt runs hourly.")
	require.NoError(t, err)
	assert.True(t, d.Done)
	assert.Equal(t, "The top query scans 2 TB.\nIt runs hourly.", d.Final)
}

func TestParse_DropsHallucinatedObservation(t *testing.T) {
	text := " Check the schema.\nAction: sql_db_schema\nAction Input: QUERY_HISTORY\nObservation: made up\nThought: I now know\nFinal Answer: wrong"
	d, err := Parse(text)
	require.NoError(t, err)
	assert.False(t, d.Done)
	assert.Equal(t, "sql_db_schema", d.Action.Tool)
	assert.Equal(t, "QUERY_HISTORY", d.Action.Input)
	assert.NotContains(t, d.Log, "made up")
}

func TestParse_BothIsFormatError(t *testing.T) {
	_, err := Parse("Action: sql_db_query\nAction Input: SELECT 1\nFinal Answer: done")
	assert.True(t, errors.Is(err, ErrOutputFormat))
}

func TestParse_MissingAction(t *testing.T) {
	_, err := Parse("I am not sure what to do.")
	require.ErrorIs(t, err, ErrOutputFormat)
	assert.Contains(t, err.Error(), "Missing 'Action:'")
}

func TestParse_MissingActionInput(t *testing.T) {
	_, err := Parse("Action: sql_db_query")
	require.ErrorIs(t, err, ErrOutputFormat)
	assert.Contains(t, err.Error(), "Missing 'Action Input:'")
}

func TestParse_CodeFenceAndThinkBlocks(t *testing.T) {
	d, err := Parse("<think>hidden</think> Run it.\nAction: `sql_db_query`\nAction Input: ```sql\nSELECT *\nFROM t\n```")
	require.NoError(t, err)
	assert.Equal(t, "sql_db_query", d.Action.Tool)
	assert.Equal(t, "SELECT *\nFROM t", d.Action.Input)
}

func TestParse_KeepsQuotedIdentifiers(t *testing.T) {
	for input, want := range map[string]string{
		`SELECT * FROM "MY_TABLE"`:            `SELECT * FROM "MY_TABLE"`,
		`"SELECT * FROM orders"`:              `SELECT * FROM orders`,
		`"DB"."SCHEMA"."T"`:                   `"DB"."SCHEMA"."T"`,
		`"SELECT "A" FROM "MY_TABLE""`:        `"SELECT "A" FROM "MY_TABLE""`,
		` SELECT "COL" FROM t WHERE x = 'y' `: `SELECT "COL" FROM t WHERE x = 'y'`,
	} {
		d, err := Parse("Run it.\nAction: sql_db_query\nAction Input: " + input)
		require.NoError(t, err)
		assert.Equal(t, want, d.Action.Input, "input %q", input)
	}
}
