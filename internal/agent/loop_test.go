package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/llm/llmtest"
	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/session"
	"github.com/snowwise/snowwise/internal/tools"
	"github.com/snowwise/snowwise/internal/warehouse"
	"github.com/snowwise/snowwise/internal/warehouse/warehousetest"
)

// spyTool records every call and answers with a fixed reply.
type spyTool struct {
	name  string
	reply string
	err   error

	mu    sync.Mutex
	calls []map[string]any
}

func (s *spyTool) Name() string        { return s.name }
func (s *spyTool) Description() string { return "spy " + s.name }
func (s *spyTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)
}
func (s *spyTool) Execute(_ context.Context, params map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, params)
	return s.reply, s.err
}
func (s *spyTool) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type invalidator struct{ n int }

func (i *invalidator) Invalidate() { i.n++ }

func newTestLoop(completer *llmtest.Scripted, maxSteps int, ts ...schema.Tool) (*AgentLoop, *invalidator) {
	b := tools.NewRegistryBuilder()
	for _, t := range ts {
		b.WithTool(t)
	}
	settings := schema.NewAgentSettings("snowflake-arctic", maxSteps, 10, true, 0)
	inv := &invalidator{}
	loop := NewAgentLoop(
		bus.NewAgentBus(8), bus.NewChannelBus(32), bus.NewConsoleBus(32),
		settings, session.NewManager(),
		NewLoopRunner(completer, b.Build(), settings),
		inv,
	)
	return loop, inv
}

// ─── Turn semantics ───────────────────────────────────────────────────────────

func TestProcessDirect_RefusesUnrelatedRequest(t *testing.T) {
	spy := &spyTool{name: "sql_db_query", reply: "should not run"}
	completer := llmtest.NewScripted(
		" This request is not about query analysis or optimization.\nFinal Answer: Sorry, I can only help with analyzing and optimizing Snowflake queries.",
	)
	loop, _ := newTestLoop(completer, 15, spy)

	reply, err := loop.ProcessDirect(context.Background(), "write me a poem", "cli:direct", "cli", "direct")
	require.NoError(t, err)
	assert.Contains(t, reply, "only help with analyzing and optimizing")
	assert.Equal(t, 0, spy.Calls())

	prompts := completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "politely refuse")
	assert.True(t, strings.HasSuffix(prompts[0], "Question: write me a poem\nThought:"))
}

func TestProcessDirect_ToolThenAnswer(t *testing.T) {
	spy := &spyTool{name: "sql_db_query", reply: "   1\n0  1\n\nquery_id: stub-id-123"}
	completer := llmtest.NewScripted(
		" Run a probe.\nAction: sql_db_query\nAction Input: SELECT 1",
		" I now know the final answer\nFinal Answer: query_id is stub-id-123",
	)
	loop, _ := newTestLoop(completer, 15, spy)

	reply, err := loop.ProcessDirect(context.Background(), "probe", "cli:direct", "cli", "direct")
	require.NoError(t, err)
	assert.Equal(t, "query_id is stub-id-123", reply)
	require.Equal(t, 1, spy.Calls())
	assert.Equal(t, "SELECT 1", spy.calls[0]["query"])

	prompts := completer.Prompts()
	require.Len(t, prompts, 2)
	assert.True(t, strings.HasSuffix(prompts[1],
		"Thought: Run a probe.\nAction: sql_db_query\nAction Input: SELECT 1\nObservation: "+spy.reply+"\nThought: "))
}

func TestProcessDirect_UnknownToolBecomesObservation(t *testing.T) {
	spy := &spyTool{name: "sql_db_query"}
	completer := llmtest.NewScripted(
		" Drop it.\nAction: drop_table\nAction Input: orders",
		" Fine.\nFinal Answer: cannot do that",
	)
	loop, _ := newTestLoop(completer, 15, spy)

	reply, err := loop.ProcessDirect(context.Background(), "x", "k", "cli", "direct")
	require.NoError(t, err)
	assert.Equal(t, "cannot do that", reply)
	assert.Equal(t, 0, spy.Calls())
	assert.Contains(t, completer.Prompts()[1], "Observation: drop_table is not a valid tool, try one of [sql_db_query].")
}

func TestProcessDirect_FormatErrorBecomesObservation(t *testing.T) {
	completer := llmtest.NewScripted(
		"I think I should query something.",
		" ok\nFinal Answer: done",
	)
	loop, _ := newTestLoop(completer, 15, &spyTool{name: "sql_db_query"})

	reply, err := loop.ProcessDirect(context.Background(), "x", "k", "cli", "direct")
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	assert.Contains(t, completer.Prompts()[1], "Observation: invalid format: Missing 'Action:' after 'Thought:'")
}

func TestProcessDirect_MaxStepsExceeded(t *testing.T) {
	spy := &spyTool{name: "sql_db_query", reply: "ok"}
	step := " again\nAction: sql_db_query\nAction Input: SELECT 1"
	completer := llmtest.NewScripted(step, step, step, step)
	loop, _ := newTestLoop(completer, 3, spy)

	reply, err := loop.ProcessDirect(context.Background(), "loop forever", "k", "cli", "direct")
	require.ErrorIs(t, err, ErrMaxStepsExceeded)
	assert.Contains(t, reply, "3 reasoning steps")
	assert.Equal(t, 3, spy.Calls())
	assert.Len(t, completer.Prompts(), 3)

	// A failed turn leaves no transcript behind.
	assert.Equal(t, 0, loop.sessions.GetOrCreate("k").Len())
}

func TestProcessDirect_ConnectionErrorInvalidates(t *testing.T) {
	connErr := fmt.Errorf("%w: 390114 authentication token has expired", warehouse.ErrConnection)
	stub := &warehousetest.Stub{Errors: map[string]error{"SELECT 1": connErr}}
	reg := tools.NewSQLRegistry(stub, llmtest.NewScripted(), warehouse.Guard{Enabled: true})
	completer := llmtest.NewScripted(" run\nAction: sql_db_query\nAction Input: SELECT 1")

	settings := schema.NewAgentSettings("", 15, 10, true, 0)
	inv := &invalidator{}
	loop := NewAgentLoop(bus.NewAgentBus(1), bus.NewChannelBus(1), bus.NewConsoleBus(1),
		settings, session.NewManager(), NewLoopRunner(completer, reg, settings), inv)

	reply, err := loop.ProcessDirect(context.Background(), "x", "k", "cli", "direct")
	require.True(t, warehouse.IsConnectionError(err))
	assert.Equal(t, replyConnectionLost, reply)
	assert.Equal(t, 1, inv.n)
}

func TestProcessDirect_CompletionFailure(t *testing.T) {
	completer := llmtest.NewScripted().FailAt(0, errors.New("cortex unavailable"))
	loop, inv := newTestLoop(completer, 15)

	reply, err := loop.ProcessDirect(context.Background(), "x", "k", "cli", "direct")
	require.Error(t, err)
	assert.Contains(t, reply, "cortex unavailable")
	assert.Equal(t, 0, inv.n)
}

func TestProcessDirect_HistoryIsCarried(t *testing.T) {
	completer := llmtest.NewScripted(
		" hi\nFinal Answer: Here are the top 20 queries. Shall I analyze them?",
		" ok\nFinal Answer: Analyzing.",
	)
	loop, _ := newTestLoop(completer, 15)
	ctx := context.Background()

	_, err := loop.ProcessDirect(ctx, "find expensive queries", "slack:C1", "slack", "C1")
	require.NoError(t, err)
	_, err = loop.ProcessDirect(ctx, "yes", "slack:C1", "slack", "C1")
	require.NoError(t, err)

	second := completer.Prompts()[1]
	assert.Contains(t, second, "User: find expensive queries\nAssistant: Here are the top 20 queries. Shall I analyze them?\n")
	assert.Equal(t, 4, loop.sessions.GetOrCreate("slack:C1").Len())
}

// ─── Slash commands ───────────────────────────────────────────────────────────

func TestSlashCommands(t *testing.T) {
	completer := llmtest.NewScripted(" x\nFinal Answer: a")
	loop, _ := newTestLoop(completer, 15)
	ctx := context.Background()

	_, err := loop.ProcessDirect(ctx, "hello", "k", "cli", "direct")
	require.NoError(t, err)
	require.Equal(t, 2, loop.sessions.GetOrCreate("k").Len())

	reply, err := loop.ProcessDirect(ctx, " /NEW ", "k", "cli", "direct")
	require.NoError(t, err)
	assert.Equal(t, replyNew, reply)
	assert.Equal(t, 0, loop.sessions.GetOrCreate("k").Len())

	reply, err = loop.ProcessDirect(ctx, "/help", "k", "cli", "direct")
	require.NoError(t, err)
	assert.Contains(t, reply, "/new")
	assert.Len(t, completer.Prompts(), 1)
}

// ─── Bus flow ─────────────────────────────────────────────────────────────────

func TestRun_PublishesProgressThenReply(t *testing.T) {
	spy := &spyTool{name: "sql_db_query", reply: "rows"}
	completer := llmtest.NewScripted(
		" Look at history.\nAction: sql_db_query\nAction Input: SELECT 1",
		" done\nFinal Answer: all good",
	)
	loop, _ := newTestLoop(completer, 15, spy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	msg := bus.NewAgentBusMessage(bus.ChannelSlack, "U1", "C1", "find slow queries", "")
	msg.SetMetadata(map[string]any{"thread_ts": "1.5"})
	loop.agentBus.Publish(msg)

	var got []bus.ChannelMessage
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case m := <-loop.channelBus.Subscribe():
			got = append(got, m)
		case <-timeout:
			t.Fatalf("timed out, got %d messages", len(got))
		}
	}

	assert.True(t, got[0].IsProgress())
	assert.Equal(t, "Look at history.", got[0].Content())
	assert.True(t, got[1].IsProgress())
	assert.Equal(t, `sql_db_query("SELECT 1")`, got[1].Content())
	assert.False(t, got[2].IsProgress())
	assert.Equal(t, "all good", got[2].Content())
	assert.Equal(t, "1.5", got[2].Metadata()["thread_ts"])
	assert.Equal(t, bus.ChannelSlack, got[2].Channel())
}

func TestRun_CLIRepliesGoToConsole(t *testing.T) {
	completer := llmtest.NewScripted(" x\nFinal Answer: hi")
	loop, _ := newTestLoop(completer, 15)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	loop.agentBus.Publish(bus.NewAgentBusMessage(bus.ChannelCLI, bus.SenderIdCLI, "direct", "hello", ""))

	select {
	case m := <-loop.consoleBus.Subscribe():
		assert.Equal(t, "hi", m.Content())
	case <-time.After(2 * time.Second):
		t.Fatal("no reply on console bus")
	}
}

func TestRun_ConnectionLostFlag(t *testing.T) {
	connErr := fmt.Errorf("%w: bad credentials", warehouse.ErrConnection)
	completer := llmtest.NewScripted().FailAt(0, connErr)
	loop, inv := newTestLoop(completer, 15)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	loop.agentBus.Publish(bus.NewAgentBusMessage(bus.ChannelCLI, bus.SenderIdCLI, "direct", "hello", ""))

	select {
	case m := <-loop.consoleBus.Subscribe():
		assert.True(t, m.ConnectionLost())
		assert.Equal(t, 1, inv.n)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply on console bus")
	}
}
